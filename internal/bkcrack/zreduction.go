package bkcrack

import (
	"slices"

	"github.com/sourcegraph/conc"
)

// AttackSize is the minimum number of known keystream bytes the attack
// needs to fully reconstruct a key triple.
const AttackSize = 12

// parallelSortThreshold is the point above which the dedupe step splits
// work across goroutines; below it, a sequential sort is faster because
// goroutine setup cost dominates.
const parallelSortThreshold = 1 << 12

// waitSize is the candidate-count threshold below which Zreduction starts
// a bounded countdown before stopping, to avoid riding out a pathological
// regrowth after a promising local minimum.
const waitSize = 256

// trackSize is the initial "best size" ceiling: any candidate count at or
// below it is eligible to be tracked as a local minimum.
const trackSize = 1 << 16

// ProgressFunc receives (done, total) callbacks during long-running
// passes. Implementations should be fast and non-blocking; it may be nil.
type ProgressFunc func(done, total int)

// Zreduction narrows the set of Zi[2,32) candidates consistent with a
// keystream, walking it backwards from the last byte.
type Zreduction struct {
	keystream []byte
	vector    []uint32
	index     int

	onProgress ProgressFunc
}

// NewZreduction creates a reduction pass over keystream. keystream must
// contain at least AttackSize bytes.
func NewZreduction(keystream []byte, onProgress ProgressFunc) *Zreduction {
	return &Zreduction{keystream: keystream, onProgress: onProgress}
}

// Generate seeds the candidate vector with every Zi[2,32) value
// consistent with the final keystream byte: 64 Zi[2,16) completions times
// 2^16 possible high halves, giving 2^22 candidates.
func (z *Zreduction) Generate() {
	z.index = len(z.keystream) - 1
	fragments := Zi216Array(z.keystream[len(z.keystream)-1])

	z.vector = make([]uint32, 0, len(fragments)<<16)
	for _, low := range fragments {
		for high := uint32(0); high < (1 << 16); high++ {
			z.vector = append(z.vector, high<<16|low)
		}
	}
}

// Reduce walks the keystream backwards from Generate's starting index down
// to AttackSize, pruning the candidate vector at each step and tracking
// the smallest vector seen so the caller has the fewest possible seeds to
// feed into Attack.
func (z *Zreduction) Reduce() {
	tracking := false
	var bestCopy []uint32
	bestIndex := 0
	bestSize := trackSize

	waiting := false
	wait := 0

	total := len(z.keystream) - AttackSize

	for i := len(z.keystream) - 1; i >= AttackSize; i-- {
		zim1High := make([]uint32, 0, len(z.vector))
		for _, zi232 := range z.vector {
			high := Zim1High10(zi232) & 0xfffffc00
			if HasZi216(z.keystream[i-1], high) {
				zim1High = append(zim1High, high)
			}
		}

		zim1High = sortDedup(zim1High)

		zim1Full := make([]uint32, 0, len(zim1High)*2)
		for _, high := range zim1High {
			for _, low := range Zi216Vector(z.keystream[i-1], high) {
				zim1Full = append(zim1Full, high|low)
			}
		}

		if len(zim1Full) <= bestSize {
			tracking = true
			bestIndex = i - 1
			bestSize = len(zim1Full)
			waiting = false
		} else if tracking {
			if bestIndex == i {
				// The vector is about to grow past the minimum: snapshot
				// it before it's replaced.
				bestCopy = z.vector

				if bestSize <= waitSize {
					waiting = true
					wait = bestSize * 4
				}
			}

			if waiting {
				wait--
				if wait == 0 {
					break
				}
			}
		}

		z.vector = zim1Full

		if z.onProgress != nil {
			z.onProgress(len(z.keystream)-i, total)
		}
	}

	if tracking {
		if bestIndex != AttackSize-1 {
			z.vector = bestCopy
		}
		z.index = bestIndex
	} else {
		z.index = AttackSize - 1
	}
}

// sortDedup sorts s in place and removes duplicates, using a concurrent
// merge sort above parallelSortThreshold and a plain sequential sort
// below it.
func sortDedup(s []uint32) []uint32 {
	if len(s) >= parallelSortThreshold {
		parallelSort(s)
	} else {
		slices.Sort(s)
	}
	return slices.Compact(s)
}

// parallelSort sorts s in place by splitting it into halves, sorting each
// half concurrently, and merging the results back into s. The output
// ordering is identical to a sequential sort, so this has no externally
// visible effect beyond wall-clock time.
func parallelSort(s []uint32) {
	if len(s) < parallelSortThreshold {
		slices.Sort(s)
		return
	}

	mid := len(s) / 2
	left := append([]uint32(nil), s[:mid]...)
	right := append([]uint32(nil), s[mid:]...)

	var wg conc.WaitGroup
	wg.Go(func() { parallelSort(left) })
	wg.Go(func() { parallelSort(right) })
	wg.Wait()

	merge(s, left, right)
}

func merge(dst, left, right []uint32) {
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if left[i] <= right[j] {
			dst[k] = left[i]
			i++
		} else {
			dst[k] = right[j]
			j++
		}
		k++
	}
	for ; i < len(left); i++ {
		dst[k] = left[i]
		k++
	}
	for ; j < len(right); j++ {
		dst[k] = right[j]
		k++
	}
}

// Size returns the number of candidates currently held.
func (z *Zreduction) Size() int {
	return len(z.vector)
}

// Index returns the keystream index the current vector's candidates
// correspond to.
func (z *Zreduction) Index() int {
	return z.index
}

// Vector returns the current candidate vector. The Zreduction keeps its
// own reference to it; Take should be used instead when the Zreduction
// itself should release its reference.
func (z *Zreduction) Vector() []uint32 {
	return z.vector
}

// Take returns the candidate vector and releases Zreduction's own
// reference to it, allowing the (up to 2^22-word) pre-reduction buffer to
// be reclaimed once the caller is done with it.
func (z *Zreduction) Take() []uint32 {
	v := z.vector
	z.vector = nil
	return v
}
