package bkcrack

import "sync"

// multiplier is the PKZIP LCG multiplier used in the Y register update.
const multiplier = 0x08088405

// multiplierInv is the multiplicative inverse of multiplier modulo 2^32,
// i.e. multiplier*multiplierInv == 1 (mod 2^32). It lets the Y update be
// inverted without a division.
const multiplierInv = 0xD94FA8CD

// msbProdFiber caches, for each possible top byte of a product
// v*multiplier, the set of v values that produce it. Entries are built
// lazily on first request since only a handful of top bytes are ever
// queried by a given attack run.
type msbProdFiber struct {
	mu    sync.Mutex
	built [256]bool
	table [256][]uint32
}

var msbFiber msbProdFiber

// MultInv returns x * multiplierInv mod 2^32, the value y such that
// y*multiplier == x (mod 2^32). Used to invert the Y register update:
//
//	Y' = (Y + lsb) * multiplier + 1
//	Y + lsb = MultInv(Y' - 1)
func MultInv(x uint32) uint32 {
	return x * multiplierInv
}

// MsbProdFiber returns every 32-bit value v such that (v*multiplier)>>24
// equals msb. Multiplication by multiplier is a bijection on uint32, so
// the fiber is obtained by enumerating every product P with top byte msb
// and mapping each back through the multiplicative inverse: v = P *
// multiplierInv. The result for a given msb is computed once and cached.
func MsbProdFiber(msb byte) []uint32 {
	msbFiber.mu.Lock()
	defer msbFiber.mu.Unlock()

	if msbFiber.built[msb] {
		return msbFiber.table[msb]
	}

	fiber := make([]uint32, 0, 1<<24)
	base := uint32(msb) << 24
	for low := uint32(0); low < (1 << 24); low++ {
		p := base | low
		fiber = append(fiber, p*multiplierInv)
	}

	msbFiber.table[msb] = fiber
	msbFiber.built[msb] = true
	return fiber
}
