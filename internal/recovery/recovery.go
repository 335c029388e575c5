// Package recovery wires the bkcrack cryptanalysis core together: it
// drives a Zreduction pass, fans the surviving candidates out to Attack,
// and performs the resulting decryption (optionally inflating the
// result as raw DEFLATE). This is the orchestration layer spec.md's
// core component descriptions leave as an external collaborator.
package recovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
	"github.com/ossyrian/bkcrack/internal/ziparchive"
)

// Stats reports bookkeeping about a FindKeys run, surfaced to the CLI
// for diagnostic output.
type Stats struct {
	CandidatesGenerated int
	CandidatesSurviving int
	ReductionIndex      int
}

// FindKeys runs Zreduction then Attack over d, returning the recovered
// key triple. When exhaustive is false, the search stops at the first
// candidate that verifies; when true, every surviving candidate is
// tried (useful for benchmarking the reduction's effectiveness), and the
// first one found is still what's returned.
//
// Progress is reported the way the teacher's long-running operations
// report it: a structured debug event plus a carriage-return line on
// standard output, not through a caller-supplied callback.
func FindKeys(ctx context.Context, d *bkcrack.Data, exhaustive bool) (bkcrack.Keys, Stats, error) {
	zr := bkcrack.NewZreduction(d.Keystream, reductionProgress)
	zr.Generate()
	generated := zr.Size()

	slog.Debug("generated initial Zi[2,32) candidates", "count", generated)

	zr.Reduce()

	stats := Stats{
		CandidatesGenerated: generated,
		CandidatesSurviving: zr.Size(),
		ReductionIndex:      zr.Index(),
	}
	slog.Info("z reduction complete",
		"surviving", stats.CandidatesSurviving,
		"index", stats.ReductionIndex,
	)

	candidates := zr.Take()
	index := stats.ReductionIndex

	var (
		found  atomic.Bool
		result bkcrack.Keys
		mu     sync.Mutex
	)

	p := pool.New().WithMaxGoroutines(runtime.GOMAXPROCS(0))
	total := len(candidates)

	for i, candidate := range candidates {
		i, candidate := i, candidate

		if !exhaustive && (found.Load() || ctx.Err() != nil) {
			break
		}

		p.Go(func() {
			if !exhaustive && (found.Load() || ctx.Err() != nil) {
				return
			}

			attack := bkcrack.NewAttack(d.Keystream, d.Plaintext, index)
			if attack.CarryOut(candidate) {
				if found.CompareAndSwap(false, true) {
					mu.Lock()
					result = rewindToStreamStart(attack.GetKeys(), d.HeaderAndGap)
					mu.Unlock()
				}
			}

			attackProgress(i+1, total)
		})
	}
	p.Wait()

	fmt.Println()

	if !found.Load() {
		return bkcrack.Keys{}, stats, bkcrack.ErrKeysNotFound
	}
	return result, stats, nil
}

// rewindToStreamStart steps keys backward from Data's Keystream index 0
// across headerAndGap, the ciphertext bytes that precede it, recovering
// the state at the very start of the encrypted stream. Attack reports
// keys relative to the known-plaintext window, which sits after the
// 12-byte encryption header and, when offset is positive, after a run of
// payload bytes with no known plaintext; Decipher's header-discard step
// assumes it's handed keys valid at stream position zero, so the two
// have to be reconciled here rather than inside Attack itself.
func rewindToStreamStart(keys bkcrack.Keys, headerAndGap []byte) bkcrack.Keys {
	state := keys
	for i := len(headerAndGap) - 1; i >= 0; i-- {
		state.UpdateBackwardCiphertext(headerAndGap[i])
	}
	return state
}

func reductionProgress(done, total int) {
	if total <= 0 {
		return
	}
	slog.Debug("z reduction progress", "done", done, "total", total)
	printProgress(done, total)
}

func attackProgress(done, total int) {
	if total <= 0 {
		return
	}
	slog.Debug("attack progress", "done", done, "total", total)
	printProgress(done, total)
}

// printProgress renders the single-line carriage-return progress
// indicator described by spec.md's external interfaces section. It is
// not machine-parseable and intentionally not routed through slog.
func printProgress(done, total int) {
	pct := 100 * float64(done) / float64(total)
	fmt.Printf("\r%6.2f %% (%d / %d)", pct, done, total)
}

// Decipher consumes and discards the 12-byte ZipCrypto encryption
// header from cipher (feeding it through the cipher to advance state),
// then writes every subsequent byte XORed with the keystream byte
// derived from keys to out. When unzip is true, the deciphered stream
// is additionally piped through raw DEFLATE decompression before being
// written out.
func Decipher(keys bkcrack.Keys, cipher io.Reader, out io.Writer, unzip bool) error {
	state := keys

	var header [bkcrack.HeaderSize]byte
	if _, err := io.ReadFull(cipher, header[:]); err != nil {
		return fmt.Errorf("reading encryption header: %w", err)
	}
	for _, b := range header {
		p := b ^ state.KeystreamByte()
		state.Update(p)
	}

	plain := &decipherReader{state: state, src: cipher}

	var src io.Reader = plain
	if unzip {
		rc := ziparchive.InflateRaw(plain)
		defer rc.Close()
		src = rc
	}

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("writing deciphered output: %w", err)
	}
	return nil
}

// decipherReader XORs a ZipCrypto keystream over a ciphertext reader,
// one byte at a time, advancing keys as plaintext bytes are recovered.
type decipherReader struct {
	state bkcrack.Keys
	src   io.Reader
	buf   [4096]byte
}

func (d *decipherReader) Read(p []byte) (int, error) {
	n, err := d.src.Read(d.buf[:min(len(p), len(d.buf))])
	for i := 0; i < n; i++ {
		plain := d.buf[i] ^ d.state.KeystreamByte()
		d.state.Update(plain)
		p[i] = plain
	}
	return n, err
}
