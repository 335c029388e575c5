package bkcrack_test

import (
	"slices"
	"testing"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
)

// simulateKeystream replays keys forward over plaintext the way the real
// cipher would, returning the keystream byte emitted before each byte is
// absorbed — exactly what Data.Keystream would contain for a matching
// plaintext/ciphertext pair.
func simulateKeystream(keys bkcrack.Keys, plaintext []byte) []byte {
	state := keys
	out := make([]byte, len(plaintext))
	for i, p := range plaintext {
		out[i] = state.KeystreamByte()
		state.Update(p)
	}
	return out
}

// zAtIndex returns the Z register value immediately before plaintext[n]
// is absorbed.
func zAtIndex(keys bkcrack.Keys, plaintext []byte, n int) uint32 {
	state := keys
	for _, p := range plaintext[:n] {
		state.Update(p)
	}
	return state.Z
}

func TestZreductionFindsTrueCandidate(t *testing.T) {
	keys := bkcrack.Keys{X: 0x12345678, Y: 0x23456789, Z: 0x34567890}
	plaintext := []byte("the quick brown fox jumps over the lazy dog!!")
	keystream := simulateKeystream(keys, plaintext)

	zr := bkcrack.NewZreduction(keystream, nil)
	zr.Generate()
	if zr.Size() == 0 {
		t.Fatal("Generate produced an empty candidate vector")
	}

	zr.Reduce()
	if zr.Size() == 0 {
		t.Fatal("Reduce emptied the candidate vector")
	}

	want := zAtIndex(keys, plaintext, zr.Index()) & 0xfffffffc
	if !slices.Contains(zr.Vector(), want) {
		t.Fatalf("reduced vector of size %d at index %d does not contain the true Zi[2,32) candidate %#x",
			zr.Size(), zr.Index(), want)
	}
}

func TestZreductionTakeReleasesVector(t *testing.T) {
	keys := bkcrack.NewKeys()
	plaintext := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	keystream := simulateKeystream(keys, plaintext)

	zr := bkcrack.NewZreduction(keystream, nil)
	zr.Generate()
	zr.Reduce()

	v := zr.Take()
	if len(v) == 0 {
		t.Fatal("Take returned an empty vector after a successful Reduce")
	}
	if zr.Size() != 0 {
		t.Fatalf("Size() after Take = %d, want 0", zr.Size())
	}
}
