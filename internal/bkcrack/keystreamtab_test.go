package bkcrack_test

import (
	"testing"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
)

func TestZi216ArrayAllProduceTheByte(t *testing.T) {
	for k := 0; k < 256; k++ {
		frags := bkcrack.Zi216Array(byte(k))
		if len(frags) != 64 {
			t.Fatalf("byte %#x: got %d fragments, want 64", k, len(frags))
		}
		for _, z16 := range frags {
			if got := bkcrack.KeystreamByte(z16); got != byte(k) {
				t.Fatalf("byte %#x: fragment %#x produces keystream byte %#x", k, z16, got)
			}
		}
	}
}

func TestZi216VectorSubsetOfArray(t *testing.T) {
	const k = 0x42
	full := bkcrack.Zi216Array(k)
	zHigh := full[0] & 0xfc00

	vec := bkcrack.Zi216Vector(k, zHigh)
	if len(vec) == 0 {
		t.Fatal("Zi216Vector found no matches for a fragment drawn from the full array")
	}
	for _, frag := range vec {
		if frag&0xfc00 != zHigh {
			t.Fatalf("fragment %#x does not match requested high bits %#x", frag, zHigh)
		}
		if bkcrack.KeystreamByte(frag) != k {
			t.Fatalf("fragment %#x does not produce byte %#x", frag, k)
		}
	}
}

func TestHasZi216AgreesWithVector(t *testing.T) {
	const k = 0x99
	zHigh := bkcrack.Zi216Array(k)[3] & 0xfc00

	has := bkcrack.HasZi216(k, zHigh)
	vec := bkcrack.Zi216Vector(k, zHigh)
	if has != (len(vec) > 0) {
		t.Fatalf("HasZi216 = %v but Zi216Vector returned %d matches", has, len(vec))
	}
}
