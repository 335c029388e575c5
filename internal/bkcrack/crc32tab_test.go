package bkcrack_test

import (
	"testing"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
)

func TestCrc32StepRoundTrip(t *testing.T) {
	seeds := []uint32{0, 1, 0x12345678, 0xffffffff, 0x34567890, 0xdeadbeef}
	for _, z := range seeds {
		for b := 0; b < 256; b++ {
			next := bkcrack.Crc32Step(z, byte(b))
			got := bkcrack.Crc32StepInv(next, byte(b))
			if got != z {
				t.Fatalf("Crc32StepInv(Crc32Step(%#x, %#x), %#x) = %#x, want %#x", z, b, b, got, z)
			}
		}
	}
}

func TestRecoverAbsorbedByte(t *testing.T) {
	z := uint32(0x34567890)
	for b := 0; b < 256; b++ {
		next := bkcrack.Crc32Step(z, byte(b))
		got, ok := bkcrack.RecoverAbsorbedByte(z, next)
		if !ok {
			t.Fatalf("RecoverAbsorbedByte(%#x, %#x) reported no match for absorbed byte %#x", z, next, b)
		}
		if got != byte(b) {
			t.Fatalf("RecoverAbsorbedByte(%#x, %#x) = %#x, want %#x", z, next, got, b)
		}
	}
}

func TestRecoverAbsorbedByteRejectsInconsistentPair(t *testing.T) {
	if _, ok := bkcrack.RecoverAbsorbedByte(0x11111111, 0x22222222); ok {
		t.Fatal("RecoverAbsorbedByte reported a match for an arbitrary, unrelated pair")
	}
}
