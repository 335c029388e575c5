package bkcrack_test

import (
	"testing"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
)

func TestMultInvInvertsMultiplier(t *testing.T) {
	for _, y := range []uint32{0, 1, 0x23456789, 0xffffffff, 0x08088405} {
		product := y * 0x08088405
		if got := bkcrack.MultInv(product); got != y {
			t.Fatalf("MultInv(%#x * multiplier) = %#x, want %#x", y, got, y)
		}
	}
}

func TestMsbProdFiberMembersMatchMsb(t *testing.T) {
	const msb = 0x7a
	fiber := bkcrack.MsbProdFiber(msb)
	if len(fiber) == 0 {
		t.Fatal("MsbProdFiber returned no candidates")
	}
	for i, v := range fiber {
		if got := byte((v * 0x08088405) >> 24); got != msb {
			t.Fatalf("fiber[%d]=%#x: (v*multiplier)>>24 = %#x, want %#x", i, v, got, msb)
		}
		if i > 1000 {
			break
		}
	}
}

func TestMsbProdFiberIsCached(t *testing.T) {
	a := bkcrack.MsbProdFiber(0x01)
	b := bkcrack.MsbProdFiber(0x01)
	if len(a) != len(b) {
		t.Fatalf("fiber length changed across calls: %d vs %d", len(a), len(b))
	}
}
