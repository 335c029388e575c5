package bkcrack_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
)

func TestNewData(t *testing.T) {
	plaintext := []byte("0123456789abcdef")
	header := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	keystream := bytes.Repeat([]byte{0xaa}, len(plaintext))

	ciphertext := make([]byte, 0, len(header)+len(keystream))
	ciphertext = append(ciphertext, header...)
	for i, p := range plaintext {
		ciphertext = append(ciphertext, p^keystream[i])
	}

	d, err := bkcrack.NewData(plaintext, ciphertext, 0, 0)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	if !bytes.Equal(d.Keystream, keystream) {
		t.Fatalf("Keystream = %x, want %x", d.Keystream, keystream)
	}
	if !bytes.Equal(d.Plaintext, plaintext) {
		t.Fatalf("Plaintext = %x, want %x", d.Plaintext, plaintext)
	}
}

func TestNewDataPlainsizeCap(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x41}, 20)
	ciphertext := append(make([]byte, bkcrack.HeaderSize), plaintext...)

	d, err := bkcrack.NewData(plaintext, ciphertext, 0, 16)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	if len(d.Keystream) != 16 {
		t.Fatalf("len(Keystream) = %d, want 16", len(d.Keystream))
	}
}

func TestNewDataTooShort(t *testing.T) {
	plaintext := []byte("short")
	ciphertext := append(make([]byte, bkcrack.HeaderSize), plaintext...)

	_, err := bkcrack.NewData(plaintext, ciphertext, 0, 0)
	if !errors.Is(err, bkcrack.ErrInputTooShort) {
		t.Fatalf("err = %v, want ErrInputTooShort", err)
	}
}

func TestNewDataNegativeOffset(t *testing.T) {
	// offset=-15 drives cipherStart negative (offset+HeaderSize=-3), so
	// the first 3 bytes of plaintext fall before the start of the
	// ciphertext slice and must be skipped.
	plaintext := []byte("0123456789abcdef")
	want := []byte{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80, 0x90, 0xa0, 0xb0, 0xc0, 0xd0}

	ciphertext := make([]byte, len(want))
	for i, k := range want {
		ciphertext[i] = plaintext[3+i] ^ k
	}

	d, err := bkcrack.NewData(plaintext, ciphertext, -15, 0)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	if !bytes.Equal(d.Keystream, want) {
		t.Fatalf("Keystream = %x, want %x", d.Keystream, want)
	}
	if !bytes.Equal(d.Plaintext, plaintext[3:]) {
		t.Fatalf("Plaintext = %x, want %x", d.Plaintext, plaintext[3:])
	}
}
