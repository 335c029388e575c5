package bkcrack_test

import (
	"testing"

	"github.com/ossyrian/bkcrack/internal/bkcrack"
)

func TestKeysUpdateRoundTrip(t *testing.T) {
	keys := bkcrack.NewKeys()
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	var history []bkcrack.Keys
	state := keys
	for _, p := range plaintext {
		history = append(history, state)
		state.Update(p)
	}

	for i := len(plaintext) - 1; i >= 0; i-- {
		state.UpdateBackward(plaintext[i])
		if state != history[i] {
			t.Fatalf("after stepping back past byte %d: got %+v, want %+v", i, state, history[i])
		}
	}
}

func TestKeysSetKeys(t *testing.T) {
	var k bkcrack.Keys
	k.SetKeys(1, 2, 3)
	if k.X != 1 || k.Y != 2 || k.Z != 3 {
		t.Fatalf("SetKeys did not set fields: %+v", k)
	}
}

func TestKeystreamByteMatchesZ(t *testing.T) {
	keys := bkcrack.NewKeys()
	if keys.KeystreamByte() != bkcrack.KeystreamByte(keys.Z) {
		t.Fatal("Keys.KeystreamByte disagrees with the package-level KeystreamByte")
	}
}
