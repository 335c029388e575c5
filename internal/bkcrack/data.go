package bkcrack

import "fmt"

// HeaderSize is the length, in bytes, of the encryption header prepended
// to every ZipCrypto-encrypted entry.
const HeaderSize = 12

// Data prepares the keystream the attack operates on by XORing known
// plaintext against the aligned region of ciphertext.
type Data struct {
	// Keystream is plaintext[i] XOR ciphertext[i+offset+HeaderSize] for
	// each i in the overlap, truncated to the requested size.
	Keystream []byte

	// Plaintext is the known plaintext bytes aligned with Keystream,
	// i.e. Plaintext[i] is the byte consumed by the cipher at stream
	// index i. The attack phase needs the actual plaintext bytes (not
	// just their XOR with ciphertext) to replay the X register's CRC-32
	// chain, whose absorbed byte is always the plaintext byte itself.
	Plaintext []byte

	// HeaderAndGap is the ciphertext bytes from the very start of the
	// encrypted stream up to Keystream's index 0, i.e. the 12-byte
	// encryption header plus, when offset is positive, the unknown
	// payload bytes between the header and the known-plaintext window.
	// When offset is negative it holds only the part of the header that
	// precedes the window, and it is empty once offset is -12 or less.
	// None of these bytes have known plaintext, but a key triple
	// recovered at Keystream index 0 can still be walked back across
	// them one ciphertext byte at a time, recovering the state at the
	// true start of the stream so it lines up with what Decipher expects.
	HeaderAndGap []byte
}

// NewData builds a Data from raw plaintext and ciphertext byte slices.
// offset is the position of plaintext relative to the ciphertext payload,
// excluding the encryption header; it may be negative. plainsize caps the
// number of keystream bytes produced (0 means no cap). At least
// Attack.Size bytes of overlap are required.
func NewData(plaintext, ciphertext []byte, offset int, plainsize int) (*Data, error) {
	cipherStart := offset + HeaderSize

	plainFrom := 0
	if cipherStart < 0 {
		plainFrom = -cipherStart
		cipherStart = 0
	}

	overlap := len(plaintext) - plainFrom
	if max := len(ciphertext) - cipherStart; max < overlap {
		overlap = max
	}
	if plainsize > 0 && overlap > plainsize {
		overlap = plainsize
	}

	if overlap < AttackSize {
		return nil, fmt.Errorf("%w: only %d bytes of known plaintext overlap ciphertext, need at least %d",
			ErrInputTooShort, overlap, AttackSize)
	}

	keystream := make([]byte, overlap)
	for i := 0; i < overlap; i++ {
		keystream[i] = plaintext[plainFrom+i] ^ ciphertext[cipherStart+i]
	}

	known := make([]byte, overlap)
	copy(known, plaintext[plainFrom:plainFrom+overlap])

	gap := make([]byte, cipherStart)
	copy(gap, ciphertext[:cipherStart])

	return &Data{Keystream: keystream, Plaintext: known, HeaderAndGap: gap}, nil
}
