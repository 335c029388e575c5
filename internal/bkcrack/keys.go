package bkcrack

// Keys holds the three 32-bit registers of the PKZIP stream cipher state.
type Keys struct {
	X, Y, Z uint32
}

// NewKeys returns the cipher state at the start of the standard PKZIP
// initial key schedule (the constants used before any password bytes are
// absorbed). Callers that already know the internal keys should use
// SetKeys instead.
func NewKeys() Keys {
	return Keys{X: 0x12345678, Y: 0x23456789, Z: 0x34567890}
}

// SetKeys initializes the state directly, skipping cryptanalysis.
func (k *Keys) SetKeys(x, y, z uint32) {
	k.X, k.Y, k.Z = x, y, z
}

// Update advances the state forward by one plaintext byte p, matching the
// encryptor's state transition.
func (k *Keys) Update(p byte) {
	k.X = Crc32Step(k.X, p)
	k.Y = (k.Y+uint32(byte(k.X)))*0x08088405 + 1
	k.Z = Crc32Step(k.Z, byte(k.Y>>24))
}

// UpdateBackward reverses one step given the plaintext byte p that was
// absorbed going forward. It restores the state to what it was
// immediately before that byte was absorbed.
func (k *Keys) UpdateBackward(p byte) {
	zPrev := Crc32StepInv(k.Z, byte(k.Y>>24))
	yPrev := MultInv(k.Y-1) - uint32(byte(k.X))
	xPrev := Crc32StepInv(k.X, p)

	k.X, k.Y, k.Z = xPrev, yPrev, zPrev
}

// KeystreamByte returns the keystream byte this state would currently
// emit, i.e. the byte XORed with the next plaintext byte.
func (k *Keys) KeystreamByte() byte {
	return KeystreamByte(k.Z)
}

// UpdateBackwardCiphertext reverses one step given only the ciphertext
// byte c emitted at this position, for stream regions whose plaintext
// value isn't known ahead of time (the encryption header, or a gap
// between the start of the ciphertext payload and an offset known-
// plaintext window). The Z register can be inverted without knowing the
// absorbed byte at all, which yields the predecessor's keystream byte and
// so the absorbed plaintext byte (c XOR that keystream byte) before X and
// Y need it.
func (k *Keys) UpdateBackwardCiphertext(c byte) {
	zPrev := Crc32StepInv(k.Z, byte(k.Y>>24))
	p := c ^ KeystreamByte(zPrev)
	yPrev := MultInv(k.Y-1) - uint32(byte(k.X))
	xPrev := Crc32StepInv(k.X, p)

	k.X, k.Y, k.Z = xPrev, yPrev, zPrev
}
