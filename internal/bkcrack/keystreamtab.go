package bkcrack

import "sync"

// keystreamFragments maps each possible keystream byte to the 64 values of
// Zi[2,16) (bits 2..15 of Z, stored as a 16-bit word with bits 0,1 forced
// to zero) that produce it. There are 2^14 distinct Zi[2,16) fragments and
// 256 possible bytes, so each byte's fiber has exactly 64 members.
var (
	keystreamTabOnce sync.Once
	keystreamByByte  [256][]uint32
)

func initKeystreamTab() {
	for frag := uint32(0); frag < (1 << 14); frag++ {
		z16 := frag << 2
		k := keystreamByteFromZ16(z16)
		keystreamByByte[k] = append(keystreamByByte[k], z16)
	}
}

func ensureKeystreamTab() {
	keystreamTabOnce.Do(initKeystreamTab)
}

// keystreamByteFromZ16 computes the keystream byte produced by a Z
// register whose low 16 bits are z16, per the cipher's keystream formula.
func keystreamByteFromZ16(z16 uint32) byte {
	tmp := (z16 & 0xffff) | 3
	return byte((tmp * (tmp | 1)) >> 8)
}

// KeystreamByte returns the keystream byte produced by Z. Only the low 16
// bits of Z affect the result.
func KeystreamByte(z uint32) byte {
	return keystreamByteFromZ16(z)
}

// HasZi216 reports whether any Zi[2,16) fragment whose bits [10,16) match
// zHigh produces keystream byte k. zHigh is the (possibly only partially
// reliable) high-bits value returned by Zim1High10; only bits [10,16) of
// it are consulted, since bits [8,10) are not guaranteed correct at this
// stage.
func HasZi216(k byte, zHigh uint32) bool {
	ensureKeystreamTab()
	mask := zHigh & 0xfc00
	for _, frag := range keystreamByByte[k] {
		if frag&0xfc00 == mask {
			return true
		}
	}
	return false
}

// Zi216Vector returns every Zi[2,16) fragment whose bits [10,16) match
// zHigh and that produces keystream byte k.
func Zi216Vector(k byte, zHigh uint32) []uint32 {
	ensureKeystreamTab()
	mask := zHigh & 0xfc00
	var out []uint32
	for _, frag := range keystreamByByte[k] {
		if frag&0xfc00 == mask {
			out = append(out, frag)
		}
	}
	return out
}

// Zi216Array returns all 64 Zi[2,16) fragments that produce keystream
// byte k.
func Zi216Array(k byte) []uint32 {
	ensureKeystreamTab()
	return keystreamByByte[k]
}
