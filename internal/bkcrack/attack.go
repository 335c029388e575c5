package bkcrack

// maxYBranch bounds how many candidates the Y register reconstruction
// keeps alive at each level, matching the small branching factor the
// algorithm exhibits once a surviving Z candidate is fed into it.
const maxYBranch = 4

// Attack reconstructs a full (X, Y, Z) key triple from a single Zi[2,32)
// candidate produced by Zreduction, verifying the result against the
// full length of available keystream before accepting it.
//
// The reconstruction proceeds in three stages. First, the Z register is
// expanded backwards across a 12-byte window the same way Zreduction
// narrows it, except every surviving branch is kept rather than merged
// into a single vector. Second, each branch's chain of Z values exposes
// the top byte of Y at every step via the CRC-32 table's injectivity;
// MultTab's product fibers turn those top bytes into full 32-bit Y
// candidates, a handful at a time. Third, once Y is known across the
// window, the X register's own CRC-32 chain — whose absorbed byte is
// always the known plaintext, never ambiguous — is solved directly by a
// byte-at-a-time elimination that pins down a full X value at the
// window's middle index without any branching at all.
type Attack struct {
	keystream []byte
	plaintext []byte
	index     int

	keys  Keys
	found bool
}

// NewAttack prepares an attack anchored at index, an index into
// keystream and plaintext (which must be the same length and mutually
// aligned the way Data produces them). index must satisfy
// AttackSize-1 <= index < len(keystream).
func NewAttack(keystream, plaintext []byte, index int) *Attack {
	return &Attack{keystream: keystream, plaintext: plaintext, index: index}
}

// CarryOut attempts to reconstruct a key triple from the Zi[2,32)
// candidate zi232, which must be one of the values Zreduction produced
// at this Attack's index. It reports whether the candidate led to keys
// that reproduce every observed keystream byte exactly; on success,
// GetKeys returns the result.
func (a *Attack) CarryOut(zi232 uint32) bool {
	for _, z := range a.expandZChain(zi232 &^ 0x7) {
		yMsb, ok := recoverYTopBytes(z)
		if !ok {
			continue
		}

		for _, y := range a.recoverYChains(yMsb) {
			xlo := recoverXLowBytes(y)
			x7, ok := a.reconstructX7(xlo)
			if !ok {
				continue
			}

			pivot := a.index - 11 + 7
			keys := Keys{X: x7, Y: y[7], Z: z[7]}
			if a.verifyForward(keys, pivot) && a.verifyBackward(keys, pivot) {
				a.keys = a.rewindToStart(keys, pivot)
				a.found = true
				return true
			}
		}
	}
	return false
}

// GetKeys returns the reconstructed key triple, stepped back to index 0
// of the keystream/plaintext pair this Attack was built from. Only
// meaningful after CarryOut has returned true.
func (a *Attack) GetKeys() Keys {
	return a.keys
}

// expandZChain reconstructs every length-12 sequence of Z values,
// indexed 0..11 with index 11 fixed to zTop, consistent with the
// keystream in the window ending at a.index. It mirrors Zreduction's
// per-step filter but keeps every surviving branch instead of merging
// them into one vector, since the attack needs the full chain rather
// than just the set of final candidates.
func (a *Attack) expandZChain(zTop uint32) [][12]uint32 {
	var chains [][12]uint32
	var state [12]uint32
	state[11] = zTop

	var recurse func(j int)
	recurse = func(j int) {
		if j == 0 {
			chains = append(chains, state)
			return
		}

		zHigh := Zim1High10(state[j]) & 0xfffffc00
		k := a.keystream[a.index-11+j-1]
		for _, frag := range Zi216Vector(k, zHigh) {
			state[j-1] = zHigh | frag
			recurse(j - 1)
		}
	}
	recurse(11)

	return chains
}

// recoverYTopBytes derives byte(Y[j] >> 24) for j in [1,11] from a fully
// known Z chain: Z[j] = Crc32Step(Z[j-1], byte(Y[j]>>24)), and the CRC-32
// table's injectivity lets RecoverAbsorbedByte invert that exactly. It
// reports false if any pair of consecutive Z values is inconsistent,
// which means this Z chain cannot be the real one.
func recoverYTopBytes(z [12]uint32) ([12]byte, bool) {
	var yMsb [12]byte
	for j := 1; j <= 11; j++ {
		b, ok := RecoverAbsorbedByte(z[j-1], z[j])
		if !ok {
			return yMsb, false
		}
		yMsb[j] = b
	}
	return yMsb, true
}

// recoverYChains reconstructs full 32-bit Y values at window indices
// 3..11 from their top bytes. Y[11] is seeded from MultTab's product
// fiber for yMsb[11]; MsbProdFiber keys its fiber on the top byte of the
// pre-increment product v*multiplier, not of y[11]=v*multiplier+1 itself,
// so a carry out of the low 24 bits on the +1 can shift that top byte by
// one. Both the fiber for yMsb[11] and the one for yMsb[11]-1 are
// scanned, and each seed is checked against the true post-increment top
// byte before use, so the carry case is not lost. Each fiber is scanned
// in full since the fraction of entries whose own top byte matches
// yMsb[10] is small (about 1 in 256) and an early cutoff risks discarding
// the one true seed. From there, each lower index is filled in by
// guessing the one unknown byte (byte(X[j]), the low byte Y's update
// formula adds in) and keeping only the guesses whose resulting top byte
// matches yMsb; that inner search is capped at maxYBranch per level,
// which is safe to cut off early because the same 1-in-256 match rate
// means a handful of matches is already everything worth keeping.
func (a *Attack) recoverYChains(yMsb [12]byte) [][12]uint32 {
	var results [][12]uint32

	for _, msbGuess := range [2]byte{yMsb[11], yMsb[11] - 1} {
		for _, v := range MsbProdFiber(msbGuess) {
			y11 := v*multiplier + 1
			if byte(y11>>24) != yMsb[11] {
				continue
			}

			for lsb11 := 0; lsb11 < 256; lsb11++ {
				y10 := v - uint32(lsb11)
				if byte(y10>>24) != yMsb[10] {
					continue
				}

				var y [12]uint32
				y[11] = y11
				y[10] = y10
				results = extendYChain(y, yMsb, 10, results)
			}
		}
	}

	return results
}

// extendYChain derives y[j-1] from the already-known y[j] by guessing
// byte(X[j]) and keeping only guesses whose resulting top byte matches
// yMsb[j-1], recursing until y[3] is filled in.
func extendYChain(y [12]uint32, yMsb [12]byte, j int, acc [][12]uint32) [][12]uint32 {
	if j == 3 {
		return append(acc, y)
	}

	pre := MultInv(y[j] - 1)
	matches := 0
	for lsb := 0; lsb < 256 && matches < maxYBranch; lsb++ {
		yPrev := pre - uint32(lsb)
		if byte(yPrev>>24) != yMsb[j-1] {
			continue
		}

		next := y
		next[j-1] = yPrev
		acc = extendYChain(next, yMsb, j-1, acc)
		matches++
	}

	return acc
}

// recoverXLowBytes derives byte(X[j]) for j in [4,11] from a fully known
// Y chain, using Y[j] = (Y[j-1] + byte(X[j])) * multiplier + 1.
func recoverXLowBytes(y [12]uint32) [12]byte {
	var xlo [12]byte
	for j := 4; j <= 11; j++ {
		pre := MultInv(y[j] - 1)
		xlo[j] = byte(pre - y[j-1])
	}
	return xlo
}

// reconstructX7 recovers the full 32-bit X register at window index 7
// from the low bytes of X at indices 4..11 and the known plaintext bytes
// at indices 4..10. Unlike Y's update, X's CRC-32 step always absorbs a
// known byte (the plaintext itself), so each byte of X[j+1] can be
// pinned down in terms of X[j] one table lookup at a time: the top byte
// of X[j+1] depends only on byte(X[j]) and the plaintext byte, the next
// byte down additionally needs the top byte of X[j], and so on. Index 7
// is the first window position for which all four bytes are available
// this way; indices 8..11 then serve as a consistency check, and a
// mismatch there means this Y chain was not the true one.
func (a *Attack) reconstructX7(xlo [12]byte) (uint32, bool) {
	ensureCrc32Tab()

	p := func(j int) byte { return a.plaintext[a.index-11+j] }

	var topByte, mid2, mid1 [12]byte

	for j := 4; j <= 10; j++ {
		t := crc32Forward[xlo[j]^p(j)]
		topByte[j+1] = byte(t >> 24)
	}
	for j := 5; j <= 10; j++ {
		t := crc32Forward[xlo[j]^p(j)]
		mid2[j+1] = byte(t>>16) ^ topByte[j]
	}
	for j := 6; j <= 10; j++ {
		t := crc32Forward[xlo[j]^p(j)]
		mid1[j+1] = byte(t>>8) ^ mid2[j]
	}
	for j := 7; j <= 10; j++ {
		t := crc32Forward[xlo[j]^p(j)]
		if byte(t)^mid1[j] != xlo[j+1] {
			return 0, false
		}
	}

	x7 := uint32(topByte[7])<<24 | uint32(mid2[7])<<16 | uint32(mid1[7])<<8 | uint32(xlo[7])
	return x7, true
}

// verifyForward replays keys forward from absolute index start through
// the rest of the available keystream, checking that the keystream byte
// the state would emit matches the observed one at every position.
func (a *Attack) verifyForward(keys Keys, start int) bool {
	state := keys
	for m := start; m < len(a.keystream); m++ {
		if state.KeystreamByte() != a.keystream[m] {
			return false
		}
		state.Update(a.plaintext[m])
	}
	return true
}

// verifyBackward replays keys backward from absolute index start down to
// the beginning of the keystream, with the same check as verifyForward.
func (a *Attack) verifyBackward(keys Keys, start int) bool {
	state := keys
	for m := start - 1; m >= 0; m-- {
		state.UpdateBackward(a.plaintext[m])
		if state.KeystreamByte() != a.keystream[m] {
			return false
		}
	}
	return true
}

// rewindToStart steps keys backward from absolute index start to index
// 0, the reference point GetKeys reports results relative to.
func (a *Attack) rewindToStart(keys Keys, start int) Keys {
	state := keys
	for m := start - 1; m >= 0; m-- {
		state.UpdateBackward(a.plaintext[m])
	}
	return state
}
