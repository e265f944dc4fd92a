// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

package cryptor

import (
	"crypto/subtle"

	"gitlab.com/yawning/cryptor.git/internal/ccm"
)

// MinGCMTagSize is the smallest tag size GCMFinalize accepts in GCM mode.
const MinGCMTagSize = 12

// GCMAddIV supplies an IV (nonce) fragment.  Shorthand for AddParameter
// with an IV parameter.  The entry point keeps its historical name, but
// applies to any authenticated mode.
func (c *Cryptor) GCMAddIV(iv []byte) error {
	return c.AddParameter(IV(iv))
}

// GCMAddAAD supplies an additional authenticated data fragment.  Shorthand
// for AddParameter with an AuthData parameter.
func (c *Cryptor) GCMAddAAD(aad []byte) error {
	return c.AddParameter(AuthData(aad))
}

// GCMEncrypt encrypts the next src bytes of the message into dst.  dst
// must be at least as large as src, and may be src for in place operation.
// Lengths are arbitrary; partial blocks carry across calls.
//
// The first data call moves the cryptor into the processing phase, after
// which no further parameters are accepted.
func (c *Cryptor) GCMEncrypt(dst, src []byte) error {
	return c.aeadCrypt(dst, src, true)
}

// GCMDecrypt decrypts the next src bytes of the message into dst.  See
// GCMEncrypt for the buffer contract.
//
// The plaintext produced is unauthenticated until GCMFinalize succeeds.
func (c *Cryptor) GCMDecrypt(dst, src []byte) error {
	return c.aeadCrypt(dst, src, false)
}

func (c *Cryptor) aeadCrypt(dst, src []byte, seal bool) error {
	if c.phase == phaseReleased {
		return ErrReleased
	}
	if !c.mode.isAEAD() {
		return ErrUnimplemented
	}
	if seal {
		if err := c.checkEncrypt(); err != nil {
			return err
		}
	} else {
		if err := c.checkDecrypt(); err != nil {
			return err
		}
	}
	if c.phase == phaseFinalized {
		return ErrCallSequence
	}
	if len(dst) < len(src) {
		return ErrParam
	}

	// The size bounds only depend on accumulated state, so they are
	// enforced before anything is mutated.  A rejected call must leave
	// the cryptor exactly as it found it.
	switch c.mode {
	case ModeGCM:
		if c.dataLen+uint64(len(src)) > maxGCMData {
			return ErrOversized
		}
	case ModeCCM:
		if c.hasDataSize && c.dataLen+uint64(len(src)) > uint64(c.dataSize) {
			return ErrParam
		}
	}

	if c.phase != phaseProcessing {
		if err := c.startProcessing(); err != nil {
			return err
		}
	}

	c.aead.Crypt(dst[:len(src)], src, seal)
	c.dataLen += uint64(len(src))
	return nil
}

// startProcessing validates the accumulated parameters and transitions the
// cryptor into the processing phase.
func (c *Cryptor) startProcessing() error {
	switch c.mode {
	case ModeGCM:
		if len(c.iv) == 0 {
			return ErrCallSequence
		}
	case ModeCCM:
		if len(c.iv) == 0 || !c.hasDataSize {
			return ErrCallSequence
		}
		if len(c.iv) < ccm.MinNonceSize || len(c.iv) > ccm.MaxNonceSize {
			return ErrParam
		}
		if c.macSize == 0 {
			c.macSize = TagSize
		}
		// The counter must be able to index the declared message.
		if l := uint(15 - len(c.iv)); l < 8 && uint64(c.dataSize) >= 1<<(8*l) {
			return ErrParam
		}
	}

	c.aead.Init(c.iv, c.macSize, c.dataSize)
	if len(c.aad) > 0 {
		c.aead.Absorb(c.aad)
	}
	c.phase = phaseProcessing
	return nil
}

// GCMFinalize completes the authenticated message.
//
// On an encrypting cryptor the authentication tag over all supplied
// additional data and processed message data is computed and written into
// tag, whose length selects the tag size (12 to 16 bytes for GCM, exactly
// the declared MAC size for CCM).
//
// On a decrypting cryptor, tag holds the expected tag.  The computed tag
// is compared against it in constant time, tag is left unmodified, and
// ErrAuthentication is returned on mismatch.
//
// Either way the cryptor transitions into the finalized phase, accepting
// no further data until GCMReset.
func (c *Cryptor) GCMFinalize(tag []byte) error {
	if c.phase == phaseReleased {
		return ErrReleased
	}
	if !c.mode.isAEAD() {
		return ErrUnimplemented
	}
	if c.phase == phaseFinalized {
		return ErrCallSequence
	}

	tagLen := len(tag)
	switch c.mode {
	case ModeGCM:
		if tagLen < MinGCMTagSize || tagLen > TagSize {
			return ErrParam
		}
	case ModeCCM:
		effMAC := c.macSize
		if effMAC == 0 {
			effMAC = TagSize
		}
		if tagLen != effMAC {
			return ErrParam
		}
	}

	// Like the data path, shape violations reject before any state moves.
	if c.mode == ModeCCM && c.hasDataSize && c.dataLen != uint64(c.dataSize) {
		return ErrDecode
	}

	if c.phase != phaseProcessing {
		// AAD-only (or empty) messages finalize without a data call.
		if err := c.startProcessing(); err != nil {
			return err
		}
	}

	var full [TagSize]byte
	c.aead.Tag(&full)

	switch c.direction {
	case Encrypt:
		copy(tag, full[:tagLen])
		c.tag = append([]byte(nil), full[:tagLen]...)
		c.phase = phaseFinalized
		return nil
	default:
		c.phase = phaseFinalized
		if subtle.ConstantTimeCompare(tag, full[:tagLen]) != 1 {
			return ErrAuthentication
		}
		return nil
	}
}

// GCMReset returns the cryptor to the state construction left it in,
// clearing the accumulated IV, additional data, size declarations and any
// retained tag while keeping the key schedule.  It is idempotent, and
// valid in any phase.
func (c *Cryptor) GCMReset() error {
	if c.phase == phaseReleased {
		return ErrReleased
	}
	if !c.mode.isAEAD() {
		return ErrUnimplemented
	}

	c.aead.Reset()
	c.clearAccumulators()
	c.phase = phaseInitialized
	return nil
}
