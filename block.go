// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

package cryptor

import (
	"crypto/cipher"
)

// EncryptDataBlock encrypts src into dst as a single-shot transform under
// the given per-call IV (the full-width tweak for XTS, the chaining IV for
// CBC, the initial counter block for CTR).  No cryptor-wide running state
// is consumed or produced; each call stands alone.
//
// dst must be at least as large as src, and may be src for in place
// operation.  src must be a positive multiple of BlockSize except for CTR,
// which tolerates partial blocks.  The output is written in full or not at
// all.
func (c *Cryptor) EncryptDataBlock(dst, src, iv []byte) error {
	return c.dataBlock(dst, src, iv, true)
}

// DecryptDataBlock decrypts src into dst as a single-shot transform under
// the given per-call IV.  See EncryptDataBlock for the buffer contract.
func (c *Cryptor) DecryptDataBlock(dst, src, iv []byte) error {
	return c.dataBlock(dst, src, iv, false)
}

func (c *Cryptor) dataBlock(dst, src, iv []byte, encrypt bool) error {
	if c.phase == phaseReleased {
		return ErrReleased
	}
	if c.mode.isAEAD() {
		return ErrUnimplemented
	}
	if encrypt {
		if err := c.checkEncrypt(); err != nil {
			return err
		}
	} else {
		if err := c.checkDecrypt(); err != nil {
			return err
		}
	}
	if len(iv) != BlockSize {
		return ErrParam
	}
	if len(src) == 0 || len(dst) < len(src) {
		return ErrParam
	}
	if c.mode != ModeCTR && len(src)%BlockSize != 0 {
		return ErrParam
	}
	dst = dst[:len(src)]

	switch c.mode {
	case ModeXTS:
		if encrypt {
			c.tweaker.EncryptBlocks(dst, src, iv)
		} else {
			c.tweaker.DecryptBlocks(dst, src, iv)
		}
	case ModeCBC:
		if encrypt {
			cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(dst, src)
		} else {
			cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(dst, src)
		}
	case ModeCTR:
		cipher.NewCTR(c.block, iv).XORKeyStream(dst, src)
	}

	c.phase = phaseProcessing
	return nil
}
