// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

package cryptor

import (
	"gitlab.com/yawning/slice.git"
)

// Seal encrypts and authenticates plaintext and additional data under the
// given IV and appends the ciphertext followed by a full-width tag to dst,
// returning the updated slice.
//
// Seal drives the incremental parameter protocol internally and requires a
// cryptor with no message in flight (freshly constructed or reset).  The
// cryptor is reset afterwards, ready for the next message.
func (c *Cryptor) Seal(dst, iv, plaintext, aad []byte) ([]byte, error) {
	if c.phase == phaseReleased {
		return nil, ErrReleased
	}
	if !c.mode.isAEAD() {
		return nil, ErrUnimplemented
	}
	if err := c.checkEncrypt(); err != nil {
		return nil, err
	}
	if c.phase != phaseInitialized {
		return nil, ErrCallSequence
	}

	ret, out := slice.ForAppend(dst, len(plaintext)+TagSize)
	if err := c.sealInner(out, iv, plaintext, aad); err != nil {
		_ = c.GCMReset()
		return nil, err
	}

	_ = c.GCMReset()
	return ret, nil
}

func (c *Cryptor) sealInner(out, iv, plaintext, aad []byte) error {
	if err := c.GCMAddIV(iv); err != nil {
		return err
	}
	if c.mode == ModeCCM {
		if err := c.AddParameter(DataSize(len(plaintext))); err != nil {
			return err
		}
	}
	if len(aad) > 0 {
		if err := c.GCMAddAAD(aad); err != nil {
			return err
		}
	}
	if err := c.GCMEncrypt(out[:len(plaintext)], plaintext); err != nil {
		return err
	}
	return c.GCMFinalize(out[len(plaintext):])
}

// Open decrypts and authenticates ciphertext (which includes the trailing
// full-width tag), authenticates the additional data and, if successful,
// appends the resulting plaintext to dst, returning the updated slice.  On
// authentication failure the plaintext is wiped before returning.
//
// Like Seal, Open requires a cryptor with no message in flight and resets
// it afterwards.
func (c *Cryptor) Open(dst, iv, ciphertext, aad []byte) ([]byte, error) {
	if c.phase == phaseReleased {
		return nil, ErrReleased
	}
	if !c.mode.isAEAD() {
		return nil, ErrUnimplemented
	}
	if err := c.checkDecrypt(); err != nil {
		return nil, err
	}
	if c.phase != phaseInitialized {
		return nil, ErrCallSequence
	}
	if len(ciphertext) < TagSize {
		return nil, ErrAuthentication
	}

	ptLen := len(ciphertext) - TagSize
	ret, out := slice.ForAppend(dst, ptLen)
	if err := c.openInner(out, iv, ciphertext[:ptLen], ciphertext[ptLen:], aad); err != nil {
		for i := range out {
			out[i] = 0
		}
		_ = c.GCMReset()
		return nil, err
	}

	_ = c.GCMReset()
	return ret, nil
}

func (c *Cryptor) openInner(out, iv, ciphertext, tag, aad []byte) error {
	if err := c.GCMAddIV(iv); err != nil {
		return err
	}
	if c.mode == ModeCCM {
		if err := c.AddParameter(DataSize(len(ciphertext))); err != nil {
			return err
		}
	}
	if len(aad) > 0 {
		if err := c.GCMAddAAD(aad); err != nil {
			return err
		}
	}
	if err := c.GCMDecrypt(out, ciphertext); err != nil {
		return err
	}
	return c.GCMFinalize(tag)
}
