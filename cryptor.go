// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package cryptor implements a symmetric cryptor supporting tweaked block
// modes (XTS, CBC, CTR with an explicit per-call IV) and incremental
// authenticated modes (GCM, CCM) driven through a parameter protocol.
//
// A Cryptor is a sequential object.  Parameters are supplied first, data is
// processed next, and authenticated modes finish with a finalize call that
// produces or verifies the tag.  Out of order calls are rejected rather
// than silently tolerated.
//
// A Cryptor is not safe for concurrent use.  Callers must serialize access
// to a given instance, or use an instance per stream.
package cryptor

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"gitlab.com/yawning/cryptor.git/internal/api"
	"gitlab.com/yawning/cryptor.git/internal/ccm"
	"gitlab.com/yawning/cryptor.git/internal/gcm"
	"gitlab.com/yawning/cryptor.git/internal/xts"
)

const (
	// BlockSize is the cipher block size in bytes, common to all modes.
	BlockSize = api.BlockSize

	// TagSize is the maximum authentication tag size in bytes.
	TagSize = api.TagSize

	// The GCM counter is 32 bits, minus the two blocks reserved for the
	// tag mask and the initial increment.
	maxGCMData = ((1 << 32) - 2) * api.BlockSize

	maxAADLen = (1 << 61) - 1
)

var (
	// ErrKeySize is the error returned when the key size is invalid for
	// the mode.
	ErrKeySize = errors.New("cryptor: invalid key size")

	// ErrParam is the error returned when an argument violates the call
	// contract (bad lengths, bad values, operation invalid for the
	// direction).
	ErrParam = errors.New("cryptor: invalid parameter")

	// ErrUnimplemented is the error returned when the operation or
	// parameter is not supported by the active mode.
	ErrUnimplemented = errors.New("cryptor: not supported by mode")

	// ErrBufferTooSmall is the error returned when the caller's buffer
	// cannot hold the requested output.  The required size is reported
	// alongside and the buffer is left untouched.
	ErrBufferTooSmall = errors.New("cryptor: buffer too small")

	// ErrCallSequence is the error returned when an operation is issued
	// in an order the mode does not allow.
	ErrCallSequence = errors.New("cryptor: call out of sequence")

	// ErrAuthentication is the error returned when the message
	// authentication tag does not verify.
	ErrAuthentication = errors.New("cryptor: message authentication failure")

	// ErrDecode is the error returned when the processed data does not
	// match its declared shape.
	ErrDecode = errors.New("cryptor: data does not match declared size")

	// ErrOversized is the error returned when the data or additional data
	// exceeds the mode's limit.
	ErrOversized = errors.New("cryptor: data is over limit")

	// ErrReleased is the error returned when the cryptor has been
	// released.
	ErrReleased = errors.New("cryptor: released")
)

// Mode selects the mode of operation.
type Mode int

const (
	// ModeCBC is cipher block chaining with an explicit per-call IV.
	ModeCBC Mode = iota

	// ModeCTR is counter mode with an explicit per-call initial counter
	// block.  The transform is its own inverse, so the Both direction is
	// permitted.
	ModeCTR

	// ModeXTS is XTS-AES with a full-width per-call tweak.
	ModeXTS

	// ModeGCM is Galois/Counter mode.
	ModeGCM

	// ModeCCM is counter with CBC-MAC mode.
	ModeCCM
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCBC:
		return "CBC"
	case ModeCTR:
		return "CTR"
	case ModeXTS:
		return "XTS"
	case ModeGCM:
		return "GCM"
	case ModeCCM:
		return "CCM"
	default:
		return "[unknown mode]"
	}
}

func (m Mode) isAEAD() bool {
	return m == ModeGCM || m == ModeCCM
}

// Direction selects the operation the cryptor performs.
type Direction int

const (
	// Encrypt processes plaintext into ciphertext.
	Encrypt Direction = iota

	// Decrypt processes ciphertext into plaintext.
	Decrypt

	// Both permits either operation, and is only valid for modes where
	// encryption and decryption are the same transform.
	Both
)

// phase is the cryptor call-sequence state.
type phase int

const (
	phaseInitialized phase = iota
	phaseParameters
	phaseProcessing
	phaseFinalized
	phaseReleased
)

// Cryptor is a keyed mode-of-operation instance.
type Cryptor struct {
	mode      Mode
	direction Direction
	phase     phase

	// Accumulated input parameters, absorbed by the engine when
	// processing starts.
	iv          []byte
	aad         []byte
	macSize     int
	dataSize    int
	hasDataSize bool

	dataLen uint64
	tag     []byte

	aead    api.AEAD
	tweaker api.BlockTweaker
	block   cipher.Block
}

// NewWithMode constructs a new keyed cryptor for the given mode and
// direction.
func NewWithMode(mode Mode, direction Direction, key []byte) (*Cryptor, error) {
	switch direction {
	case Encrypt, Decrypt:
	case Both:
		if mode != ModeCTR {
			return nil, ErrParam
		}
	default:
		return nil, ErrParam
	}

	c := &Cryptor{
		mode:      mode,
		direction: direction,
	}

	switch mode {
	case ModeXTS:
		switch len(key) {
		case 32, 48, 64:
		default:
			return nil, ErrKeySize
		}
		tweaker, err := xts.NewCipher(key)
		if err != nil {
			return nil, ErrKeySize
		}
		c.tweaker = tweaker
	case ModeCBC, ModeCTR:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, ErrKeySize
		}
		c.block = block
	case ModeGCM:
		aead, err := gcm.New(key)
		if err != nil {
			return nil, ErrKeySize
		}
		c.aead = aead
	case ModeCCM:
		aead, err := ccm.New(key)
		if err != nil {
			return nil, ErrKeySize
		}
		c.aead = aead
	default:
		return nil, ErrParam
	}

	return c, nil
}

// Mode returns the cryptor's mode.
func (c *Cryptor) Mode() Mode {
	return c.mode
}

// Direction returns the cryptor's direction.
func (c *Cryptor) Direction() Direction {
	return c.direction
}

// Release clears the cryptor of sensitive data to the extent possible and
// marks it unusable.  It is safe to call more than once.
func (c *Cryptor) Release() {
	if c.aead != nil {
		c.aead.Zeroize()
		c.aead = nil
	}
	if c.tweaker != nil {
		c.tweaker.Zeroize()
		c.tweaker = nil
	}
	c.block = nil

	c.clearAccumulators()
	c.phase = phaseReleased
}

func (c *Cryptor) clearAccumulators() {
	for i := range c.iv {
		c.iv[i] = 0
	}
	for i := range c.aad {
		c.aad[i] = 0
	}
	c.iv = nil
	c.aad = nil
	c.macSize = 0
	c.dataSize = 0
	c.hasDataSize = false
	c.dataLen = 0
	c.tag = nil
}

// checkEncrypt returns nil iff the direction permits encryption.
func (c *Cryptor) checkEncrypt() error {
	if c.direction != Encrypt && c.direction != Both {
		return ErrParam
	}
	return nil
}

// checkDecrypt returns nil iff the direction permits decryption.
func (c *Cryptor) checkDecrypt() error {
	if c.direction != Decrypt && c.direction != Both {
		return ErrParam
	}
	return nil
}
