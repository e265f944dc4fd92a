// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

package cryptor

import (
	"gitlab.com/yawning/cryptor.git/internal/ccm"
)

// ParameterKind identifies a cryptor parameter.
type ParameterKind int

const (
	// ParameterIV is the initialization vector (or nonce), an input
	// parameter.  Authenticated modes accept it across multiple calls,
	// the fragments concatenating.
	ParameterIV ParameterKind = iota

	// ParameterAuthData is the additional authenticated data, an input
	// parameter for authenticated modes, accepted across multiple calls.
	ParameterAuthData

	// ParameterMACSize declares the authentication tag size the mode is
	// expected to produce, an input parameter for CCM.
	ParameterMACSize

	// ParameterDataSize declares the amount of message data the mode is
	// expected to process, an input parameter for CCM.
	ParameterDataSize

	// ParameterAuthTag is the authentication tag, an output parameter
	// retrievable after an encrypting finalize.
	ParameterAuthTag
)

// Parameter is a tagged cryptor input parameter.  Values are built with the
// IV, AuthData, MACSize and DataSize constructors.
type Parameter struct {
	kind ParameterKind
	data []byte
	size int
}

// Kind returns the parameter's kind.
func (p Parameter) Kind() ParameterKind {
	return p.kind
}

// IV builds an initialization vector (or nonce) parameter.
func IV(iv []byte) Parameter {
	return Parameter{kind: ParameterIV, data: iv}
}

// AuthData builds an additional authenticated data parameter.
func AuthData(aad []byte) Parameter {
	return Parameter{kind: ParameterAuthData, data: aad}
}

// MACSize builds a MAC size declaration parameter.
func MACSize(n int) Parameter {
	return Parameter{kind: ParameterMACSize, size: n}
}

// DataSize builds a data size declaration parameter.
func DataSize(n int) Parameter {
	return Parameter{kind: ParameterDataSize, size: n}
}

// acceptsInput returns true iff the mode accepts the parameter as input at
// all, irrespective of the cryptor's phase.
func (m Mode) acceptsInput(k ParameterKind) bool {
	switch k {
	case ParameterIV, ParameterAuthData:
		return m.isAEAD()
	case ParameterMACSize, ParameterDataSize:
		return m == ModeCCM
	default:
		// ParameterAuthTag is output only.
		return false
	}
}

// AddParameter supplies an input parameter to the cryptor.  Parameters are
// only accepted before processing starts; IV and AuthData fragments
// accumulate across calls, MACSize and DataSize overwrite.  A rejected
// parameter never mutates cryptor state.
func (c *Cryptor) AddParameter(p Parameter) error {
	if c.phase == phaseReleased {
		return ErrReleased
	}
	if !c.mode.acceptsInput(p.kind) {
		return ErrUnimplemented
	}
	if c.phase >= phaseProcessing {
		return ErrCallSequence
	}

	switch p.kind {
	case ParameterIV:
		if c.mode == ModeCCM && len(c.iv)+len(p.data) > ccm.MaxNonceSize {
			return ErrParam
		}
		c.iv = append(c.iv, p.data...)
	case ParameterAuthData:
		if uint64(len(c.aad))+uint64(len(p.data)) > maxAADLen {
			return ErrOversized
		}
		c.aad = append(c.aad, p.data...)
	case ParameterMACSize:
		if p.size < ccm.MinMACSize || p.size > TagSize || p.size%2 != 0 {
			return ErrParam
		}
		c.macSize = p.size
	case ParameterDataSize:
		if p.size < 0 {
			return ErrParam
		}
		c.dataSize = p.size
		c.hasDataSize = true
	}

	c.phase = phaseParameters
	return nil
}

// GetParameter retrieves an output parameter into dst, returning the number
// of bytes written.  When dst is too small the required size is returned
// along with ErrBufferTooSmall, and dst is left untouched.
//
// The only retrievable parameter is ParameterAuthTag, available on an
// encrypting authenticated cryptor once it has been finalized.
func (c *Cryptor) GetParameter(kind ParameterKind, dst []byte) (int, error) {
	if c.phase == phaseReleased {
		return 0, ErrReleased
	}
	if kind != ParameterAuthTag {
		return 0, ErrUnimplemented
	}
	if !c.mode.isAEAD() || c.direction != Encrypt {
		return 0, ErrUnimplemented
	}
	if c.phase != phaseFinalized || c.tag == nil {
		return 0, ErrUnimplemented
	}

	if len(dst) < len(c.tag) {
		return len(c.tag), ErrBufferTooSmall
	}

	return copy(dst, c.tag), nil
}
