// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package api provides the cryptor engine abstract interfaces.
package api

const (
	// BlockSize is the AES block size in bytes.
	BlockSize = 16

	// TagSize is the maximum authentication tag size in bytes.
	TagSize = 16
)

// AEAD is a keyed incremental authenticated mode engine.  Callers are
// responsible for validating geometry (IV/nonce lengths, MAC sizes, data
// size declarations) before invoking any of the methods.
type AEAD interface {
	// Init begins a new message.  The macSize and dataSize hints are
	// consumed by modes that need them up front, and ignored otherwise.
	Init(iv []byte, macSize, dataSize int)

	// Absorb feeds additional authenticated data into the current message.
	// All calls must happen after Init and before the first Crypt call.
	Absorb(aad []byte)

	// Crypt processes message data incrementally, encrypting when seal is
	// set and decrypting otherwise.  dst and src must be of equal length,
	// and may overlap exactly.
	Crypt(dst, src []byte, seal bool)

	// Tag computes the full-width authentication tag for the current
	// message.  Truncation is the caller's responsibility.
	Tag(tag *[TagSize]byte)

	// Reset clears all per-message state while retaining the key schedule.
	Reset()

	// Zeroize attempts to clear the engine of sensitive data.  The engine
	// is unusable afterwards.
	Zeroize()
}

// BlockTweaker is a keyed single-shot tweaked block transform engine.  The
// data length must be a positive multiple of BlockSize, and the tweak must
// be exactly BlockSize bytes.
type BlockTweaker interface {
	// EncryptBlocks encrypts src into dst under the given tweak.
	EncryptBlocks(dst, src, tweak []byte)

	// DecryptBlocks decrypts src into dst under the given tweak.
	DecryptBlocks(dst, src, tweak []byte)

	// Zeroize attempts to clear the engine of sensitive data.
	Zeroize()
}
