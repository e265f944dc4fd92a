// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package xts provides an XTS-AES engine with a full-width tweak.
//
// This differs from golang.org/x/crypto/xts in that the caller supplies the
// raw 16 byte tweak value rather than a sector number, and in that the data
// unit boundary is every call.  Ciphertext stealing is not implemented, so
// data lengths must be a multiple of the block size.
package xts

import (
	"crypto/aes"
	"crypto/cipher"

	"gitlab.com/yawning/cryptor.git/internal/api"
)

// Cipher is a keyed XTS-AES instance.  It implements api.BlockTweaker.
type Cipher struct {
	k1, k2 cipher.Block
}

// NewCipher constructs a new keyed XTS-AES instance.  The key is split in
// half, the first half keying the data transform and the second half keying
// the tweak transform, and must be 32, 48 or 64 bytes.
func NewCipher(key []byte) (*Cipher, error) {
	half := len(key) / 2

	k1, err := aes.NewCipher(key[:half])
	if err != nil {
		return nil, err
	}
	k2, err := aes.NewCipher(key[half:])
	if err != nil {
		return nil, err
	}

	return &Cipher{k1: k1, k2: k2}, nil
}

func (c *Cipher) EncryptBlocks(dst, src, tweak []byte) {
	var tw, x [api.BlockSize]byte
	c.k2.Encrypt(tw[:], tweak)

	for len(src) > 0 {
		for i := 0; i < api.BlockSize; i++ {
			x[i] = src[i] ^ tw[i]
		}
		c.k1.Encrypt(x[:], x[:])
		for i := 0; i < api.BlockSize; i++ {
			dst[i] = x[i] ^ tw[i]
		}

		mul2(&tw)
		dst, src = dst[api.BlockSize:], src[api.BlockSize:]
	}
}

func (c *Cipher) DecryptBlocks(dst, src, tweak []byte) {
	var tw, x [api.BlockSize]byte
	c.k2.Encrypt(tw[:], tweak)

	for len(src) > 0 {
		for i := 0; i < api.BlockSize; i++ {
			x[i] = src[i] ^ tw[i]
		}
		c.k1.Decrypt(x[:], x[:])
		for i := 0; i < api.BlockSize; i++ {
			dst[i] = x[i] ^ tw[i]
		}

		mul2(&tw)
		dst, src = dst[api.BlockSize:], src[api.BlockSize:]
	}
}

// Zeroize clears the instance of sensitive data to the extent possible.
// The expanded AES key schedules are owned by crypto/aes and can only be
// dropped.
func (c *Cipher) Zeroize() {
	c.k1 = nil
	c.k2 = nil
}

// mul2 multiplies the tweak by 2 in GF(2^128), in the little-endian bit
// ordering used by XTS.
func mul2(tweak *[api.BlockSize]byte) {
	var carryIn byte
	for j := range tweak {
		carryOut := tweak[j] >> 7
		tweak[j] = (tweak[j] << 1) + carryIn
		carryIn = carryOut
	}
	if carryIn != 0 {
		// The tweak polynomial is x^128 + x^7 + x^2 + x + 1.
		tweak[0] ^= 1<<7 | 1<<2 | 1<<1 | 1
	}
}
