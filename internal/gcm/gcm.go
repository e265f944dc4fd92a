// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package gcm provides an incremental GCM-AES engine.
//
// Unlike the one-shot crypto/cipher AEAD interface, this engine accepts
// additional data and message data across multiple calls, which is what the
// cryptor parameter protocol requires.  The GHASH implementation is the
// portable 4-bit table construction.
package gcm

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"gitlab.com/yawning/cryptor.git/internal/api"
)

// NonceSize is the GCM nonce size in bytes for the fast path.  Other nonce
// lengths are supported via GHASH derivation.
const NonceSize = 12

// fieldElement is an element of GF(2^128), in the bit ordering used by GCM.
type fieldElement struct {
	low, high uint64
}

// gcmReductionTable is stored irreducible polynomial terms for the 4-bit
// shift reduction.
var gcmReductionTable = []uint16{
	0x0000, 0x1c20, 0x3840, 0x2460,
	0x7080, 0x6ca0, 0x48c0, 0x54e0,
	0xe100, 0xfd20, 0xd940, 0xc560,
	0x9180, 0x8da0, 0xa9c0, 0xb5e0,
}

// Engine is a keyed incremental GCM-AES instance.  It implements api.AEAD.
type Engine struct {
	block        cipher.Block
	productTable [16]fieldElement

	y       fieldElement
	counter [api.BlockSize]byte
	tagMask [api.BlockSize]byte

	ks    [api.BlockSize]byte
	ksOff int

	buf    [api.BlockSize]byte
	bufLen int

	aadLen      uint64
	dataLen     uint64
	dataStarted bool
}

// New constructs a new keyed GCM-AES engine.  The key must be a valid AES
// key (16, 24 or 32 bytes).
func New(key []byte) (*Engine, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	e := &Engine{block: block}

	var h [api.BlockSize]byte
	block.Encrypt(h[:], h[:])
	x := fieldElement{
		binary.BigEndian.Uint64(h[:8]),
		binary.BigEndian.Uint64(h[8:]),
	}

	// The product table is indexed by 4 bits of the multiplicand at a time,
	// with the index bit-reversed to match GCM's bit ordering.
	e.productTable[reverseBits(1)] = x
	for i := 2; i < 16; i += 2 {
		e.productTable[reverseBits(i)] = double(&e.productTable[reverseBits(i/2)])
		e.productTable[reverseBits(i+1)] = add(&e.productTable[reverseBits(i)], &x)
	}

	return e, nil
}

func (e *Engine) Init(iv []byte, macSize, dataSize int) {
	e.Reset()

	if len(iv) == NonceSize {
		copy(e.counter[:], iv)
		e.counter[api.BlockSize-1] = 1
	} else {
		var y fieldElement
		e.hash(&y, iv)
		y.high ^= uint64(len(iv)) * 8
		e.mul(&y)
		binary.BigEndian.PutUint64(e.counter[:8], y.low)
		binary.BigEndian.PutUint64(e.counter[8:], y.high)
	}

	e.block.Encrypt(e.tagMask[:], e.counter[:])
	e.ksOff = api.BlockSize
}

func (e *Engine) Absorb(aad []byte) {
	e.aadLen += uint64(len(aad))
	e.update(aad)
}

func (e *Engine) Crypt(dst, src []byte, seal bool) {
	if !e.dataStarted {
		// The additional data is zero padded to a block boundary before
		// the ciphertext enters the hash.
		e.flush()
		e.dataStarted = true
	}

	e.dataLen += uint64(len(src))
	for len(src) > 0 {
		if e.ksOff == api.BlockSize {
			inc32(&e.counter)
			e.block.Encrypt(e.ks[:], e.counter[:])
			e.ksOff = 0
		}

		n := api.BlockSize - e.ksOff
		if n > len(src) {
			n = len(src)
		}

		if seal {
			xorBytes(dst[:n], src[:n], e.ks[e.ksOff:])
			e.update(dst[:n])
		} else {
			// The hash is over the ciphertext, which dst is about to
			// clobber when operating in place.
			e.update(src[:n])
			xorBytes(dst[:n], src[:n], e.ks[e.ksOff:])
		}

		e.ksOff += n
		dst, src = dst[n:], src[n:]
	}
}

func (e *Engine) Tag(tag *[api.TagSize]byte) {
	e.flush()

	y := e.y
	y.low ^= e.aadLen * 8
	y.high ^= e.dataLen * 8
	e.mul(&y)

	binary.BigEndian.PutUint64(tag[:8], y.low)
	binary.BigEndian.PutUint64(tag[8:], y.high)
	xorBytes(tag[:], tag[:], e.tagMask[:])
}

// Reset clears all per-message state, retaining the key schedule.
func (e *Engine) Reset() {
	e.y = fieldElement{}
	for i := range e.counter {
		e.counter[i] = 0
		e.tagMask[i] = 0
		e.ks[i] = 0
		e.buf[i] = 0
	}
	e.ksOff = api.BlockSize
	e.bufLen = 0
	e.aadLen = 0
	e.dataLen = 0
	e.dataStarted = false
}

// Zeroize clears the engine of sensitive data to the extent possible.  The
// expanded AES key schedule is owned by crypto/aes and can only be dropped.
func (e *Engine) Zeroize() {
	e.Reset()
	for i := range e.productTable {
		e.productTable[i] = fieldElement{}
	}
	e.block = nil
}

// update feeds data into the running hash, carrying partial blocks across
// calls.
func (e *Engine) update(data []byte) {
	if e.bufLen > 0 {
		n := copy(e.buf[e.bufLen:], data)
		e.bufLen += n
		data = data[n:]
		if e.bufLen < api.BlockSize {
			return
		}
		e.absorbBlock(e.buf[:])
		e.bufLen = 0
	}

	full := (len(data) >> 4) << 4
	for i := 0; i < full; i += api.BlockSize {
		e.absorbBlock(data[i : i+api.BlockSize])
	}
	if len(data) != full {
		e.bufLen = copy(e.buf[:], data[full:])
	}
}

// flush zero pads and absorbs any buffered partial block.
func (e *Engine) flush() {
	if e.bufLen == 0 {
		return
	}
	var b [api.BlockSize]byte
	copy(b[:], e.buf[:e.bufLen])
	e.absorbBlock(b[:])
	e.bufLen = 0
}

func (e *Engine) absorbBlock(b []byte) {
	e.y.low ^= binary.BigEndian.Uint64(b[:8])
	e.y.high ^= binary.BigEndian.Uint64(b[8:])
	e.mul(&e.y)
}

// hash absorbs data into y as full zero-padded blocks, independent of the
// running message hash.  Used for counter derivation from long IVs.
func (e *Engine) hash(y *fieldElement, data []byte) {
	for len(data) >= api.BlockSize {
		y.low ^= binary.BigEndian.Uint64(data[:8])
		y.high ^= binary.BigEndian.Uint64(data[8:api.BlockSize])
		e.mul(y)
		data = data[api.BlockSize:]
	}
	if len(data) > 0 {
		var b [api.BlockSize]byte
		copy(b[:], data)
		y.low ^= binary.BigEndian.Uint64(b[:8])
		y.high ^= binary.BigEndian.Uint64(b[8:])
		e.mul(y)
	}
}

// mul sets y to y * H, where H is the hash key.
func (e *Engine) mul(y *fieldElement) {
	var z fieldElement

	for i := 0; i < 2; i++ {
		word := y.high
		if i == 1 {
			word = y.low
		}

		// Multiplication works by multiplying z by 16 and adding in one of
		// the precomputed multiples of H.
		for j := 0; j < 64; j += 4 {
			msw := z.high & 0xf
			z.high >>= 4
			z.high |= z.low << 60
			z.low >>= 4
			z.low ^= uint64(gcmReductionTable[msw]) << 48

			t := &e.productTable[word&0xf]
			z.low ^= t.low
			z.high ^= t.high
			word >>= 4
		}
	}

	*y = z
}

func add(x, y *fieldElement) fieldElement {
	// Addition in GF(2^128) is just XOR.
	return fieldElement{x.low ^ y.low, x.high ^ y.high}
}

// double returns x*2, in the field's bit ordering.
func double(x *fieldElement) (y fieldElement) {
	msbSet := x.high&1 == 1

	y.high = x.high >> 1
	y.high |= x.low << 63
	y.low = x.low >> 1

	// If the most-significant bit was set before shifting then it, conceptually,
	// becomes a term of x^128.  This is greater than the irreducible polynomial
	// so the result has to be reduced.
	if msbSet {
		y.low ^= 0xe100000000000000
	}

	return
}

// reverseBits reverses the order of the (4) bits of i.
func reverseBits(i int) int {
	i = ((i << 2) & 0xc) | ((i >> 2) & 0x3)
	i = ((i << 1) & 0xa) | ((i >> 1) & 0x5)
	return i
}

func inc32(counter *[api.BlockSize]byte) {
	n := binary.BigEndian.Uint32(counter[api.BlockSize-4:])
	binary.BigEndian.PutUint32(counter[api.BlockSize-4:], n+1)
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
