// Copryright (C) 2019 Yawning Angel
//
// This work is licensed under the Creative Commons Attribution-NonCommercial-
// NoDerivatives 4.0 International License. To view a copy of this license,
// visit http://creativecommons.org/licenses/by-nc-nd/4.0/ or send a letter to
// Creative Commons, PO Box 1866, Mountain View, CA 94042, USA.

// Package ccm provides an incremental CCM-AES engine per RFC 3610.
//
// CCM requires the total message length and MAC size before the first byte
// is processed, since both are bound into the B_0 block.  The additional
// data is buffered until processing starts because its length prefix also
// precedes it in the MAC stream.
package ccm

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"math"

	"gitlab.com/yawning/cryptor.git/internal/api"
)

const (
	// MinNonceSize is the smallest valid CCM nonce size in bytes.
	MinNonceSize = 7

	// MaxNonceSize is the largest valid CCM nonce size in bytes.
	MaxNonceSize = 13

	// MinMACSize is the smallest valid CCM MAC size in bytes.  MAC sizes
	// must be even.
	MinMACSize = 4
)

// Engine is a keyed incremental CCM-AES instance.  It implements api.AEAD.
type Engine struct {
	block cipher.Block

	nonce    [MaxNonceSize]byte
	nonceLen int
	l        int // counter length octets, 15 - nonceLen
	macSize  int
	dataSize uint64

	aad     []byte
	started bool

	cbcX   [api.BlockSize]byte
	buf    [api.BlockSize]byte
	bufLen int

	ctrTemplate [api.BlockSize]byte
	s0          [api.BlockSize]byte
	blockIdx    uint64

	ks    [api.BlockSize]byte
	ksOff int
}

// New constructs a new keyed CCM-AES engine.  The key must be a valid AES
// key (16, 24 or 32 bytes).
func New(key []byte) (*Engine, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &Engine{block: block}, nil
}

func (e *Engine) Init(iv []byte, macSize, dataSize int) {
	e.Reset()

	e.nonceLen = copy(e.nonce[:], iv)
	e.l = 15 - e.nonceLen
	e.macSize = macSize
	e.dataSize = uint64(dataSize)

	// Counter block template: flags, nonce, zeroed counter octets.
	e.ctrTemplate[0] = byte(e.l - 1)
	copy(e.ctrTemplate[1:], iv)

	// S_0 masks the CBC-MAC result into the tag.  Message data is keyed
	// against S_1 onward.
	var a0 [api.BlockSize]byte
	e.counterBlock(0, &a0)
	e.block.Encrypt(e.s0[:], a0[:])
	e.blockIdx = 1
}

func (e *Engine) Absorb(aad []byte) {
	e.aad = append(e.aad, aad...)
}

func (e *Engine) Crypt(dst, src []byte, seal bool) {
	e.start()

	for len(src) > 0 {
		if e.ksOff == api.BlockSize {
			var a [api.BlockSize]byte
			e.counterBlock(e.blockIdx, &a)
			e.blockIdx++
			e.block.Encrypt(e.ks[:], a[:])
			e.ksOff = 0
		}

		n := api.BlockSize - e.ksOff
		if n > len(src) {
			n = len(src)
		}

		// The MAC is always over the plaintext, which for in place
		// decryption only exists in dst once the keystream is applied.
		if seal {
			e.macBytes(src[:n])
			xorBytes(dst[:n], src[:n], e.ks[e.ksOff:])
		} else {
			xorBytes(dst[:n], src[:n], e.ks[e.ksOff:])
			e.macBytes(dst[:n])
		}

		e.ksOff += n
		dst, src = dst[n:], src[n:]
	}
}

func (e *Engine) Tag(tag *[api.TagSize]byte) {
	e.start()
	e.macPad()

	xorBytes(tag[:], e.cbcX[:], e.s0[:])
}

// Reset clears all per-message state, retaining the key schedule.
func (e *Engine) Reset() {
	for i := range e.nonce {
		e.nonce[i] = 0
	}
	e.nonceLen = 0
	e.l = 0
	e.macSize = 0
	e.dataSize = 0
	for i := range e.aad {
		e.aad[i] = 0
	}
	e.aad = nil
	e.started = false
	for i := 0; i < api.BlockSize; i++ {
		e.cbcX[i] = 0
		e.buf[i] = 0
		e.ctrTemplate[i] = 0
		e.s0[i] = 0
		e.ks[i] = 0
	}
	e.bufLen = 0
	e.blockIdx = 0
	e.ksOff = api.BlockSize
}

// Zeroize clears the engine of sensitive data to the extent possible.  The
// expanded AES key schedule is owned by crypto/aes and can only be dropped.
func (e *Engine) Zeroize() {
	e.Reset()
	e.block = nil
}

// start runs the MAC over B_0 and the encoded additional data.  Deferred to
// the first data or tag operation so that Absorb can be called repeatedly
// after Init.
func (e *Engine) start() {
	if e.started {
		return
	}
	e.started = true

	var b0 [api.BlockSize]byte
	b0[0] = byte(e.l-1) | byte((e.macSize-2)/2)<<3
	if len(e.aad) > 0 {
		b0[0] |= 0x40
	}
	copy(b0[1:], e.nonce[:e.nonceLen])
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], e.dataSize)
	copy(b0[api.BlockSize-e.l:], lenBuf[8-e.l:])
	e.macBlock(b0[:])

	if len(e.aad) > 0 {
		e.macAAD()
	}
}

// macAAD feeds the length-prefixed, zero-padded additional data into the
// CBC-MAC.
func (e *Engine) macAAD() {
	var hdr [10]byte
	var n int

	l := uint64(len(e.aad))
	switch {
	case l < 0xff00:
		binary.BigEndian.PutUint16(hdr[:2], uint16(l))
		n = 2
	case l <= math.MaxUint32:
		hdr[0], hdr[1] = 0xff, 0xfe
		binary.BigEndian.PutUint32(hdr[2:6], uint32(l))
		n = 6
	default:
		hdr[0], hdr[1] = 0xff, 0xff
		binary.BigEndian.PutUint64(hdr[2:10], l)
		n = 10
	}

	e.macBytes(hdr[:n])
	e.macBytes(e.aad)
	e.macPad()
}

// macBytes feeds data into the CBC-MAC, carrying partial blocks.
func (e *Engine) macBytes(data []byte) {
	if e.bufLen > 0 {
		n := copy(e.buf[e.bufLen:], data)
		e.bufLen += n
		data = data[n:]
		if e.bufLen < api.BlockSize {
			return
		}
		e.macBlock(e.buf[:])
		e.bufLen = 0
	}

	for len(data) >= api.BlockSize {
		e.macBlock(data[:api.BlockSize])
		data = data[api.BlockSize:]
	}
	if len(data) > 0 {
		e.bufLen = copy(e.buf[:], data)
	}
}

// macPad zero pads and absorbs any buffered partial MAC block.
func (e *Engine) macPad() {
	if e.bufLen == 0 {
		return
	}
	for i := e.bufLen; i < api.BlockSize; i++ {
		e.buf[i] = 0
	}
	e.macBlock(e.buf[:])
	e.bufLen = 0
}

func (e *Engine) macBlock(b []byte) {
	xorBytes(e.cbcX[:], e.cbcX[:], b)
	e.block.Encrypt(e.cbcX[:], e.cbcX[:])
}

// counterBlock builds A_i.  i is guaranteed to fit in the counter octets by
// the data size validation done by the caller.
func (e *Engine) counterBlock(i uint64, dst *[api.BlockSize]byte) {
	copy(dst[:], e.ctrTemplate[:])
	var ibuf [8]byte
	binary.BigEndian.PutUint64(ibuf[:], i)
	copy(dst[api.BlockSize-e.l:], ibuf[8-e.l:])
}

func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
