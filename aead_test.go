// Copryright (C) 2019 Yawning Angel
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cryptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	for _, mode := range []Mode{ModeGCM, ModeCCM} {
		t.Run("Mode_"+mode.String(), func(t *testing.T) {
			doTestSealOpen(t, mode)
		})
	}
}

func doTestSealOpen(t *testing.T, mode Mode) {
	require := require.New(t)

	key := mustRandom(t, 32)
	nonce := mustRandom(t, 12)
	aad := mustRandom(t, 42)
	pt := mustRandom(t, 73)

	enc, err := NewWithMode(mode, Encrypt, key)
	require.NoError(err, "NewWithMode(Encrypt)")
	defer enc.Release()
	dec, err := NewWithMode(mode, Decrypt, key)
	require.NoError(err, "NewWithMode(Decrypt)")
	defer dec.Release()

	sealed, err := enc.Seal(nil, nonce, pt, aad)
	require.NoError(err, "Seal()")
	require.Len(sealed, len(pt)+TagSize, "Seal() - length")

	opened, err := dec.Open(nil, nonce, sealed, aad)
	require.NoError(err, "Open()")
	require.Equal(pt, opened, "Seal()/Open() - round trips")

	// The cryptor is reusable afterwards, and deterministic.
	sealed2, err := enc.Seal(nil, nonce, pt, aad)
	require.NoError(err, "Seal() - reuse")
	require.Equal(sealed, sealed2, "Seal() - deterministic")

	// Appending to an existing slice.
	prefix := []byte("prefix")
	withPrefix, err := enc.Seal(append([]byte{}, prefix...), nonce, pt, aad)
	require.NoError(err, "Seal() - append")
	require.Equal(prefix, withPrefix[:len(prefix)], "Seal() - prefix preserved")
	require.Equal(sealed, withPrefix[len(prefix):], "Seal() - appended output")

	// Truncated and mutated inputs fail.
	_, err = dec.Open(nil, nonce, sealed[:TagSize-1], aad)
	require.EqualError(err, ErrAuthentication.Error(), "Open() - truncated ciphertext")

	badSealed := append([]byte{}, sealed...)
	badSealed[3] ^= 0xa5
	_, err = dec.Open(nil, nonce, badSealed, aad)
	require.EqualError(err, ErrAuthentication.Error(), "Open() - mutated ciphertext")

	badAad := append([]byte{}, aad...)
	badAad[0] ^= 0xa5
	_, err = dec.Open(nil, nonce, sealed, badAad)
	require.EqualError(err, ErrAuthentication.Error(), "Open() - mutated aad")

	// A failed Open wipes whatever plaintext it produced.
	dst := make([]byte, 0, len(pt))
	_, err = dec.Open(dst, nonce, badSealed, aad)
	require.EqualError(err, ErrAuthentication.Error(), "Open() - into existing buffer")
	for i, b := range dst[:cap(dst)] {
		require.Zero(b, "Open() - unauthenticated plaintext retained at %d", i)
	}

	// Direction is enforced.
	_, err = dec.Seal(nil, nonce, pt, aad)
	require.EqualError(err, ErrParam.Error(), "Seal() - decrypt cryptor")
	_, err = enc.Open(nil, nonce, sealed, aad)
	require.EqualError(err, ErrParam.Error(), "Open() - encrypt cryptor")

	// One shot calls require a cryptor with no message in flight.
	require.NoError(enc.GCMAddIV(nonce), "GCMAddIV()")
	_, err = enc.Seal(nil, nonce, pt, aad)
	require.EqualError(err, ErrCallSequence.Error(), "Seal() - message in flight")
	require.NoError(enc.GCMReset(), "GCMReset()")
	_, err = enc.Seal(nil, nonce, pt, aad)
	require.NoError(err, "Seal() - after reset")
}

func TestSealOpenNotAEAD(t *testing.T) {
	require := require.New(t)

	c, err := NewWithMode(ModeCTR, Both, mustRandom(t, 16))
	require.NoError(err, "NewWithMode(CTR)")
	defer c.Release()

	_, err = c.Seal(nil, mustRandom(t, 12), []byte("plaintext"), nil)
	require.EqualError(err, ErrUnimplemented.Error(), "Seal() - block mode")
	_, err = c.Open(nil, mustRandom(t, 12), make([]byte, 32), nil)
	require.EqualError(err, ErrUnimplemented.Error(), "Open() - block mode")
}
