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

package gcm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/yawning/cryptor.git/internal/api"
)

func mustRandom(t *testing.T, n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err, "Generate random buffer")
	return b
}

func engineSeal(e *Engine, nonce, pt, aad []byte, chunk int) ([]byte, [api.TagSize]byte) {
	e.Init(nonce, 0, 0)
	if len(aad) > 0 {
		e.Absorb(aad)
	}

	ct := make([]byte, len(pt))
	if chunk <= 0 {
		chunk = len(pt) + 1
	}
	for off := 0; off < len(pt); off += chunk {
		end := off + chunk
		if end > len(pt) {
			end = len(pt)
		}
		e.Crypt(ct[off:end], pt[off:end], true)
	}

	var tag [api.TagSize]byte
	e.Tag(&tag)
	return ct, tag
}

func TestEngineOracle(t *testing.T) {
	require := require.New(t)

	for _, keySize := range []int{16, 24, 32} {
		key := mustRandom(t, keySize)
		e, err := New(key)
		require.NoError(err, "New()")

		block, err := aes.NewCipher(key)
		require.NoError(err, "aes.NewCipher()")

		for _, nonceLen := range []int{12, 8, 16, 32} {
			ref, err := cipher.NewGCMWithNonceSize(block, nonceLen)
			require.NoError(err, "cipher.NewGCMWithNonceSize(%d)", nonceLen)

			for _, ptLen := range []int{0, 1, 16, 17, 255} {
				nonce := mustRandom(t, nonceLen)
				aad := mustRandom(t, 27)
				pt := mustRandom(t, ptLen)

				sealed := ref.Seal(nil, nonce, pt, aad)
				ct, tag := engineSeal(e, nonce, pt, aad, 0)
				require.Equal(sealed[:ptLen], ct, "ciphertext - key %d nonce %d pt %d",
					keySize, nonceLen, ptLen)
				require.Equal(sealed[ptLen:], tag[:], "tag - key %d nonce %d pt %d",
					keySize, nonceLen, ptLen)
			}
		}
	}
}

func TestEngineChunking(t *testing.T) {
	require := require.New(t)

	key := mustRandom(t, 16)
	e, err := New(key)
	require.NoError(err, "New()")

	nonce := mustRandom(t, 12)
	aad := mustRandom(t, 31)
	pt := mustRandom(t, 301)

	refCt, refTag := engineSeal(e, nonce, pt, aad, 0)
	for _, chunk := range []int{1, 2, 5, 15, 16, 17, 100} {
		ct, tag := engineSeal(e, nonce, pt, aad, chunk)
		require.Equal(refCt, ct, "ciphertext - chunk %d", chunk)
		require.Equal(refTag, tag, "tag - chunk %d", chunk)
	}
}

func TestEngineInPlaceDecrypt(t *testing.T) {
	require := require.New(t)

	key := mustRandom(t, 32)
	e, err := New(key)
	require.NoError(err, "New()")

	nonce := mustRandom(t, 12)
	pt := mustRandom(t, 93)
	ct, refTag := engineSeal(e, nonce, pt, nil, 0)

	// Decryption in place must hash the ciphertext it is overwriting.
	buf := append([]byte{}, ct...)
	e.Init(nonce, 0, 0)
	e.Crypt(buf, buf, false)
	var tag [api.TagSize]byte
	e.Tag(&tag)
	require.Equal(pt, buf, "Crypt() - in place plaintext")
	require.Equal(refTag, tag, "Tag() - in place decrypt")
}
