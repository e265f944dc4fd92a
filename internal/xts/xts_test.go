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

package xts

import (
	"crypto/aes"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	refxts "golang.org/x/crypto/xts"

	"gitlab.com/yawning/cryptor.git/internal/api"
)

func TestAgainstReference(t *testing.T) {
	require := require.New(t)

	for _, keySize := range []int{32, 48, 64} {
		key := make([]byte, keySize)
		_, err := rand.Read(key)
		require.NoError(err, "Generate random key")

		c, err := NewCipher(key)
		require.NoError(err, "NewCipher()")
		ref, err := refxts.NewCipher(aes.NewCipher, key)
		require.NoError(err, "refxts.NewCipher()")

		pt := make([]byte, 256)
		_, err = rand.Read(pt)
		require.NoError(err, "Generate random plaintext")

		for _, sector := range []uint64{0, 1, 42, 1 << 40} {
			var tweak [api.BlockSize]byte
			binary.LittleEndian.PutUint64(tweak[:8], sector)

			expected := make([]byte, len(pt))
			ref.Encrypt(expected, pt, sector)

			ct := make([]byte, len(pt))
			c.EncryptBlocks(ct, pt, tweak[:])
			require.Equal(expected, ct, "EncryptBlocks() - key %d sector %d", keySize, sector)

			opened := make([]byte, len(pt))
			c.DecryptBlocks(opened, ct, tweak[:])
			require.Equal(pt, opened, "DecryptBlocks() - round trip")
		}
	}
}

func TestFullWidthTweak(t *testing.T) {
	require := require.New(t)

	key := make([]byte, 64)
	_, err := rand.Read(key)
	require.NoError(err, "Generate random key")
	c, err := NewCipher(key)
	require.NoError(err, "NewCipher()")

	pt := make([]byte, 64)
	_, err = rand.Read(pt)
	require.NoError(err, "Generate random plaintext")

	// Tweaks differing only in the upper half must produce different
	// ciphertexts.
	tweak1 := make([]byte, api.BlockSize)
	tweak2 := make([]byte, api.BlockSize)
	_, err = rand.Read(tweak1)
	require.NoError(err, "Generate random tweak")
	copy(tweak2, tweak1)
	tweak2[api.BlockSize-1] ^= 0xff

	ct1 := make([]byte, len(pt))
	ct2 := make([]byte, len(pt))
	c.EncryptBlocks(ct1, pt, tweak1)
	c.EncryptBlocks(ct2, pt, tweak2)
	require.NotEqual(ct1, ct2, "EncryptBlocks() - upper tweak half ignored")

	opened := make([]byte, len(pt))
	c.DecryptBlocks(opened, ct1, tweak1)
	require.Equal(pt, opened, "DecryptBlocks() - round trip")

	// In place operation.
	inPlace := append([]byte{}, pt...)
	c.EncryptBlocks(inPlace, inPlace, tweak1)
	require.Equal(ct1, inPlace, "EncryptBlocks() - in place")
}
