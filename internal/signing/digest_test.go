package signing

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupHash(t *testing.T) {
	h, err := LookupHash("")
	require.NoError(t, err)
	md5Hash, _ := LookupHash("md5")
	assert.Equal(t, md5Hash.Digest([]byte("in"), []byte("key")), h.Digest([]byte("in"), []byte("key")))

	for _, name := range HashNames() {
		h, err := LookupHash(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, h.Digest([]byte("in"), []byte("key")), name)
	}

	_, err = LookupHash("md4")
	assert.ErrorIs(t, err, ErrUnknownHash)
}

func TestSequentialHash(t *testing.T) {
	h, err := LookupHash("md5")
	require.NoError(t, err)

	sum := md5.Sum([]byte("http://h/a?signed=r%3A1%3B" + "secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), h.Digest([]byte("http://h/a?signed=r%3A1%3B"), []byte("secret")))
}

func TestHMACHash(t *testing.T) {
	h, err := LookupHash("hmac-sha256")
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("payload"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), h.Digest([]byte("payload"), []byte("secret")))
}

func TestDigest_SecretRotation(t *testing.T) {
	h := hashes["sha256"]
	input := "http://h/a?signed=r%3A1%3B"
	oldDigest := computeDigest(h, []string{"old"}, input)

	assert.True(t, verifyDigest(h, []string{"new", "old"}, input, oldDigest))
	assert.False(t, verifyDigest(h, []string{"new"}, input, oldDigest))
	assert.Equal(t, computeDigest(h, []string{"new", "old"}, input), computeDigest(h, []string{"new"}, input))
}

func TestDigest_RejectsPrefixOfDigest(t *testing.T) {
	h := hashes["md5"]
	d := computeDigest(h, []string{"s"}, "x")

	assert.False(t, verifyDigest(h, []string{"s"}, "x", d[:16]))
	assert.False(t, verifyDigest(h, []string{"s"}, "x", d+"0"))
	assert.False(t, verifyDigest(h, []string{"s"}, "x", ""))
}

func TestHashFunc(t *testing.T) {
	var calls int
	custom := HashFunc(func(input, secret []byte) string {
		calls++
		return string(secret) + ":" + string(input)
	})
	sig, err := New(Config{Secrets: []string{"k"}, Strategy: custom, Nonce: func() int64 { return 1 }})
	require.NoError(t, err)

	signed := sig.Sign("http://h/a", SignOptions{})
	assert.Equal(t, "http://h/a?signed=r%3A1%3Bk:http://h/a?signed=r%3A1%3B", signed)
	assert.Equal(t, 1, calls)
}
