package signing

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
)

// DefaultHash is the algorithm used when Config names none. It matches the
// digest produced by existing signers of this URL format.
const DefaultHash = "md5"

// HashStrategy computes the keyed digest appended to a signed URL.
type HashStrategy interface {
	Digest(input, secret []byte) string
}

// HashFunc adapts a plain function to HashStrategy.
type HashFunc func(input, secret []byte) string

// Digest calls f(input, secret).
func (f HashFunc) Digest(input, secret []byte) string {
	return f(input, secret)
}

// sequentialHash feeds the input and then the secret into one hash state and
// hex-encodes the sum.
type sequentialHash struct {
	alg func() hash.Hash
}

func (s sequentialHash) Digest(input, secret []byte) string {
	h := s.alg()
	h.Write(input)
	h.Write(secret)
	return hex.EncodeToString(h.Sum(nil))
}

type hmacHash struct {
	alg func() hash.Hash
}

func (s hmacHash) Digest(input, secret []byte) string {
	mac := hmac.New(s.alg, secret)
	mac.Write(input)
	return hex.EncodeToString(mac.Sum(nil))
}

var hashes = map[string]HashStrategy{
	"md5":         sequentialHash{md5.New},
	"sha1":        sequentialHash{sha1.New},
	"sha224":      sequentialHash{sha256.New224},
	"sha256":      sequentialHash{sha256.New},
	"sha384":      sequentialHash{sha512.New384},
	"sha512":      sequentialHash{sha512.New},
	"hmac-sha256": hmacHash{sha256.New},
	"hmac-sha512": hmacHash{sha512.New},
}

// LookupHash returns the built-in strategy registered under name.
func LookupHash(name string) (HashStrategy, error) {
	if name == "" {
		name = DefaultHash
	}
	h, ok := hashes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
	return h, nil
}

// HashNames lists the registered algorithm names in sorted order.
func HashNames() []string {
	names := make([]string, 0, len(hashes))
	for name := range hashes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func computeDigest(h HashStrategy, secrets []string, input string) string {
	return h.Digest([]byte(input), []byte(secrets[0]))
}

// verifyDigest reports whether candidate matches the digest of input under
// any of the secrets. Each comparison is constant time; returning on the
// first match only leaks which position in the list matched.
func verifyDigest(h HashStrategy, secrets []string, input, candidate string) bool {
	in := []byte(input)
	cand := []byte(candidate)
	for _, secret := range secrets {
		expected := h.Digest(in, []byte(secret))
		if subtle.ConstantTimeCompare([]byte(expected), cand) == 1 {
			return true
		}
	}
	return false
}
