// Package signing issues and verifies tamper-evident URLs. A signed URL
// carries its own constraints (expiry, client address, HTTP methods) and a
// keyed digest over the whole string, so verification needs no server-side
// state beyond the configured secrets.
package signing

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

// Marker introduces the constraint fragment in a signed URL.
const Marker = "signed="

// maxNonce bounds the random value mixed into every signature.
const maxNonce = 10_000_000_000

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NonceSource supplies the per-link nonce. Values outside [0, 10^10) are
// reduced into that range when signing.
type NonceSource func() int64

// RandomNonce draws a nonce from crypto/rand.
func RandomNonce() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(maxNonce))
	if err != nil {
		// Fall back to the clock; the nonce only decorrelates digests.
		return time.Now().UnixNano() % maxNonce
	}
	return n.Int64()
}

// Config configures a Signature.
type Config struct {
	// Secrets is the ordered secret set. The first entry signs; any entry
	// verifies, so a new secret can be prepended while the old one drains.
	Secrets []string
	// TTL is the default lifetime applied when Sign is given no expiry.
	TTL time.Duration
	// Hash names a built-in algorithm (see HashNames). Ignored if Strategy is set.
	Hash     string
	Strategy HashStrategy
	Clock    Clock
	Nonce    NonceSource
}

// Signature signs and verifies URLs. It is immutable and safe for concurrent
// use; rotate secrets by building a new one.
type Signature struct {
	secrets []string
	ttl     time.Duration
	hash    HashStrategy
	clock   Clock
	nonce   NonceSource
}

// New validates cfg and returns a Signature.
func New(cfg Config) (*Signature, error) {
	if len(cfg.Secrets) == 0 {
		return nil, ErrNoSecrets
	}
	h := cfg.Strategy
	if h == nil {
		var err error
		if h, err = LookupHash(cfg.Hash); err != nil {
			return nil, err
		}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	nonce := cfg.Nonce
	if nonce == nil {
		nonce = RandomNonce
	}
	secrets := make([]string, len(cfg.Secrets))
	copy(secrets, cfg.Secrets)
	return &Signature{
		secrets: secrets,
		ttl:     cfg.TTL,
		hash:    h,
		clock:   clock,
		nonce:   nonce,
	}, nil
}

// MustNew is like New but panics on a configuration error.
func MustNew(cfg Config) *Signature {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// SignOptions are per-link constraints. TTL wins over Exp, which wins over
// the Signature's default TTL.
type SignOptions struct {
	TTL     time.Duration
	Exp     time.Time
	Addr    string
	Methods []string
}

// Sign appends a signed= fragment and digest to rawURL.
func (s *Signature) Sign(rawURL string, opts SignOptions) string {
	signed, _ := s.Issue(rawURL, opts)
	return signed
}

// Issue is Sign that also returns the constraints embedded in the link.
func (s *Signature) Issue(rawURL string, opts SignOptions) (string, Constraints) {
	nonce := boundNonce(s.nonce())
	c := Constraints{
		ExpiresAt: s.expiry(opts),
		Address:   opts.Addr,
		Nonce:     &nonce,
	}
	for _, m := range opts.Methods {
		// Blank entries carry no constraint and would not decode.
		if m = strings.TrimSpace(m); m != "" {
			c.Methods = append(c.Methods, strings.ToUpper(m))
		}
	}

	var b strings.Builder
	b.WriteString(rawURL)
	if strings.Contains(rawURL, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	b.WriteString(Marker)
	b.WriteString(c.Encode())
	b.WriteString(FieldSeparator)
	prefix := b.String()
	return prefix + computeDigest(s.hash, s.secrets, prefix), c
}

func (s *Signature) expiry(opts SignOptions) *time.Time {
	var exp time.Time
	switch {
	case seconds(opts.TTL) > 0:
		exp = time.Unix(s.clock.Now().Unix()+seconds(opts.TTL), 0)
	case !opts.Exp.IsZero():
		exp = time.Unix(opts.Exp.Unix(), 0)
	case seconds(s.ttl) > 0:
		exp = time.Unix(s.clock.Now().Unix()+seconds(s.ttl), 0)
	default:
		return nil
	}
	return &exp
}

// boundNonce maps any value from a NonceSource into [0, maxNonce).
func boundNonce(n int64) int64 {
	n %= maxNonce
	if n < 0 {
		n += maxNonce
	}
	return n
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// VerifyString reports whether digest is the digest of input under any
// configured secret.
func (s *Signature) VerifyString(input, digest string) bool {
	return verifyDigest(s.hash, s.secrets, input, digest)
}
