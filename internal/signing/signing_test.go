package signing

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "Xd<dMf72sj;6"

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSignature(t *testing.T, cfg Config) (*Signature, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	if cfg.Secrets == nil {
		cfg.Secrets = []string{testSecret}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock
	}
	if cfg.Nonce == nil {
		cfg.Nonce = func() int64 { return 42 }
	}
	sig, err := New(cfg)
	require.NoError(t, err)
	return sig, clock
}

func TestNew(t *testing.T) {
	t.Run("requires secrets", func(t *testing.T) {
		_, err := New(Config{})
		assert.ErrorIs(t, err, ErrNoSecrets)
	})

	t.Run("rejects unknown hash", func(t *testing.T) {
		_, err := New(Config{Secrets: []string{"s"}, Hash: "crc32"})
		assert.ErrorIs(t, err, ErrUnknownHash)
	})

	t.Run("copies secrets", func(t *testing.T) {
		secrets := []string{"a"}
		sig, err := New(Config{Secrets: secrets})
		require.NoError(t, err)
		secrets[0] = "b"
		assert.Equal(t, []string{"a"}, sig.secrets)
	})

	t.Run("must new panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNew(Config{}) })
	})
}

func TestSign_Format(t *testing.T) {
	sig, _ := newTestSignature(t, Config{})

	got := sig.Sign("http://h/a", SignOptions{TTL: 5 * time.Second})

	// md5("http://h/a?signed=e%3A1700000005%3Br%3A42%3B" + secret)
	want := "http://h/a?signed=e%3A1700000005%3Br%3A42%3Bd10016b1e2f29e1640af1ae7dcb64153"
	assert.Equal(t, want, got)

	res := sig.Verify(got, Request{})
	assert.Equal(t, Result{Outcome: Valid, URL: "http://h/a"}, res)
}

func TestSign_ExistingQuery(t *testing.T) {
	sig, _ := newTestSignature(t, Config{})

	got := sig.Sign("http://h/a?x=1", SignOptions{})
	assert.True(t, strings.HasPrefix(got, "http://h/a?x=1&signed=r%3A42%3B"), got)

	url, err := sig.Check(got, Request{})
	require.NoError(t, err)
	assert.Equal(t, "http://h/a?x=1", url)
}

func TestSign_ExpiryPriority(t *testing.T) {
	exp := time.Unix(1800000000, 0)

	tests := []struct {
		name       string
		defaultTTL time.Duration
		opts       SignOptions
		want       string
	}{
		{"ttl wins over exp", time.Hour, SignOptions{TTL: 10 * time.Second, Exp: exp}, "e%3A1700000010"},
		{"exp wins over default", time.Hour, SignOptions{Exp: exp}, "e%3A1800000000"},
		{"default ttl", time.Hour, SignOptions{}, "e%3A1700003600"},
		{"sub-second ttl ignored", 0, SignOptions{TTL: 500 * time.Millisecond}, ""},
		{"none", 0, SignOptions{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, _ := newTestSignature(t, Config{TTL: tt.defaultTTL})
			got := sig.Sign("http://h/a", tt.opts)
			if tt.want == "" {
				assert.NotContains(t, got, "e%3A")
				return
			}
			assert.Contains(t, got, "?signed="+tt.want+FieldSeparator)
		})
	}
}

func TestSign_FieldOrder(t *testing.T) {
	sig, _ := newTestSignature(t, Config{})

	got := sig.Sign("http://h/a", SignOptions{
		TTL:     time.Minute,
		Addr:    "1.2.3.4",
		Methods: []string{"get", "Post"},
	})
	assert.Contains(t, got, "?signed=e%3A1700000060%3Ba%3A1.2.3.4%3Br%3A42%3Bm%3AGET%2cPOST%3B")
}

func TestIssue(t *testing.T) {
	sig, _ := newTestSignature(t, Config{TTL: time.Minute})

	signed, c := sig.Issue("http://h/a", SignOptions{Addr: "1.2.3.4", Methods: []string{"get"}})
	require.NotNil(t, c.ExpiresAt)
	assert.Equal(t, int64(1700000060), c.ExpiresAt.Unix())
	assert.Equal(t, "1.2.3.4", c.Address)
	assert.Equal(t, []string{"GET"}, c.Methods)
	assert.Contains(t, signed, "signed="+c.Encode()+FieldSeparator)
}

func TestSign_BlankMethods(t *testing.T) {
	sig, _ := newTestSignature(t, Config{})

	got := sig.Sign("http://h/a", SignOptions{Methods: []string{"GET", "", " "}})
	assert.Contains(t, got, "m%3AGET%3B")
	assert.Equal(t, Result{Outcome: Valid, URL: "http://h/a"}, sig.Verify(got, Request{Method: "GET"}))
	assert.Equal(t, Blackholed, sig.Verify(got, Request{Method: "POST"}).Outcome)

	got = sig.Sign("http://h/a", SignOptions{Methods: []string{""}})
	assert.NotContains(t, got, "m%3A")
	assert.Equal(t, Valid, sig.Verify(got, Request{Method: "DELETE"}).Outcome)
}

func TestSign_NonceOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		nonce int64
		want  string
	}{
		{"negative", -1, "r%3A9999999999%3B"},
		{"too large", maxNonce + 5, "r%3A5%3B"},
		{"min int64", math.MinInt64, "r%3A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, _ := newTestSignature(t, Config{Nonce: func() int64 { return tt.nonce }})
			got := sig.Sign("http://h/a", SignOptions{})
			assert.Contains(t, got, "?signed="+tt.want)
			assert.Equal(t, Valid, sig.Verify(got, Request{}).Outcome)
		})
	}
}

func TestSign_NonceDecorrelates(t *testing.T) {
	n := int64(0)
	sig, _ := newTestSignature(t, Config{Nonce: func() int64 { n++; return n }})

	a := sig.Sign("http://h/a", SignOptions{})
	b := sig.Sign("http://h/a", SignOptions{})
	assert.NotEqual(t, a, b)
}

func TestRandomNonce(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := RandomNonce()
		assert.GreaterOrEqual(t, n, int64(0))
		assert.Less(t, n, int64(maxNonce))
	}
}

func TestVerifyString(t *testing.T) {
	sig, _ := newTestSignature(t, Config{})
	prefix := "http://h/a?signed=e%3A1700000005%3Br%3A42%3B"

	assert.True(t, sig.VerifyString(prefix, "d10016b1e2f29e1640af1ae7dcb64153"))
	assert.False(t, sig.VerifyString(prefix, "d10016b1e2f29e1640af1ae7dcb64154"))
}
