package signing

import "strings"

// Outcome classifies a presented URL.
type Outcome int

const (
	Valid Outcome = iota
	Blackholed
	Expired
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Blackholed:
		return "blackholed"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Request is what the caller knows about the incoming request. Empty fields
// mean the value was not supplied.
type Request struct {
	Method  string
	Address string
}

// Result is the outcome of Verify. URL is the original, unsigned URL and is
// only set when Outcome is Valid.
type Result struct {
	Outcome Outcome
	URL     string
}

var blackholed = Result{Outcome: Blackholed}

// Verify checks signedURL against the configured secrets and enforces its
// constraints against req. The digest is checked before anything in the
// fragment is interpreted. Address and method violations take precedence
// over expiry.
func (s *Signature) Verify(signedURL string, req Request) Result {
	cut := strings.LastIndex(signedURL, FieldSeparator)
	if cut < 0 {
		return blackholed
	}
	cut += len(FieldSeparator)
	prefix, digest := signedURL[:cut], signedURL[cut:]
	if digest == "" || !verifyDigest(s.hash, s.secrets, prefix, digest) {
		return blackholed
	}

	marker := strings.LastIndex(prefix, "&"+Marker)
	if marker < 0 {
		marker = strings.LastIndex(prefix, "?"+Marker)
	}
	if marker < 0 {
		return blackholed
	}
	fragment := prefix[marker+1+len(Marker) : len(prefix)-len(FieldSeparator)]
	c, err := DecodeConstraints(fragment)
	if err != nil {
		return blackholed
	}

	if c.Address != "" && c.Address != req.Address {
		return blackholed
	}
	if len(c.Methods) > 0 && (req.Method == "" || !c.AllowsMethod(req.Method)) {
		return blackholed
	}
	if c.ExpiresAt != nil && s.clock.Now().Unix() >= c.ExpiresAt.Unix() {
		return Result{Outcome: Expired}
	}
	return Result{Outcome: Valid, URL: signedURL[:marker]}
}

// Check is Verify for callers that prefer errors. It returns the original URL,
// or ErrBlackholed or ErrExpired.
func (s *Signature) Check(signedURL string, req Request) (string, error) {
	res := s.Verify(signedURL, req)
	switch res.Outcome {
	case Valid:
		return res.URL, nil
	case Expired:
		return "", ErrExpired
	default:
		return "", ErrBlackholed
	}
}
