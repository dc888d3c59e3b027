package signing

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Separators used inside the signed= fragment: the upper-case percent
// encodings of ':' and ';'. Values are escaped with lower-case hex, so an
// encoded value never contains either separator.
const (
	KeyValueSeparator = "%3A"
	FieldSeparator    = "%3B"
)

// Field keys of the canonical encoding.
const (
	keyExpires = "e"
	keyAddress = "a"
	keyNonce   = "r"
	keyMethods = "m"
)

// Constraints are the conditions carried inside a signed URL. Nil or empty
// fields are absent and are left out of the encoding entirely.
type Constraints struct {
	ExpiresAt *time.Time
	Address   string
	Methods   []string
	Nonce     *int64
}

// Encode returns the canonical fragment. Fields are always written in the
// order expiry, address, nonce, methods.
func (c Constraints) Encode() string {
	fields := make([]string, 0, 4)
	if c.ExpiresAt != nil {
		fields = append(fields, keyExpires+KeyValueSeparator+strconv.FormatInt(c.ExpiresAt.Unix(), 10))
	}
	if c.Address != "" {
		fields = append(fields, keyAddress+KeyValueSeparator+escape(c.Address))
	}
	if c.Nonce != nil {
		fields = append(fields, keyNonce+KeyValueSeparator+strconv.FormatInt(*c.Nonce, 10))
	}
	if len(c.Methods) > 0 {
		methods := strings.ToUpper(strings.Join(c.Methods, ","))
		fields = append(fields, keyMethods+KeyValueSeparator+escape(methods))
	}
	return strings.Join(fields, FieldSeparator)
}

// AllowsMethod reports whether method is permitted. Constraints without a
// method list allow everything.
func (c Constraints) AllowsMethod(method string) bool {
	if len(c.Methods) == 0 {
		return true
	}
	for _, m := range c.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// DecodeConstraints parses a fragment produced by Encode. Fields may come in
// any order; unknown keys are skipped.
func DecodeConstraints(s string) (Constraints, error) {
	var c Constraints
	if s == "" {
		return c, nil
	}
	seen := make(map[string]bool, 4)
	for _, field := range strings.Split(s, FieldSeparator) {
		key, raw, ok := strings.Cut(field, KeyValueSeparator)
		if !ok {
			return Constraints{}, &DecodeError{Field: field, Reason: "missing key-value separator"}
		}
		if seen[key] {
			return Constraints{}, &DecodeError{Field: key, Reason: "duplicate field"}
		}
		seen[key] = true
		value, err := url.QueryUnescape(raw)
		if err != nil {
			return Constraints{}, &DecodeError{Field: key, Reason: "invalid escape"}
		}
		switch key {
		case keyExpires:
			sec, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Constraints{}, &DecodeError{Field: key, Reason: "expiry is not an integer"}
			}
			t := time.Unix(sec, 0)
			c.ExpiresAt = &t
		case keyAddress:
			if value == "" {
				return Constraints{}, &DecodeError{Field: key, Reason: "empty address"}
			}
			c.Address = value
		case keyNonce:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil || n < 0 {
				return Constraints{}, &DecodeError{Field: key, Reason: "nonce is not a non-negative integer"}
			}
			c.Nonce = &n
		case keyMethods:
			methods, err := splitMethods(value)
			if err != nil {
				return Constraints{}, err
			}
			c.Methods = methods
		}
	}
	return c, nil
}

func splitMethods(value string) ([]string, error) {
	parts := strings.Split(value, ",")
	methods := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			return nil, &DecodeError{Field: keyMethods, Reason: "empty method"}
		}
		methods = append(methods, p)
	}
	return methods, nil
}

const lowerhex = "0123456789abcdef"

// escape percent-encodes, with lower-case hex, every byte outside the
// encodeURIComponent unreserved set A-Z a-z 0-9 - _ . ! ~ * ' ( )
func escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if unreserved(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(lowerhex[ch>>4])
		b.WriteByte(lowerhex[ch&15])
	}
	return b.String()
}

func unreserved(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
