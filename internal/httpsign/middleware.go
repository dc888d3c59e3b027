// Package httpsign adapts signing.Signature to net/http: it rebuilds the URL a
// client presented, derives the request context the verifier needs, and maps
// outcomes to status codes (403 for blackholed, 410 for expired).
package httpsign

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/LinkSeal/internal/signing"
)

// Verifier is satisfied by *signing.Signature.
type Verifier interface {
	Verify(signedURL string, req signing.Request) signing.Result
}

// AddressReader extracts the client address a link may be bound to.
type AddressReader func(r *http.Request) string

// RemoteAddr returns the host part of r.RemoteAddr.
func RemoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedFor returns the first X-Forwarded-For hop, falling back to
// RemoteAddr. Only use it behind a proxy that overwrites the header.
func ForwardedFor(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return RemoteAddr(r)
	}
	first, _, _ := strings.Cut(xff, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return RemoteAddr(r)
}

type options struct {
	addressReader AddressReader
	blackholed    http.Handler
	expired       http.Handler
	trustProxy    bool
	baseURL       string
	observer      func(*http.Request, signing.Result)
	logger        *zap.Logger
}

// Option configures Middleware.
type Option func(*options)

// WithAddressReader replaces RemoteAddr as the source of the client address.
func WithAddressReader(fn AddressReader) Option {
	return func(o *options) { o.addressReader = fn }
}

// WithBlackholedHandler replaces the default 403 response.
func WithBlackholedHandler(h http.Handler) Option {
	return func(o *options) { o.blackholed = h }
}

// WithExpiredHandler replaces the default 410 response.
func WithExpiredHandler(h http.Handler) Option {
	return func(o *options) { o.expired = h }
}

// WithTrustProxy makes X-Forwarded-Proto and X-Forwarded-Host authoritative
// when rebuilding the presented URL.
func WithTrustProxy(trust bool) Option {
	return func(o *options) { o.trustProxy = trust }
}

// WithBaseURL fixes the scheme and host of the presented URL, e.g. the public
// URL links were issued under.
func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = strings.TrimSuffix(base, "/") }
}

// WithObserver is called with every verification result, before the response
// is written.
func WithObserver(fn func(*http.Request, signing.Result)) Option {
	return func(o *options) { o.observer = fn }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Middleware rejects requests whose URL does not verify. Requests that pass
// reach next with the signed= fragment stripped from r.URL.
func Middleware(v Verifier, opts ...Option) func(http.Handler) http.Handler {
	o := options{
		addressReader: RemoteAddr,
		blackholed:    http.HandlerFunc(blackholed),
		expired:       http.HandlerFunc(expired),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := PresentedURL(r, o.trustProxy, o.baseURL)
			res := v.Verify(presented, signing.Request{
				Method:  r.Method,
				Address: o.addressReader(r),
			})
			if o.observer != nil {
				o.observer(r, res)
			}
			o.logger.Debug("signed url checked",
				zap.String("path", r.URL.Path),
				zap.Stringer("outcome", res.Outcome))

			switch res.Outcome {
			case signing.Valid:
				next.ServeHTTP(w, stripSignature(r, res.URL))
			case signing.Expired:
				o.expired.ServeHTTP(w, r)
			default:
				o.blackholed.ServeHTTP(w, r)
			}
		})
	}
}

// PresentedURL rebuilds the absolute URL the client requested.
func PresentedURL(r *http.Request, trustProxy bool, baseURL string) string {
	target := r.RequestURI
	if !strings.HasPrefix(target, "/") {
		target = r.URL.RequestURI()
	}
	if baseURL != "" {
		return baseURL + target
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if trustProxy {
		if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
			scheme = p
		}
		if h := r.Header.Get("X-Forwarded-Host"); h != "" {
			host = h
		}
	}
	return scheme + "://" + host + target
}

type ctxKey struct{}

// OriginalURL returns the verified URL, without its signature, stored by
// Middleware.
func OriginalURL(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxKey{}).(string)
	return u, ok
}

func stripSignature(r *http.Request, original string) *http.Request {
	r2 := r.Clone(context.WithValue(r.Context(), ctxKey{}, original))
	if u, err := url.Parse(original); err == nil {
		r2.URL.RawQuery = u.RawQuery
		r2.RequestURI = r2.URL.RequestURI()
	}
	return r2
}

func blackholed(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "blackholed", http.StatusForbidden)
}

func expired(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "link expired", http.StatusGone)
}
