// Package gcsv4signer generates V4 signed URLs for Google Cloud
// Storage objects without shelling out to gsutil or requiring the full
// storage client.
//
// A Signer needs a service account's email and either its PEM encoded
// RSA private key or a SignBytes hook that produces PKCS1v15/SHA-256
// signatures from key material held elsewhere (TPM, Cloud KMS, IAM
// credentials API). See the examples directory for both styles.
//
// Object names are component-encoded with the generic query encoding,
// so "/" inside an object name becomes %2F. Google's reference signer
// preserves path separators; verify against your bucket before relying
// on nested object names.
package gcsv4signer

import (
	"time"

	"github.com/storagesig/gcsv4signer/internal/gcssign"
)

// Error kinds returned by SignURL and the credential loader. Match
// with errors.Is.
var (
	ErrUnsupportedMethod = gcssign.ErrUnsupportedMethod
	ErrInvalidExpiration = gcssign.ErrInvalidExpiration
	ErrKeyDecode         = gcssign.ErrKeyDecode
	ErrSigning           = gcssign.ErrSigning
)

// Signer produces signed URLs for a single service account identity.
type Signer struct {
	// GoogleAccessID is the service account email the signature is
	// attributed to.
	GoogleAccessID string

	// PrivateKey is the service account's PEM encoded RSA private key.
	// Ignored when SignBytes is set.
	PrivateKey []byte

	// SignBytes, when set, replaces the local RSA primitive. It must
	// return an RSASSA-PKCS1-v1_5 signature over a SHA-256 digest of
	// its input, made with a key registered for GoogleAccessID.
	SignBytes func([]byte) ([]byte, error)
}

// SignURL returns a time-limited URL granting method access to
// bucket/object. Defaults: expiration 7 days, no extra headers or
// query parameters, no subresource, clock read once at call time.
func (s *Signer) SignURL(bucket, object, method string, opts ...Option) (string, error) {
	signOpts := options{
		ts: time.Now(),
	}

	for _, opt := range opts {
		opt.setOption(&signOpts)
	}

	signBytes := s.SignBytes
	if signBytes == nil {
		key, err := gcssign.ParseKey(s.PrivateKey)
		if err != nil {
			return "", err
		}
		signBytes = gcssign.RSASignBytes(key)
	}

	internalSigner := gcssign.Signer{
		GoogleAccessID: s.GoogleAccessID,
		SignBytes:      signBytes,
	}

	return internalSigner.SignURL(gcssign.Request{
		Bucket:      bucket,
		Object:      object,
		Method:      method,
		Expires:     signOpts.expires,
		Headers:     signOpts.headers,
		Queries:     signOpts.queries,
		Subresource: signOpts.subresource,
	}, signOpts.ts)
}

type options struct {
	expires     int64
	headers     map[string]string
	queries     map[string]string
	subresource string
	ts          time.Time
}

type Option interface {
	setOption(*options) error
}

type expiresOpt int64

func (o expiresOpt) setOption(opts *options) error {
	opts.expires = int64(o)
	return nil
}

// WithExpires sets the URL lifetime in seconds. The service caps
// lifetimes at 7 days (604800 seconds).
func WithExpires(seconds int64) Option {
	return expiresOpt(seconds)
}

type headersOpt map[string]string

func (o headersOpt) setOption(opts *options) error {
	opts.headers = o
	return nil
}

// WithHeaders adds headers the eventual request will send; they become
// part of the signature and must be sent exactly as signed.
func WithHeaders(headers map[string]string) Option {
	return headersOpt(headers)
}

type queriesOpt map[string]string

func (o queriesOpt) setOption(opts *options) error {
	opts.queries = o
	return nil
}

// WithQueries adds extra query parameters covered by the signature.
func WithQueries(queries map[string]string) Option {
	return queriesOpt(queries)
}

type subresourceOpt string

func (o subresourceOpt) setOption(opts *options) error {
	opts.subresource = string(o)
	return nil
}

// WithSubresource adds an empty-valued query parameter naming a
// sub-operation on the object, such as "acl".
func WithSubresource(name string) Option {
	return subresourceOpt(name)
}

type timeOpt struct {
	ts time.Time
}

func (o timeOpt) setOption(opts *options) error {
	opts.ts = o.ts
	return nil
}

// WithSigningTime fixes the instant the signature is bound to instead
// of reading the clock. The same instant feeds both X-Goog-Date and
// the credential scope.
func WithSigningTime(ts time.Time) Option {
	return timeOpt{ts: ts}
}
