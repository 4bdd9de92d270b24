package gcssign

import "errors"

const (
	// SigningAlgorithm identifies the V4 RSA signing scheme in the
	// canonical query string and the string-to-sign.
	SigningAlgorithm = "GOOG4-RSA-SHA256"

	// UnsignedPayload is the fixed payload marker. Signed URLs never
	// bind a request body, so the canonical request always ends with it.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	goog4Request = "goog4_request"
	scopeRegion  = "auto"
	scopeService = "storage"

	GoogAlgorithmKey     = "X-Goog-Algorithm"
	GoogCredentialKey    = "X-Goog-Credential"
	GoogDateKey          = "X-Goog-Date"
	GoogExpiresKey       = "X-Goog-Expires"
	GoogSignedHeadersKey = "X-Goog-SignedHeaders"

	signatureQueryKey = "x-goog-signature"

	hostSuffix = ".storage.googleapis.com"

	// TimeFormat is the timestamp format for X-Goog-Date and the
	// string-to-sign. Format: YYYYMMDDTHHMMSSZ
	TimeFormat = "20060102T150405Z"

	// ShortTimeFormat is the date-only format for the credential scope.
	// Format: YYYYMMDD
	ShortTimeFormat = "20060102"

	// DefaultExpires is the expiration applied when the caller supplies
	// none. It equals MaxExpires, the 7 day cap enforced by the service.
	DefaultExpires = 604800

	// MaxExpires is the longest lifetime the service accepts, 7 days in
	// seconds.
	MaxExpires = 604800
)

var (
	// ErrUnsupportedMethod is returned for HTTP methods outside
	// GET, POST, PUT, DELETE and PATCH.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")

	// ErrInvalidExpiration is returned when the expiration is not a
	// positive number of seconds no greater than MaxExpires.
	ErrInvalidExpiration = errors.New("invalid expiration")

	// ErrKeyDecode is returned when PEM key material cannot be decoded
	// into an RSA private key.
	ErrKeyDecode = errors.New("decode private key")

	// ErrSigning is returned when the signing primitive rejects the key
	// or input.
	ErrSigning = errors.New("sign string-to-sign")
)

var supportedMethods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
	"PATCH":  {},
}
