// Package gcssign builds V4 signed URLs for Cloud Storage objects.
//
// The scheme canonicalizes the request that will later be made (method,
// encoded object path, query string, headers), hashes the canonical
// text with SHA-256, binds the hash to a credential scope and timestamp
// in a string-to-sign, and signs that string with the service account's
// RSA key. The receiving server re-derives the same bytes, so field
// ordering, separators and case rules here are exact-match contract,
// not style.
package gcssign

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Request describes one URL to sign. Headers and Queries carry extra
// values the eventual request will send; Subresource names an optional
// empty-valued query parameter such as "acl".
type Request struct {
	Bucket      string
	Object      string
	Method      string
	Expires     int64
	Headers     map[string]string
	Queries     map[string]string
	Subresource string
}

// Signer produces signed URLs for one credential. SignBytes must
// return a PKCS1v15/SHA-256 signature over its input; see RSASignBytes
// for the local-key implementation.
type Signer struct {
	GoogleAccessID string
	SignBytes      func([]byte) ([]byte, error)
}

// SignURL runs the full pipeline for req at signTime. The clock is
// captured exactly once, here; every later stage reads the same
// SigningTime.
func (s *Signer) SignURL(req Request, signTime time.Time) (string, error) {
	method, err := normalizeMethod(req.Method)
	if err != nil {
		return "", err
	}

	expires := req.Expires
	if expires == 0 {
		expires = DefaultExpires
	}
	if expires < 0 || expires > MaxExpires {
		return "", fmt.Errorf("%w: %d seconds (must be 1..%d)", ErrInvalidExpiration, expires, MaxExpires)
	}

	ctx := &signingCtx{
		Bucket:         req.Bucket,
		Object:         req.Object,
		Method:         method,
		Expires:        expires,
		Headers:        req.Headers,
		Queries:        req.Queries,
		Subresource:    req.Subresource,
		Time:           NewSigningTime(signTime),
		GoogleAccessID: s.GoogleAccessID,
		SignBytes:      s.SignBytes,
	}

	if err := ctx.build(); err != nil {
		return "", err
	}

	return ctx.assembleURL(), nil
}

// signingCtx holds the state for signing a single request. Data flows
// forward only: each build step consumes fields produced by earlier
// steps and never reaches back.
type signingCtx struct {
	Bucket         string
	Object         string
	Method         string
	Expires        int64
	Headers        map[string]string
	Queries        map[string]string
	Subresource    string
	Time           SigningTime
	GoogleAccessID string
	SignBytes      func([]byte) ([]byte, error)

	host             string
	credentialScope  string
	credentialString string
	canonicalURI     string
	signedHeaders    string
	canonicalHeaders string
	canonicalQuery   string
	canonicalString  string
	stringToSign     string
	signature        string
}

func (ctx *signingCtx) build() error {
	ctx.buildHost()             // no depends
	ctx.buildCredentialString() // no depends
	ctx.buildCanonicalURI()     // no depends
	ctx.buildCanonicalHeaders() // depends on host
	ctx.buildCanonicalQuery()   // depends on credential string / signed headers
	ctx.buildCanonicalString()  // depends on canon headers / canon query
	ctx.buildStringToSign()     // depends on canon string
	return ctx.buildSignature() // depends on string to sign
}

func (ctx *signingCtx) buildHost() {
	ctx.host = ctx.Bucket + hostSuffix
}

func (ctx *signingCtx) buildCredentialString() {
	ctx.credentialScope = strings.Join([]string{
		ctx.Time.ShortTimeFormat(),
		scopeRegion,
		scopeService,
		goog4Request,
	}, "/")
	ctx.credentialString = ctx.GoogleAccessID + "/" + ctx.credentialScope
}

// buildCanonicalURI component-encodes the object name and prefixes "/".
// The generic component encoding is used, so "/" inside object names is
// encoded too; the same bytes reappear verbatim in the final URL.
func (ctx *signingCtx) buildCanonicalURI() {
	ctx.canonicalURI = "/" + url.QueryEscape(ctx.Object)
}

// buildCanonicalHeaders lower-cases names and values, installs the
// synthesized host header over any caller-supplied one, and renders the
// sorted "name:value" block plus the ";"-joined signed-header list. The
// sort order is load-bearing: the server recomputes it to verify.
func (ctx *signingCtx) buildCanonicalHeaders() {
	headers := make(map[string]string, len(ctx.Headers)+1)
	for k, v := range ctx.Headers {
		headers[strings.ToLower(k)] = strings.ToLower(v)
	}
	headers["host"] = ctx.host

	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	var block strings.Builder
	for _, k := range names {
		block.WriteString(k)
		block.WriteByte(':')
		block.WriteString(headers[k])
		block.WriteByte('\n')
	}

	ctx.signedHeaders = strings.Join(names, ";")
	ctx.canonicalHeaders = block.String()
}

// buildCanonicalQuery merges the five synthesized X-Goog-* parameters
// with caller queries and the optional subresource, form-encodes every
// key and value, and joins "k=v" pairs sorted by encoded key.
func (ctx *signingCtx) buildCanonicalQuery() {
	type pair struct {
		key   string
		value string
	}

	pairs := []pair{
		{GoogAlgorithmKey, SigningAlgorithm},
		{GoogCredentialKey, ctx.credentialString},
		{GoogDateKey, ctx.Time.TimeFormat()},
		{GoogExpiresKey, strconv.FormatInt(ctx.Expires, 10)},
		{GoogSignedHeadersKey, ctx.signedHeaders},
	}
	for k, v := range ctx.Queries {
		pairs = append(pairs, pair{k, v})
	}
	if ctx.Subresource != "" {
		pairs = append(pairs, pair{ctx.Subresource, ""})
	}

	encoded := make([]pair, len(pairs))
	for i, p := range pairs {
		encoded[i] = pair{url.QueryEscape(p.key), url.QueryEscape(p.value)}
	}
	sort.Slice(encoded, func(i, j int) bool {
		return encoded[i].key < encoded[j].key
	})

	parts := make([]string, len(encoded))
	for i, p := range encoded {
		parts[i] = p.key + "=" + p.value
	}
	ctx.canonicalQuery = strings.Join(parts, "&")
}

func (ctx *signingCtx) buildCanonicalString() {
	// The header block carries its own trailing newline, which yields
	// the empty line between headers and the signed-header list.
	ctx.canonicalString = strings.Join([]string{
		ctx.Method,
		ctx.canonicalURI,
		ctx.canonicalQuery,
		ctx.canonicalHeaders,
		ctx.signedHeaders,
		UnsignedPayload,
	}, "\n")
}

func (ctx *signingCtx) buildStringToSign() {
	ctx.stringToSign = strings.Join([]string{
		SigningAlgorithm,
		ctx.Time.TimeFormat(),
		ctx.credentialScope,
		hexSHA256([]byte(ctx.canonicalString)),
	}, "\n")
}

func (ctx *signingCtx) buildSignature() error {
	sig, err := ctx.SignBytes([]byte(ctx.stringToSign))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}
	ctx.signature = hex.EncodeToString(sig)
	return nil
}

// assembleURL concatenates the already-encoded components; no further
// encoding happens at this stage.
func (ctx *signingCtx) assembleURL() string {
	var u strings.Builder
	u.WriteString("https://")
	u.WriteString(ctx.host)
	u.WriteString(ctx.canonicalURI)
	u.WriteByte('?')
	u.WriteString(ctx.canonicalQuery)
	u.WriteByte('&')
	u.WriteString(signatureQueryKey)
	u.WriteByte('=')
	u.WriteString(ctx.signature)
	return u.String()
}

func normalizeMethod(method string) (string, error) {
	m := strings.ToUpper(method)
	if _, ok := supportedMethods[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	return m, nil
}

func hexSHA256(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
