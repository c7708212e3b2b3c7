package signing

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Identifiers the protocol fixes for every request.
const (
	AlgorithmHMACSHA1 = "HMAC-SHA1"
	SignatureVersion  = "1.0"
)

// Request holds the parts of an outbound HTTP request that participate in
// signing. Values are used verbatim: header values are never trimmed or
// case-folded, and numeric-looking values stay strings. Timestamp and Nonce
// are caller-supplied so that signing stays deterministic.
type Request struct {
	Path      string            // URI path, must start with "/", no query string
	Query     map[string]string // query parameters, case-sensitive keys
	Timestamp string            // ISO-8601 UTC, e.g. "2022-01-04T03:55:31Z"
	Nonce     string            // caller-generated single-use token
	AppKey    string
	Algorithm string // AlgorithmHMACSHA1
	Version   string // SignatureVersion
	Host      string // lowercase API host
	Body      []byte // raw body bytes, may be nil or empty
}

// InputError indicates a malformed Request: bad path or a missing canonical
// header value.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("webull signing: invalid %s: %s", e.Field, e.Message)
}

// EncodingError indicates a body that could not be represented as bytes.
// Defensive: a Request already carries decoded bytes, so in practice it is
// produced one layer up when a body fails to marshal.
type EncodingError struct {
	Message string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("webull signing: encoding: %s", e.Message)
}

// Sign computes the request signature. It either fully succeeds or fails;
// no partial signature is ever returned, and the secret never appears in
// any error or output.
func Sign(req Request, secret string) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	toSign := req.Path + "&" + canonicalParams(req) + "&" + bodyDigest(req.Body)

	mac := hmac.New(sha1.New, []byte(secret+"&"))
	mac.Write([]byte(percentEncode(toSign)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func validate(req Request) error {
	switch {
	case req.Path == "":
		return &InputError{Field: "path", Message: "must not be empty"}
	case !strings.HasPrefix(req.Path, "/"):
		return &InputError{Field: "path", Message: "must start with /"}
	case strings.ContainsRune(req.Path, '?'):
		return &InputError{Field: "path", Message: "must not contain a query string"}
	}
	for name, value := range map[string]string{
		HeaderAppKey:    req.AppKey,
		HeaderAlgorithm: req.Algorithm,
		HeaderVersion:   req.Version,
		HeaderNonce:     req.Nonce,
		HeaderTimestamp: req.Timestamp,
		HeaderHost:      req.Host,
	} {
		if value == "" {
			return &InputError{Field: name, Message: "canonical header value missing"}
		}
	}
	return nil
}

// canonicalParams merges query parameters with the canonical headers
// (headers are added last and win on collision), sorts keys in byte order,
// and joins "key=value" pairs with "&". Values are not escaped here; the
// whole composed string is escaped later, matching the reference vectors.
func canonicalParams(req Request) string {
	merged := make(map[string]string, len(req.Query)+6)
	for k, v := range req.Query {
		merged[k] = v
	}
	merged[HeaderAppKey] = req.AppKey
	merged[HeaderAlgorithm] = req.Algorithm
	merged[HeaderVersion] = req.Version
	merged[HeaderNonce] = req.Nonce
	merged[HeaderTimestamp] = req.Timestamp
	merged[HeaderHost] = req.Host

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(merged[k])
	}
	return b.String()
}

// bodyDigest returns the uppercase hex MD5 of the raw body bytes. A nil or
// empty body digests the empty byte sequence, never a different code path.
func bodyDigest(body []byte) string {
	sum := md5.Sum(body)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

const upperhex = "0123456789ABCDEF"

// percentEncode escapes every byte outside the unreserved set
// [A-Za-z0-9._~-] as %XX with uppercase hex. Stricter than URL path
// encoding on purpose: "/", "&", "=", ":" and "+" must all be escaped
// because the input is the whole composed signing string.
func percentEncode(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/2)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xF])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') ||
		('0' <= c && c <= '9') ||
		c == '-' || c == '.' || c == '_' || c == '~'
}
