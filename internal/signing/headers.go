package signing

import "net/http"

// Header names mandated by the Webull OpenAPI signing protocol. The six
// canonical names below participate in signature computation; x-signature
// carries the result.
const (
	HeaderAppKey    = "x-app-key"
	HeaderAlgorithm = "x-signature-algorithm"
	HeaderVersion   = "x-signature-version"
	HeaderNonce     = "x-signature-nonce"
	HeaderTimestamp = "x-timestamp"
	HeaderHost      = "host"
	HeaderSignature = "x-signature"
)

// CanonicalHeaders is the fixed set of header names that participate in
// signing, regardless of what other headers a request carries. Protocol
// constant, not configurable.
var CanonicalHeaders = []string{
	HeaderAppKey,
	HeaderAlgorithm,
	HeaderVersion,
	HeaderNonce,
	HeaderTimestamp,
	HeaderHost,
}

// SignedHeaders assembles the outbound header set for a signed request: the
// six canonical headers plus x-signature. Pure; it transmits nothing. The
// host pair is included for completeness even though Go's HTTP client
// derives the wire Host from the request URL, which the caller keeps equal
// to Request.Host.
func SignedHeaders(req Request, signature string) http.Header {
	h := http.Header{}
	h.Set(HeaderAppKey, req.AppKey)
	h.Set(HeaderAlgorithm, req.Algorithm)
	h.Set(HeaderVersion, req.Version)
	h.Set(HeaderNonce, req.Nonce)
	h.Set(HeaderTimestamp, req.Timestamp)
	h.Set(HeaderHost, req.Host)
	h.Set(HeaderSignature, signature)
	return h
}
