/*
Package signing implements the Webull OpenAPI request-signing algorithm.

Every authenticated request carries six canonical headers (x-app-key,
x-signature-algorithm, x-signature-version, x-signature-nonce, x-timestamp,
host) plus an x-signature header computed as follows:

Step 1: merge the request's query parameters and the six canonical headers
into one map, keyed by the literal lowercase header names. On a key collision
the header value wins.

Step 2: sort the merged keys in byte order and join "key=value" pairs with
"&". This is the canonical parameter string.

Step 3: compute MD5 over the raw request body (empty body included) and
render it as uppercase hex. MD5 is the protocol's canonicalization digest,
not the authentication primitive.

Step 4: concatenate path, canonical parameter string, and body digest with
"&" separators.

Step 5: percent-encode the whole concatenation with a strict encoder that
escapes everything outside [A-Za-z0-9._~-]. The separators themselves ("&",
"=", "/") are escaped too; the encoder is applied to the composed string,
not to a URL path.

Step 6: compute HMAC-SHA1 over the encoded string with key secret + "&" (the
trailing "&" is part of the key material) and base64-encode the result with
the standard alphabet and padding.

The transform is pure: identical inputs always produce identical signatures,
and the only volatile inputs (timestamp, nonce) are supplied by the caller.
*/
package signing
