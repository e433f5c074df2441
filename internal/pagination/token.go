// Package pagination implements the opaque keyset-pagination token used
// by collection endpoints. A token carries the resume keys of the last
// row a client has seen plus the page limit. Listing queries must order
// ascending by the resume key and return only rows with key strictly
// greater than the token's value; re-encoding the last row of each page
// then guarantees forward-only iteration with no gaps or duplicates for
// a fixed snapshot of the store.
package pagination

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	apperrors "github.com/opsledger/catalog/pkg/errors"
)

var (
	// ErrMalformedToken is returned for tokens that cannot be decoded.
	ErrMalformedToken = apperrors.New(apperrors.CodeInvalid, "malformed pagination token")
	// ErrInvalidToken is returned for decodable tokens missing a required key.
	ErrInvalidToken = apperrors.New(apperrors.CodeInvalid, "invalid pagination token")
)

const limitField = "limit"

// Token is an immutable set of named resume keys plus a page limit.
// Tokens are constructed per request and never persisted server-side.
type Token struct {
	keys  map[string]string
	limit int
}

// New builds a token from explicit keys and limit.
func New(limit int, keys map[string]string) Token {
	t := Token{keys: make(map[string]string, len(keys)), limit: limit}
	for k, v := range keys {
		t.keys[k] = v
	}
	return t
}

// Limit returns the page limit carried by the token.
func (t Token) Limit() int { return t.limit }

// Key returns the named resume key, or "" when absent. The empty string
// is the identity starting key: it sorts before every real key under
// the strict greater-than query predicate.
func (t Token) Key(name string) string { return t.keys[name] }

// Int64Key parses the named key as an integer.
func (t Token) Int64Key(name string) (int64, error) {
	v, err := strconv.ParseInt(t.keys[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q is not an integer", ErrInvalidToken, name)
	}
	return v, nil
}

// WithKey derives a new token with one key substituted, leaving the
// limit and every other key unchanged. Used to produce the next-page
// token from the last row of the current page.
func (t Token) WithKey(name, value string) Token {
	next := New(t.limit, t.keys)
	next.keys[name] = value
	return next
}

// Encode renders the token as an opaque URL-safe string. The key set is
// serialized deterministically so equal tokens encode identically.
func (t Token) Encode() string {
	v := url.Values{}
	for k, val := range t.keys {
		v.Set(k, val)
	}
	v.Set(limitField, strconv.Itoa(t.limit))
	return base64.RawURLEncoding.EncodeToString([]byte(v.Encode()))
}

// Decode parses a request token. An empty raw token decodes to the
// identity starting keys and the default limit; callers are expected to
// seed compound keys (e.g. a parent id taken from the request path)
// with WithKey before querying. A present token must carry every name
// in required or decoding fails with ErrInvalidToken. Limits are
// clamped to [1, maxLimit].
func Decode(raw string, defaultLimit, maxLimit int, required ...string) (Token, error) {
	if raw == "" {
		return New(defaultLimit, nil), nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	values, err := url.ParseQuery(string(decoded))
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	limit := defaultLimit
	if s := values.Get(limitField); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil {
			return Token{}, fmt.Errorf("%w: bad limit %q", ErrMalformedToken, s)
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	keys := make(map[string]string, len(values))
	for k := range values {
		if k == limitField {
			continue
		}
		keys[k] = values.Get(k)
	}
	for _, name := range required {
		if _, ok := keys[name]; !ok {
			return Token{}, fmt.Errorf("%w: missing key %q", ErrInvalidToken, name)
		}
	}
	return New(limit, keys), nil
}
