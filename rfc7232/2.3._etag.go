package rfc7232

import (
	"fmt"
	"strings"
)

// §  2.3.  ETag
// §
// §     The "ETag" header field in a response provides the current entity-tag
// §     for the selected representation, as determined at the conclusion of
// §     handling the request.  An entity-tag is an opaque validator for
// §     differentiating between multiple representations of the same
// §     resource, regardless of whether those multiple representations are
// §     due to resource state changes over time, content negotiation
// §     resulting in multiple representations being valid at the same time,
// §     or both.  An entity-tag consists of an opaque quoted string, possibly
// §     prefixed by a weakness indicator.
// §
// §       ETag       = entity-tag
// §
// §       entity-tag = [ weak ] opaque-tag
// §       weak       = %x57.2F ; "W/", case-sensitive
// §       opaque-tag = DQUOTE *etagc DQUOTE
// §       etagc      = %x21 / %x23-7E / %x80-FF
// §                  ; VCHAR except double quotes, plus obs-text

// ETag is an entity-tag in its wire form, quotes and weakness indicator
// included, e.g. `"xyzzy"` or `W/"xyzzy"`. This form must be reproduced
// byte for byte on the wire for interoperability with clients and caches
// that persist entity-tags.
type ETag string

const weakPrefix = "W/"

// ValidPayload reports whether s may appear between the quotes of an
// opaque-tag, i.e. is a non-empty sequence of etagc characters.
// (The grammar permits an empty opaque-tag; this package does not generate
// or accept one, since an empty validator validates nothing.)
func ValidPayload(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == 0x21, 0x23 <= c && c <= 0x7e, 0x80 <= c:
		default:
			return false
		}
	}
	return true
}

// Etaggify wraps a payload in an opaque-tag, optionally marked weak.
//
// The payload must consist of etagc characters only. Anything else is a
// defect in the calling code, not client input, so Etaggify panics instead
// of returning an error.
func Etaggify(payload string, weak bool) ETag {
	if !ValidPayload(payload) {
		panic(fmt.Sprintf("rfc7232: payload %q is not valid inside an entity-tag", payload))
	}
	if weak {
		return ETag(weakPrefix + `"` + payload + `"`)
	}
	return ETag(`"` + payload + `"`)
}

// IsWeak reports whether the entity-tag carries the weakness indicator.
func (e ETag) IsWeak() bool {
	return strings.HasPrefix(string(e), weakPrefix)
}

// Valid reports whether e is a well-formed entity-tag.
func (e ETag) Valid() bool {
	s := strings.TrimPrefix(string(e), weakPrefix)
	if len(s) < 3 || s[0] != '"' || s[len(s)-1] != '"' {
		return false
	}
	return ValidPayload(s[1 : len(s)-1])
}

// Payload returns the characters between the quotes of the opaque-tag.
// The entity-tag must be well formed.
func (e ETag) Payload() string {
	if !e.Valid() {
		panic(fmt.Sprintf("rfc7232: malformed entity-tag %q", e))
	}
	s := strings.TrimPrefix(string(e), weakPrefix)
	return s[1 : len(s)-1]
}

// opaqueTag returns the entity-tag without any weakness indicator.
func (e ETag) opaqueTag() ETag {
	return ETag(strings.TrimPrefix(string(e), weakPrefix))
}
