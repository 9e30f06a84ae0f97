package rfc7232

import (
	"fmt"
	"net/http"
	"strings"
)

// §  3.1.  If-Match
// §
// §     The "If-Match" header field makes the request method conditional on
// §     the recipient origin server either having at least one current
// §     representation of the target resource, when the field-value is "*",
// §     or having a current representation of the target resource whose
// §     entity-tag matches a member of the list of entity-tags provided in
// §     the field-value.
// §
// §       If-Match = "*" / 1#entity-tag
// §
// §     If-Match is most often used with state-changing methods (e.g., POST,
// §     PUT, DELETE) to prevent accidental overwrites when multiple user
// §     agents might be acting in parallel on the same resource (i.e., to
// §     prevent the "lost update" problem).
// §
// §     An origin server MUST NOT perform the requested method if a received
// §     If-Match condition evaluates to false; instead, the origin server
// §     MUST respond with either a) the 412 (Precondition Failed) status
// §     code or b) one of the 2xx (Successful) status codes if the origin
// §     server has verified that a state change is being requested and the
// §     final state is already reflected in the current state of the target
// §     resource [...]

// IfHeader is the parsed value of an If-Match or If-None-Match field:
// absent, the wildcard, or a set of entity-tags as written by the client
// (duplicates collapsed, order irrelevant).
type IfHeader struct {
	Present  bool
	Wildcard bool
	ETags    []ETag
}

// ParseIfHeader parses the named conditional header field from h.
// Repeated field occurrences are joined with commas before parsing.
//
// An empty field value is treated as an absent header. This deviates from the
// RFC (which requires at least one entity-tag), and is kept deliberately for
// wire compatibility with clients that send the field empty.
func ParseIfHeader(h http.Header, name string) (IfHeader, *Failure) {
	values := h.Values(name)
	if len(values) == 0 {
		return IfHeader{}, nil
	}
	value := strings.Join(values, ",")
	if value == "" {
		return IfHeader{}, nil
	}
	if value == "*" {
		return IfHeader{Present: true, Wildcard: true}, nil
	}
	etags, ok := parseETagList(value)
	if !ok {
		return IfHeader{}, &Failure{
			Kind:   KindBadRequest,
			Header: name,
			Detail: fmt.Sprintf("syntax error in field value %q", value),
		}
	}
	return IfHeader{Present: true, ETags: etags}, nil
}

// parseETagList parses a comma-separated list of entity-tags, tolerating
// optional whitespace around the commas. The whole value must match; there
// is no best-effort recovery. Duplicate tags collapse.
func parseETagList(s string) ([]ETag, bool) {
	var etags []ETag
	i := 0
	for {
		i = skipOWS(s, i)
		etag, next, ok := scanETag(s, i)
		if !ok {
			return nil, false
		}
		if !contains(etags, etag) {
			etags = append(etags, etag)
		}
		i = skipOWS(s, next)
		if i == len(s) {
			return etags, true
		}
		if s[i] != ',' {
			return nil, false
		}
		i++
	}
}

// scanETag scans one entity-tag starting at position i.
func scanETag(s string, i int) (ETag, int, bool) {
	start := i
	if strings.HasPrefix(s[i:], weakPrefix) {
		i += len(weakPrefix)
	}
	if i >= len(s) || s[i] != '"' {
		return "", 0, false
	}
	i++
	opaqueStart := i
	for i < len(s) && s[i] != '"' {
		switch c := s[i]; {
		case c == 0x21, 0x23 <= c && c <= 0x7e, 0x80 <= c:
			i++
		default:
			return "", 0, false
		}
	}
	if i >= len(s) || i == opaqueStart {
		return "", 0, false
	}
	return ETag(s[start : i+1]), i + 1, true
}

func skipOWS(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// EvaluateIfMatch evaluates the If-Match precondition against the current
// state of the target resource. A nil return means the request may proceed
// as far as If-Match is concerned.
func EvaluateIfMatch(header http.Header, d Discriminator, opts Options) *Failure {
	parsed, failure := ParseIfHeader(header, IfMatch)
	if failure != nil {
		return failure
	}
	if !parsed.Present {
		if opts.RequireIfMatch {
			return &Failure{Kind: KindPreconditionRequired, Header: IfMatch}
		}
		return nil
	}
	if parsed.Wildcard {
		if opts.DenyIfMatchWildcard {
			return &Failure{
				Kind:   KindBadRequest,
				Header: IfMatch,
				Detail: "a specific entity-tag is required for this request",
			}
		}
		// §  If the field-value is "*", the condition is false if the origin
		// §  server does not have a current representation for the target
		// §  resource.
		if !d.exists() {
			return &Failure{Kind: KindPreconditionFailed, Header: IfMatch}
		}
		return nil
	}
	etag, ok := d.ETag()
	if !ok {
		// A concrete list can never match a resource that is absent or has
		// no entity-tag.
		var detail string
		if d.exists() {
			detail = "resource does not have an entity-tag"
		}
		return &Failure{Kind: KindPreconditionFailed, Header: IfMatch, Detail: detail}
	}
	if !Match(etag, parsed.ETags, opts.AllowWeak) {
		return &Failure{Kind: KindPreconditionFailed, Header: IfMatch}
	}
	return nil
}
