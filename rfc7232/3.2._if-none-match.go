package rfc7232

import "net/http"

// §  3.2.  If-None-Match
// §
// §     The "If-None-Match" header field makes the request method conditional
// §     on a recipient cache or origin server either not having any current
// §     representation of the target resource, when the field-value is "*",
// §     or having a selected representation with an entity-tag that does not
// §     match any of those listed in the field-value.
// §
// §       If-None-Match = "*" / 1#entity-tag
// §
// §     If-None-Match is primarily used in conditional GET requests to enable
// §     efficient updates of cached information with a minimum amount of
// §     transaction overhead.
// §
// §     If-None-Match can also be used with a value of "*" to prevent an
// §     unsafe request method (e.g., PUT) from inadvertently modifying an
// §     existing representation of the target resource when the client
// §     believes that the resource does not have a current representation
// §     [...]
// §
// §     An origin server MUST NOT perform the requested method if the
// §     condition evaluates to false; instead, the origin server MUST respond
// §     with either a) the 304 (Not Modified) status code if the request
// §     method is GET or HEAD or b) the 412 (Precondition Failed) status code
// §     for all other request methods.

// EvaluateIfNoneMatch evaluates the If-None-Match precondition against the
// current state of the target resource. A nil return means the request may
// proceed as far as If-None-Match is concerned.
//
// When the condition evaluates to false, the outcome depends on method
// safety: not-modified for GET and HEAD, precondition-failed for everything
// else.
func EvaluateIfNoneMatch(method string, header http.Header, d Discriminator, opts Options) *Failure {
	parsed, failure := ParseIfHeader(header, IfNoneMatch)
	if failure != nil {
		return failure
	}
	if !parsed.Present {
		if opts.RequireIfNoneMatch {
			return &Failure{Kind: KindPreconditionRequired, Header: IfNoneMatch}
		}
		return nil
	}
	if !d.exists() {
		// Nothing to conflict with; this is the creation scenario for
		// "If-None-Match: *" on PUT.
		return nil
	}
	if parsed.Wildcard {
		return &Failure{Kind: KindPreconditionFailed, Header: IfNoneMatch}
	}
	etag, ok := d.ETag()
	if !ok {
		// The resource exists but has no entity-tag, so a non-match can
		// never be proven.
		return &Failure{
			Kind:   KindPreconditionFailed,
			Header: IfNoneMatch,
			Detail: "resource does not have an entity-tag",
		}
	}
	if Match(etag, parsed.ETags, opts.AllowWeak) {
		if method == http.MethodGet || method == http.MethodHead {
			return &Failure{Kind: KindNotModified, Header: IfNoneMatch}
		}
		return &Failure{Kind: KindPreconditionFailed, Header: IfNoneMatch}
	}
	return nil
}
