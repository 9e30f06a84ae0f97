// Package rfc7232 implements conditional request evaluation based on entity
// tags, as defined by RFC 7232. It covers the If-Match and If-None-Match
// preconditions; Last-Modified based conditionals are not implemented.
//
// The evaluation functions are pure: they read the request method and header
// fields, compare against the current state of the target resource (described
// by a Discriminator), and report the outcome as a *Failure. They never
// perform I/O.
package rfc7232

import (
	"fmt"
	"net/http"
)

// Conditional header field names handled by this package.
const (
	IfMatch     = "If-Match"
	IfNoneMatch = "If-None-Match"
)

// FailureKind names a non-continuation outcome of precondition evaluation.
type FailureKind string

const (
	// KindBadRequest: the field value is malformed, or a policy demanded a
	// concrete entity-tag and the client sent the wildcard.
	KindBadRequest FailureKind = "bad-request"
	// KindPreconditionRequired: a required conditional header is missing.
	KindPreconditionRequired FailureKind = "precondition-required"
	// KindPreconditionFailed: the precondition evaluated to false.
	KindPreconditionFailed FailureKind = "precondition-failed"
	// KindNotModified: If-None-Match evaluated to false on a safe method,
	// so the stored representation is still fresh for the client.
	KindNotModified FailureKind = "not-modified"
)

// Failure is the outcome of a precondition that did not pass.
// A nil *Failure from the evaluation functions means the request may proceed.
type Failure struct {
	Kind FailureKind
	// Header is the conditional header field the outcome relates to.
	Header string
	// Detail optionally explains the failure; it is safe to show to clients.
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", f.Kind, f.Header, f.Detail)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Header)
}

// StatusCode maps the failure to the HTTP status code a server should send.
// Note that 428 (Precondition Required) is defined in RFC 6585, not here.
func (f *Failure) StatusCode() int {
	switch f.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindPreconditionRequired:
		return http.StatusPreconditionRequired
	case KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case KindNotModified:
		return http.StatusNotModified
	}
	panic(fmt.Sprintf("rfc7232: unknown failure kind %q", f.Kind))
}

// Discriminator describes the existence and entity-tag support of the target
// resource at the time of evaluation. It is a four-valued type; construct
// values with Exists, ExistsWithoutETag, Absent or AbsentETagCapable. The
// zero value is invalid, and passing it to the evaluator is a defect in the
// calling code: the evaluator panics rather than guess.
type Discriminator struct {
	kind discriminatorKind
	etag ETag
}

type discriminatorKind int

const (
	discInvalid discriminatorKind = iota
	discExists
	discExistsNoETag
	discAbsent
	discAbsentETagCapable
)

// Exists denotes a resource that exists and currently has the given
// entity-tag. The tag must be well formed (see ETag.Valid).
func Exists(etag ETag) Discriminator {
	if !etag.Valid() {
		panic(fmt.Sprintf("rfc7232: malformed entity-tag %q", etag))
	}
	return Discriminator{kind: discExists, etag: etag}
}

// ExistsWithoutETag denotes a resource that exists but has no specific
// entity-tag. Only presence/absence preconditions can be evaluated against it.
func ExistsWithoutETag() Discriminator {
	return Discriminator{kind: discExistsNoETag}
}

// Absent denotes a resource that does not exist; entity-tags do not apply.
func Absent() Discriminator {
	return Discriminator{kind: discAbsent}
}

// AbsentETagCapable denotes a resource that does not exist but would carry
// entity-tags if it did.
func AbsentETagCapable() Discriminator {
	return Discriminator{kind: discAbsentETagCapable}
}

// ETag returns the current entity-tag, and whether the discriminator
// carries one.
func (d Discriminator) ETag() (ETag, bool) {
	return d.etag, d.kind == discExists
}

// exists reports whether the resource currently exists.
func (d Discriminator) exists() bool {
	switch d.kind {
	case discExists, discExistsNoETag:
		return true
	case discAbsent, discAbsentETagCapable:
		return false
	}
	panic("rfc7232: uninitialized discriminator")
}

// Options configures precondition evaluation for one request.
type Options struct {
	// RequireIfMatch makes a missing If-Match header a
	// precondition-required failure.
	RequireIfMatch bool
	// DenyIfMatchWildcard rejects "If-Match: *" with a bad-request failure,
	// forcing the client to present a specific entity-tag.
	DenyIfMatchWildcard bool
	// RequireIfNoneMatch makes a missing If-None-Match header a
	// precondition-required failure.
	RequireIfNoneMatch bool
	// AllowWeak selects the weak comparison function of Section 2.3.2.
	// When false, strong comparison is used.
	AllowWeak bool
}
