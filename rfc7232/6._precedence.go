package rfc7232

import "net/http"

// §  6.  Precedence
// §
// §     When more than one conditional request header field is present in a
// §     request, the order in which the fields are evaluated becomes
// §     important.  In practice, the fields defined in this document are
// §     consistently implemented in a single, logical order, since "lost
// §     update" preconditions have more strict requirements than cache
// §     validation, a validated cache is more efficient than a partial
// §     response, and entity tags are presumed to be more accurate than date
// §     validators.
// §
// §     [...]
// §
// §     1.  When recipient is the origin server and If-Match is present,
// §         evaluate the If-Match precondition:
// §
// §         *  if true, continue to step 3
// §
// §         *  if false, respond 412 (Precondition Failed) [...]
// §
// §     3.  When If-None-Match is present, evaluate the If-None-Match
// §         precondition:
// §
// §         *  if true, continue to step 5
// §
// §         *  if false for GET/HEAD, respond 304 (Not Modified)
// §
// §         *  if false for other methods, respond 412 (Precondition Failed)

// Evaluate runs both preconditions against the same discriminator, If-Match
// first (its failures take precedence). It returns nil when the request may
// proceed. The discriminator is evaluated once per request and must reflect
// current resource state; never reuse it across requests.
func Evaluate(method string, header http.Header, d Discriminator, opts Options) *Failure {
	if failure := EvaluateIfMatch(header, d, opts); failure != nil {
		return failure
	}
	return EvaluateIfNoneMatch(method, header, d, opts)
}
