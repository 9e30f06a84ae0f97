package rfc7232

// §  Internet Engineering Task Force (IETF)                  R. Fielding, Ed.
// §  Request for Comments: 7232                                         Adobe
// §  Obsoletes: 2616                                         J. Reschke, Ed.
// §  Category: Standards Track                                     greenbytes
// §  ISSN: 2070-1721                                               June 2014
// §
// §       Hypertext Transfer Protocol (HTTP/1.1): Conditional Requests
// §
// §  Abstract
// §
// §     The Hypertext Transfer Protocol (HTTP) is a stateless application-
// §     level protocol for distributed, collaborative, hypertext information
// §     systems.  This document defines HTTP/1.1 conditional requests,
// §     including metadata header fields for indicating state changes,
// §     request header fields for making preconditions on such state, and
// §     rules for constructing the responses to a conditional request when
// §     one or more preconditions evaluate to false.
// §
// §  1.  Introduction
// §
// §     Conditional requests are HTTP requests [RFC7231] that include one or
// §     more header fields indicating a precondition to be tested before
// §     applying the method semantics to the target resource.  This document
// §     defines the HTTP/1.1 conditional request mechanisms in terms of the
// §     architecture, syntax notation, and conformance criteria defined in
// §     [RFC7230].
// §
// §     Conditional GET requests are the most efficient mechanism for HTTP
// §     cache updates [RFC7234].  Conditionals can also be applied to state-
// §     changing methods, such as PUT and DELETE, to prevent the "lost
// §     update" problem: one client accidentally overwriting the work of
// §     another client that has been acting in parallel.
