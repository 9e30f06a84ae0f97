// Package embedquery parses the `embed` query parameter of a hypermedia
// request into a tree of link relations to embed, and serializes such a
// tree back to its textual form.
//
// The directive grammar is:
//
//	directive := [ entry ( ',' entry )* ] [ ',' ]
//	entry     := identifier [ '(' directive ')' ]
//
// where identifiers match [A-Za-z_][A-Za-z0-9_]*. Leading, interior and
// trailing commas are tolerated at every nesting level, so lenient clients
// may send e.g. `foo(,bar,),`. The serializer never emits the tolerated
// forms; Parse(t.String()) returns t for every tree Parse can produce.
package embedquery

import (
	"fmt"
	"sort"
	"strings"
)

// Tree maps a link relation name to the relations to embed inside it.
// An empty subtree means "embed this relation, but don't descend further".
// A Tree is built once per request and read-only afterwards.
type Tree map[string]Tree

// Reason classifies a SyntaxError.
type Reason string

const (
	ReasonBadToken       Reason = "unrecognized input"
	ReasonUnexpectedOpen Reason = "unexpected opening parenthesis"
	ReasonUnmatchedClose Reason = "unmatched closing parenthesis"
	ReasonUnmatchedOpen  Reason = "unmatched opening parenthesis"
	ReasonDuplicate      Reason = "relation mentioned more than once"
	ReasonReserved       Reason = "reserved relation"
)

// SyntaxError describes why a directive was rejected. The whole directive is
// always rejected; Parse never returns a partial tree.
type SyntaxError struct {
	Reason Reason
	// At is the suffix of the directive starting at the offending input,
	// empty when the error has no meaningful position (unmatched open).
	At string
	// Relation is the offending relation name for duplicate and reserved
	// relation errors.
	Relation string
}

func (e *SyntaxError) Error() string {
	switch e.Reason {
	case ReasonBadToken:
		return fmt.Sprintf("syntax error in embed directive at %q", e.At)
	case ReasonUnexpectedOpen:
		return fmt.Sprintf("unexpected opening parenthesis in embed directive at %q", e.At)
	case ReasonUnmatchedClose:
		return fmt.Sprintf("unmatched closing parenthesis in embed directive at %q", e.At)
	case ReasonUnmatchedOpen:
		return "unmatched opening parenthesis in embed directive"
	case ReasonDuplicate:
		return fmt.Sprintf("link relation %q mentioned more than once in embed directive at %q", e.Relation, e.At)
	case ReasonReserved:
		return fmt.Sprintf("link relation %q can not be embedded", e.Relation)
	}
	return fmt.Sprintf("invalid embed directive at %q", e.At)
}

type token struct {
	text string // an identifier, "(" or ")"
	pos  int
}

// tokenize splits the directive into identifier and parenthesis tokens.
// A comma directly before an identifier or closing parenthesis is consumed
// with the token; a single trailing comma is consumed silently. Anything
// else between tokens is a syntax error.
func tokenize(s string) ([]token, *SyntaxError) {
	var tokens []token
	pos := 0
	for pos < len(s) {
		i := pos
		comma := false
		if s[i] == ',' {
			comma = true
			i++
		}
		switch {
		case i < len(s) && s[i] == ')':
			tokens = append(tokens, token{")", pos})
			pos = i + 1
		case !comma && s[i] == '(':
			tokens = append(tokens, token{"(", pos})
			pos = i + 1
		case i < len(s) && isIdentStart(s[i]):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			tokens = append(tokens, token{s[i:j], pos})
			pos = j
		case comma && i == len(s):
			// tolerated trailing comma
			pos = i
		default:
			return nil, &SyntaxError{Reason: ReasonBadToken, At: s[pos:]}
		}
	}
	return tokens, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

// Parse parses an embed directive. The input is the comma-joined value of
// all occurrences of the query parameter; an empty string yields an empty
// tree.
//
// Relation names are case-insensitive for the duplicate and reserved-name
// checks, but the tree keeps the spelling the client sent. The relation
// `self` names the document itself and can never be embedded.
func Parse(s string) (Tree, error) {
	result := Tree{}
	if s == "" {
		return result, nil
	}
	tokens, serr := tokenize(s)
	if serr != nil {
		return nil, serr
	}
	// One seen-set per open scope; parentheses push and pop. The stack being
	// deeper than one at end of input is the unmatched-open check.
	cursor := []Tree{result}
	seen := []map[string]bool{{}}
	var current string
	for _, tok := range tokens {
		rest := s[tok.pos:]
		switch tok.text {
		case "(":
			if current == "" {
				return nil, &SyntaxError{Reason: ReasonUnexpectedOpen, At: rest}
			}
			cursor = append(cursor, cursor[len(cursor)-1][current])
			seen = append(seen, map[string]bool{})
			current = ""
		case ")":
			if len(seen) == 1 {
				return nil, &SyntaxError{Reason: ReasonUnmatchedClose, At: rest}
			}
			cursor = cursor[:len(cursor)-1]
			seen = seen[:len(seen)-1]
			current = ""
		default:
			folded := strings.ToLower(tok.text)
			if folded == "self" {
				return nil, &SyntaxError{Reason: ReasonReserved, Relation: tok.text}
			}
			scope := seen[len(seen)-1]
			if scope[folded] {
				return nil, &SyntaxError{Reason: ReasonDuplicate, Relation: tok.text, At: rest}
			}
			scope[folded] = true
			current = tok.text
			cursor[len(cursor)-1][tok.text] = Tree{}
		}
	}
	if len(seen) > 1 {
		return nil, &SyntaxError{Reason: ReasonUnmatchedOpen}
	}
	return result, nil
}

// String serializes the tree to its canonical directive form: entries sorted
// by name, comma-joined, subtrees parenthesized, no tolerated commas.
func (t Tree) String() string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		part := name
		if sub := t[name]; len(sub) > 0 {
			part += "(" + sub.String() + ")"
		}
		parts[i] = part
	}
	return strings.Join(parts, ",")
}

// Depth returns the nesting depth of the tree: 0 for an empty tree, 1 for a
// flat list of relations, and so on. The grammar does not bound nesting;
// callers serving resource graphs should cap it.
func (t Tree) Depth() int {
	if len(t) == 0 {
		return 0
	}
	deepest := 0
	for _, sub := range t {
		if d := sub.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
