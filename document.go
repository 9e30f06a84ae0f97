package halserve

import (
	"net/url"
	"strings"

	embedquery "github.com/hal-serve/hal-serve/pkg/embed-query"
	"github.com/hal-serve/hal-serve/rfc7232"
)

// ContentType is the media type of the documents this package produces.
const ContentType = "application/hal+json; charset=utf-8"

// Link is a HAL link object.
type Link struct {
	Href  string `json:"href"`
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
}

// Resource is one node of the served resource graph: its attributes, its
// current entity-tag (empty if it has none) and its outgoing link relations.
type Resource struct {
	Href       string
	Attributes map[string]interface{}
	ETag       rfc7232.ETag
	// Links maps each outgoing link relation to the paths it points to.
	// The reserved relation `self` is always derived from Href.
	Links map[string][]string
}

// document renders the resource as a HAL+JSON document.
//
// The embed tree decides for each link relation whether its targets are
// inlined under `_embedded` (recursing with the relation's subtree) or
// referenced under `_links`. Reserved key naming follows the HAL convention:
// `_links`, `_embedded` and `_etag`. `_embedded` is omitted when nothing is
// embedded; a `self` link is always present.
func (s *Server) document(res *Resource, embed embedquery.Tree) map[string]interface{} {
	doc := make(map[string]interface{}, len(res.Attributes)+3)
	for key, value := range res.Attributes {
		doc[key] = value
	}
	if res.ETag != "" {
		doc["_etag"] = string(res.ETag)
	}

	// the self link reproduces the embed directive this document was
	// rendered with, so the document stays fetchable as-is
	links := map[string]interface{}{
		"self": Link{Href: withEmbed(res.Href, embed)},
	}
	embedded := map[string]interface{}{}

	for rel, targets := range res.Links {
		if strings.EqualFold(rel, "self") {
			continue
		}
		sub, inline := subtree(embed, rel)
		if !inline {
			links[rel] = linkObjects(rel, targets)
			continue
		}
		docs := make([]interface{}, 0, len(targets))
		for _, target := range targets {
			child, err := s.resolve(target)
			if err != nil {
				s.log.Error().Err(err).Str("path", target).Msg("Could not resolve linked resource")
				continue
			}
			if child == nil {
				s.log.Warn().Str("path", target).Str("rel", rel).Msg("Dangling link")
				continue
			}
			docs = append(docs, s.document(child, sub))
		}
		if single, ok := singular(rel, docs); ok {
			embedded[rel] = single
		} else {
			embedded[rel] = docs
		}
	}

	doc["_links"] = links
	if len(embedded) > 0 {
		doc["_embedded"] = embedded
	}
	return doc
}

// linkObjects builds the `_links` value for one relation. A relation with a
// single target renders as one link object, multi-valued relations (and the
// conventionally plural `item`) as an array.
func linkObjects(rel string, targets []string) interface{} {
	objects := make([]interface{}, 0, len(targets))
	for _, target := range targets {
		objects = append(objects, Link{Href: target})
	}
	if single, ok := singular(rel, objects); ok {
		return single
	}
	return objects
}

// singular reports whether the relation's value should collapse to a single
// object instead of an array.
func singular(rel string, values []interface{}) (interface{}, bool) {
	if len(values) == 1 && !strings.EqualFold(rel, "item") {
		return values[0], true
	}
	return nil, false
}

// withEmbed attaches the embed directive for a linked resource to its URL,
// so following the link yields the sub-document the client asked for.
func withEmbed(href string, sub embedquery.Tree) string {
	if len(sub) == 0 {
		return href
	}
	return href + "?embed=" + url.QueryEscape(sub.String())
}

// subtree looks up the relation in the embed tree, folding case the same way
// the parser does.
func subtree(embed embedquery.Tree, rel string) (embedquery.Tree, bool) {
	for name, sub := range embed {
		if strings.EqualFold(name, rel) {
			return sub, true
		}
	}
	return nil, false
}
