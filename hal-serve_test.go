package halserve

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hal-serve/hal-serve/rfc7232"
	"github.com/hal-serve/hal-serve/store"
)

func serve(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, r)
	return rr
}

func TestGetRendersDocument(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/things/1", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status is %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != ContentType {
		t.Fatalf("Content-Type is %s", ct)
	}
	if rr.Header().Get("ETag") == "" {
		t.Fatal("No ETag header")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if doc["name"] != "one" {
		t.Fatalf("Document is %v", doc)
	}
	if _, ok := doc["_links"]; !ok {
		t.Fatalf("Document is %v", doc)
	}
}

func TestGetUnknownResource(t *testing.T) {
	s, _ := testServer(t)
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/things/1", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestHeadOmitsBody(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})

	rr := serve(s, httptest.NewRequest(http.MethodHead, "/things/1", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status is %d", rr.Code)
	}
	if body, _ := io.ReadAll(rr.Result().Body); len(body) != 0 {
		t.Fatalf("Body is %s", body)
	}
}

func TestGetWithEmbed(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things", Attributes: map[string]interface{}{}})
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/things?embed=item", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Status is %d: %s", rr.Code, rr.Body)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Error: %v", err)
	}
	embedded, ok := doc["_embedded"].(map[string]interface{})
	if !ok {
		t.Fatalf("Document is %v", doc)
	}
	items := embedded["item"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Embedded items are %v", items)
	}
}

func TestGetWithMalformedEmbed(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things", Attributes: map[string]interface{}{}})

	for _, directive := range []string{"self", "foo,foo", "foo(", "(foo)", "bar)"} {
		rr := serve(s, httptest.NewRequest(http.MethodGet, "/things?embed="+directive, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("Status for %q is %d", directive, rr.Code)
		}
	}
}

func TestGetWithTooDeepEmbed(t *testing.T) {
	s := New(Config{Store: store.NewMemStore(), MaxEmbedDepth: 2})
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/things?embed=a(b(c))", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestGetRepeatedEmbedParametersAreJoined(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things", Attributes: map[string]interface{}{}})
	// two occurrences with the same relation collapse into one directive
	// with a duplicate, which must be rejected
	rr := serve(s, httptest.NewRequest(http.MethodGet, "/things?embed=item&embed=item", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestGetNotModified(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})
	entry, _, _ := db.Get("/things/1")

	r := httptest.NewRequest(http.MethodGet, "/things/1", nil)
	r.Header.Set(rfc7232.IfNoneMatch, string(entry.ETag))
	rr := serve(s, r)

	if rr.Code != http.StatusNotModified {
		t.Fatalf("Status is %d", rr.Code)
	}
	if got := rr.Header().Get("ETag"); got != string(entry.ETag) {
		t.Fatalf("ETag header is %q, want %q", got, entry.ETag)
	}
	if body, _ := io.ReadAll(rr.Result().Body); len(body) != 0 {
		t.Fatalf("Body is %s", body)
	}
}

func TestGetIfMatchMismatch(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})

	r := httptest.NewRequest(http.MethodGet, "/things/1", nil)
	r.Header.Set(rfc7232.IfMatch, `"xyz999"`)
	rr := serve(s, r)

	if rr.Code != http.StatusPreconditionFailed {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestPutCreatesResource(t *testing.T) {
	s, db := testServer(t)

	r := httptest.NewRequest(http.MethodPut, "/things/1", strings.NewReader(`{"name":"one"}`))
	r.Header.Set(rfc7232.IfNoneMatch, "*")
	rr := serve(s, r)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Status is %d: %s", rr.Code, rr.Body)
	}
	if rr.Header().Get("ETag") == "" {
		t.Fatal("No ETag header")
	}
	entry, ok, _ := db.Get("/things/1")
	if !ok || entry.Attributes["name"] != "one" {
		t.Fatalf("Stored entry is %+v, ok %v", entry, ok)
	}
}

func TestPutCreationDeniedWhenResourceExists(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})

	r := httptest.NewRequest(http.MethodPut, "/things/1", strings.NewReader(`{"name":"two"}`))
	r.Header.Set(rfc7232.IfNoneMatch, "*")
	rr := serve(s, r)

	if rr.Code != http.StatusPreconditionFailed {
		t.Fatalf("Status is %d", rr.Code)
	}
	entry, _, _ := db.Get("/things/1")
	if entry.Attributes["name"] != "one" {
		t.Fatal("Resource was overwritten")
	}
}

func TestPutUpdateWithMatchingIfMatch(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})
	entry, _, _ := db.Get("/things/1")

	r := httptest.NewRequest(http.MethodPut, "/things/1", strings.NewReader(`{"name":"two"}`))
	r.Header.Set(rfc7232.IfMatch, string(entry.ETag))
	rr := serve(s, r)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Status is %d: %s", rr.Code, rr.Body)
	}
	updated, _, _ := db.Get("/things/1")
	if updated.Attributes["name"] != "two" {
		t.Fatalf("Stored entry is %+v", updated)
	}
}

func TestPutLostUpdatePrevented(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})

	r := httptest.NewRequest(http.MethodPut, "/things/1", strings.NewReader(`{"name":"two"}`))
	r.Header.Set(rfc7232.IfMatch, `"stale-etag"`)
	rr := serve(s, r)

	if rr.Code != http.StatusPreconditionFailed {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestPutRequiresIfMatchWhenConfigured(t *testing.T) {
	db := store.NewMemStore()
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})
	s := New(Config{Store: db, Mutations: rfc7232.Options{RequireIfMatch: true}})

	rr := serve(s, httptest.NewRequest(http.MethodPut, "/things/1", strings.NewReader(`{}`)))

	if rr.Code != http.StatusPreconditionRequired {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestPutRejectsBadBody(t *testing.T) {
	s, _ := testServer(t)
	rr := serve(s, httptest.NewRequest(http.MethodPut, "/things/1", strings.NewReader("not json")))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestPostCreatesCollectionItem(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things", Attributes: map[string]interface{}{}})

	rr := serve(s, httptest.NewRequest(http.MethodPost, "/things", strings.NewReader(`{"name":"new"}`)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("Status is %d: %s", rr.Code, rr.Body)
	}
	location := rr.Header().Get("Location")
	if !strings.HasPrefix(location, "/things/") {
		t.Fatalf("Location is %s", location)
	}
	entry, ok, _ := db.Get(location)
	if !ok || entry.Attributes["name"] != "new" {
		t.Fatalf("Stored entry is %+v, ok %v", entry, ok)
	}
}

func TestDeleteWithPreconditions(t *testing.T) {
	s, db := testServer(t)
	db.Put(store.Entry{Path: "/things/1", Attributes: map[string]interface{}{"name": "one"}})
	entry, _, _ := db.Get("/things/1")

	r := httptest.NewRequest(http.MethodDelete, "/things/1", nil)
	r.Header.Set(rfc7232.IfMatch, string(entry.ETag))
	rr := serve(s, r)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Status is %d", rr.Code)
	}
	if _, ok, _ := db.Get("/things/1"); ok {
		t.Fatal("Resource still present")
	}
}

func TestDeleteUnknownResource(t *testing.T) {
	s, _ := testServer(t)
	rr := serve(s, httptest.NewRequest(http.MethodDelete, "/things/1", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Status is %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := testServer(t)
	rr := serve(s, httptest.NewRequest(http.MethodPatch, "/things/1", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Status is %d", rr.Code)
	}
}
