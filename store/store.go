// Package store holds the resources served as hypermedia documents.
// It provides an in-memory implementation for tests and small deployments,
// and a SQLite-backed one for persistence.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	etaggen "github.com/hal-serve/hal-serve/pkg/etag-gen"
	"github.com/hal-serve/hal-serve/rfc7232"
)

// Entry is one stored resource, addressed by its URL path.
type Entry struct {
	Path       string
	Attributes map[string]interface{}
	// ETag is the current entity-tag of the resource. Put computes it from
	// the attributes when left empty.
	ETag rfc7232.ETag
}

// ResourceProvider is storage for resources.
//
// Implementations must be thread-safe!
type ResourceProvider interface {
	// Get returns the resource stored under path, if it exists.
	// It also returns a boolean indicating whether the resource exists.
	Get(path string) (Entry, bool, error)
	// Put stores the entry under entry.Path, replacing any previous version.
	Put(entry Entry) error
	// Delete removes the resource under path. Deleting an absent resource
	// is not an error.
	Delete(path string) error
	// Children returns the paths of the resources directly below path,
	// sorted. It is used for building `item` links of collections.
	Children(path string) ([]string, error)
}

// Tag computes the entity-tag for an entry from its attributes.
func Tag(e Entry) rfc7232.ETag {
	return etaggen.NewGenerator(e.Attributes).ETag(false)
}

// NewItemPath returns a fresh path for a resource created inside the given
// collection.
func NewItemPath(collection string) string {
	return strings.TrimSuffix(collection, "/") + "/" + uuid.NewString()
}

// Discriminate derives the conditional-request discriminator for path from
// current storage state. It must be called once per evaluation; the result
// reflects a single point in time and is never cached.
func Discriminate(p ResourceProvider, path string) (rfc7232.Discriminator, error) {
	entry, ok, err := p.Get(path)
	if err != nil {
		return rfc7232.Discriminator{}, err
	}
	if !ok {
		// stored resources carry entity-tags as soon as they exist
		return rfc7232.AbsentETagCapable(), nil
	}
	if entry.ETag == "" || !entry.ETag.Valid() {
		// a hand-edited etag column must not break request handling;
		// evaluate as if the resource carried no entity-tag
		return rfc7232.ExistsWithoutETag(), nil
	}
	return rfc7232.Exists(entry.ETag), nil
}

// isDirectChild reports whether path is exactly one segment below parent.
func isDirectChild(parent, path string) bool {
	prefix := strings.TrimSuffix(parent, "/") + "/"
	if !strings.HasPrefix(path, prefix) || path == prefix {
		return false
	}
	return !strings.Contains(path[len(prefix):], "/")
}

type MemStore struct {
	mutex *sync.RWMutex
	db    map[string]Entry
}

func NewMemStore() MemStore {
	return MemStore{
		mutex: &sync.RWMutex{},
		db:    make(map[string]Entry),
	}
}

func (m MemStore) Get(path string) (Entry, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[path]
	return entry, ok, nil
}

func (m MemStore) Put(entry Entry) error {
	if entry.ETag == "" {
		entry.ETag = Tag(entry)
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[entry.Path] = entry
	return nil
}

func (m MemStore) Delete(path string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.db, path)
	return nil
}

func (m MemStore) Children(path string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var children []string
	for candidate := range m.db {
		if isDirectChild(path, candidate) {
			children = append(children, candidate)
		}
	}
	sort.Strings(children)
	return children, nil
}
