// Package halserve serves stored resources as HAL+JSON documents with full
// support for conditional requests (RFC 7232) and the `embed` query
// parameter for inlining linked sub-resources.
package halserve

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	embedquery "github.com/hal-serve/hal-serve/pkg/embed-query"
	"github.com/hal-serve/hal-serve/rfc7232"
	"github.com/hal-serve/hal-serve/store"
)

// DefaultMaxEmbedDepth bounds embed directive nesting when the config does
// not say otherwise. The grammar itself is unbounded; the cap keeps graph
// traversal cost proportional to what the server is willing to do.
const DefaultMaxEmbedDepth = 10

type Config struct {
	// Storage for the resources to serve.
	Store store.ResourceProvider
	// Logger to use. A default console logger is used if nil.
	Logger *zerolog.Logger
	// MaxEmbedDepth caps embed directive nesting; directives nested deeper
	// are rejected as bad requests. Zero means DefaultMaxEmbedDepth.
	MaxEmbedDepth int
	// Reads configures precondition evaluation for GET and HEAD.
	Reads rfc7232.Options
	// Mutations configures precondition evaluation for PUT, POST and DELETE.
	// Set e.g. RequireIfMatch to force clients to do optimistic locking.
	Mutations rfc7232.Options
}

type Server struct {
	store         store.ResourceProvider
	log           zerolog.Logger
	maxEmbedDepth int
	reads         rfc7232.Options
	mutations     rfc7232.Options
}

// New initializes a resource server for the given config.
func New(config Config) *Server {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}
	maxDepth := config.MaxEmbedDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxEmbedDepth
	}
	return &Server{
		store:         config.Store,
		log:           logger,
		maxEmbedDepth: maxDepth,
		reads:         config.Reads,
		mutations:     config.Mutations,
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := s.log.With().Str("method", r.Method).Str("path", r.URL.Path).Logger()
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.serveDocument(w, r, log)
	case http.MethodPut:
		s.put(w, r, log)
	case http.MethodPost:
		s.post(w, r, log)
	case http.MethodDelete:
		s.delete(w, r, log)
	default:
		w.Header().Set("Allow", "GET, HEAD, PUT, POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, log zerolog.Logger) {
	embed, ok := s.parseEmbed(w, r, log)
	if !ok {
		return
	}
	if !s.checkPreconditions(w, r, s.reads, log) {
		return
	}
	res, err := s.resolve(r.URL.Path)
	if err != nil {
		log.Error().Err(err).Msg("Could not load resource")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if res == nil {
		http.Error(w, "no such resource", http.StatusNotFound)
		return
	}
	doc := s.document(res, embed)
	w.Header().Set("Content-Type", ContentType)
	if res.ETag != "" {
		w.Header().Set("ETag", string(res.ETag))
	}
	if r.Method == http.MethodHead {
		return
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		log.Error().Err(err).Msg("Could not encode document")
	}
}

func (s *Server) put(w http.ResponseWriter, r *http.Request, log zerolog.Logger) {
	existed, ok := s.checkMutationPreconditions(w, r, log)
	if !ok {
		return
	}
	attributes, ok := s.decodeAttributes(w, r, log)
	if !ok {
		return
	}
	entry := store.Entry{Path: r.URL.Path, Attributes: attributes}
	if err := s.store.Put(entry); err != nil {
		log.Error().Err(err).Msg("Could not store resource")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	s.writeStoredETag(w, r.URL.Path, log)
	if existed {
		w.WriteHeader(http.StatusNoContent)
	} else {
		log.Debug().Msg("Resource created")
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *Server) post(w http.ResponseWriter, r *http.Request, log zerolog.Logger) {
	if _, ok := s.checkMutationPreconditions(w, r, log); !ok {
		return
	}
	attributes, ok := s.decodeAttributes(w, r, log)
	if !ok {
		return
	}
	path := store.NewItemPath(r.URL.Path)
	if err := s.store.Put(store.Entry{Path: path, Attributes: attributes}); err != nil {
		log.Error().Err(err).Msg("Could not store resource")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	s.writeStoredETag(w, path, log)
	w.Header().Set("Location", path)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, log zerolog.Logger) {
	existed, ok := s.checkMutationPreconditions(w, r, log)
	if !ok {
		return
	}
	if !existed {
		http.Error(w, "no such resource", http.StatusNotFound)
		return
	}
	if err := s.store.Delete(r.URL.Path); err != nil {
		log.Error().Err(err).Msg("Could not delete resource")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseEmbed parses and depth-checks the embed directive of the request,
// joining repeated query parameter occurrences with commas. It writes the
// error response itself and reports success in the second return value.
func (s *Server) parseEmbed(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (embedquery.Tree, bool) {
	directive := strings.Join(r.URL.Query()["embed"], ",")
	embed, err := embedquery.Parse(directive)
	if err != nil {
		log.Debug().Err(err).Msg("Invalid embed directive")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if depth := embed.Depth(); depth > s.maxEmbedDepth {
		log.Debug().Int("depth", depth).Msg("Embed directive too deep")
		http.Error(w, "embed directive nested too deep", http.StatusBadRequest)
		return nil, false
	}
	return embed, true
}

// checkPreconditions evaluates the conditional headers of the request
// against current storage state. It writes the failure response itself and
// reports whether the request may proceed.
func (s *Server) checkPreconditions(w http.ResponseWriter, r *http.Request, opts rfc7232.Options, log zerolog.Logger) bool {
	d, err := store.Discriminate(s.store, r.URL.Path)
	if err != nil {
		log.Error().Err(err).Msg("Could not determine resource state")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return false
	}
	failure := rfc7232.Evaluate(r.Method, r.Header, d, opts)
	if failure == nil {
		return true
	}
	log.Debug().Str("outcome", string(failure.Kind)).Msg("Precondition not met")
	if failure.Kind == rfc7232.KindNotModified {
		// §4.1: the 304 carries the current validator so caches can update
		// their stored response
		if etag, ok := d.ETag(); ok {
			w.Header().Set("ETag", string(etag))
		}
		w.WriteHeader(http.StatusNotModified)
		return false
	}
	http.Error(w, failure.Error(), failure.StatusCode())
	return false
}

// checkMutationPreconditions is checkPreconditions for state-changing
// methods; it additionally reports whether the resource existed at
// evaluation time.
func (s *Server) checkMutationPreconditions(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (existed bool, ok bool) {
	_, existed, err := s.store.Get(r.URL.Path)
	if err != nil {
		log.Error().Err(err).Msg("Could not determine resource state")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return false, false
	}
	return existed, s.checkPreconditions(w, r, s.mutations, log)
}

func (s *Server) decodeAttributes(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (map[string]interface{}, bool) {
	var attributes map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&attributes); err != nil {
		log.Debug().Err(err).Msg("Invalid request body")
		http.Error(w, "request body must be a JSON object", http.StatusBadRequest)
		return nil, false
	}
	return attributes, true
}

// writeStoredETag exposes the entity-tag computed during Put, so clients can
// do conditional requests right away.
func (s *Server) writeStoredETag(w http.ResponseWriter, path string, log zerolog.Logger) {
	entry, ok, err := s.store.Get(path)
	if err != nil || !ok {
		log.Warn().Err(err).Msg("Could not read back stored resource")
		return
	}
	if entry.ETag != "" {
		w.Header().Set("ETag", string(entry.ETag))
	}
}

// resolve loads the resource graph node for a path: its stored entry plus
// the `item` links to its direct children. It returns nil for an absent
// resource.
func (s *Server) resolve(path string) (*Resource, error) {
	entry, ok, err := s.store.Get(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	children, err := s.store.Children(path)
	if err != nil {
		return nil, err
	}
	res := &Resource{
		Href:       path,
		Attributes: entry.Attributes,
		ETag:       entry.ETag,
	}
	if len(children) > 0 {
		res.Links = map[string][]string{"item": children}
	}
	return res, nil
}
