package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	halserve "github.com/hal-serve/hal-serve"
	"github.com/hal-serve/hal-serve/rfc7232"
	"github.com/hal-serve/hal-serve/store"
)

var (
	// CLI flags
	portFlag           int
	dbFilenameFlag     string
	seedFilenameFlag   string
	maxEmbedDepthFlag  int
	requireIfMatchFlag bool
	denyWildcardFlag   bool
	allowWeakFlag      bool
	verbosityTraceFlag bool
)

func init() {
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&dbFilenameFlag, "db", "resources.db", "Resource DB file name (use 'memory' for in-memory db)")
	flag.StringVar(&seedFilenameFlag, "seed", "", "Path to YAML seed file")
	flag.IntVar(&maxEmbedDepthFlag, "max-embed-depth", 0, "Maximum embed directive nesting (0 for default)")
	flag.BoolVar(&requireIfMatchFlag, "require-if-match", false, "Require If-Match on state-changing requests")
	flag.BoolVar(&denyWildcardFlag, "deny-if-match-wildcard", false, "Reject 'If-Match: *', forcing concrete ETags")
	flag.BoolVar(&allowWeakFlag, "allow-weak", false, "Use weak ETag comparison")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
}

func main() {
	flag.Parse()

	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}
	log.Logger = log.Level(logLevel).Output(zerolog.ConsoleWriter{Out: os.Stdout})

	var provider store.ResourceProvider
	if dbFilenameFlag == "memory" {
		provider = store.NewMemStore()
	} else {
		provider = store.NewSQLiteStore(dbFilenameFlag)
	}

	if seedFilenameFlag != "" {
		seed, err := halserve.LoadSeed(seedFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not read seed file")
		}
		if err := halserve.ApplySeed(provider, seed); err != nil {
			log.Fatal().Err(err).Msg("Could not seed resources")
		}
		log.Info().Int("resources", len(seed.Resources)).Msg("Seeded resources")
	}

	server := halserve.New(halserve.Config{
		Store:         provider,
		Logger:        &log.Logger,
		MaxEmbedDepth: maxEmbedDepthFlag,
		Reads: rfc7232.Options{
			AllowWeak: allowWeakFlag,
		},
		Mutations: rfc7232.Options{
			RequireIfMatch:      requireIfMatchFlag,
			DenyIfMatchWildcard: denyWildcardFlag,
			AllowWeak:           allowWeakFlag,
		},
	})

	router := chi.NewRouter()
	router.Handle("/*", server)

	addr := fmt.Sprintf(":%d", portFlag)
	log.Info().Msgf("Listening on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}
