// Command prebrief-resolve resolves meeting attendees to person records.
//
// Single mode resolves one attendee from flags:
//
//	prebrief-resolve -email sara.chen@acme.com -name "Sara Chen"
//
// Batch mode reads one JSON attendee per line from stdin and writes one JSON
// result per line to stdout:
//
//	prebrief-resolve -batch < attendees.jsonl
//
// All logging goes to stderr; stdout carries only JSON results.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/prebriefhq/prebrief/internal/config"
	"github.com/prebriefhq/prebrief/internal/engine"
	"github.com/prebriefhq/prebrief/internal/scoring"
	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/internal/storage/failover"
	"github.com/prebriefhq/prebrief/internal/storage/memory"
	"github.com/prebriefhq/prebrief/internal/storage/postgres"
	"github.com/prebriefhq/prebrief/internal/storage/sqlite"
	"github.com/prebriefhq/prebrief/pkg/types"
)

var (
	email          = flag.String("email", "", "Attendee email address (single mode)")
	name           = flag.String("name", "", "Attendee display name (single mode, optional)")
	batch          = flag.Bool("batch", false, "Read JSON attendees from stdin, one per line")
	engineFlag     = flag.String("engine", "", "Storage engine: sqlite, postgres, memory (overrides config)")
	dataPath       = flag.String("data", "", "Data directory for SQLite (overrides config)")
	internalDomain = flag.String("internal-domain", "", "Internal company domain marker (overrides config)")
	threshold      = flag.Float64("threshold", 0, "Fuzzy match threshold for person resolution (overrides config)")
	concurrency    = flag.Int("concurrency", 0, "Concurrent resolutions in batch mode (overrides config)")
	rateLimit      = flag.Float64("rate", 0, "Maximum resolutions per second in batch mode, 0 for unlimited")
	pretty         = flag.Bool("pretty", false, "Indent JSON output")
)

// result is the JSON output shape for one resolved attendee.
type result struct {
	Email            string                  `json:"email"`
	DisplayName      string                  `json:"display_name,omitempty"`
	Person           *types.Person           `json:"person,omitempty"`
	Confidence       float64                 `json:"confidence"`
	Method           types.ResolutionMethod  `json:"method"`
	CreatedNewEntity bool                    `json:"created_new_entity,omitempty"`
	Report           *types.ConfidenceReport `json:"report,omitempty"`
	Error            string                  `json:"error,omitempty"`
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlagOverrides(cfg)

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open profile store: %v", err)
	}
	defer store.Close()

	scorer := scoring.NewScorerWithWeights(cfg.Scoring.Weights)
	resolver := engine.NewResolver(store, scorer, engine.Config{
		MatchThreshold:       cfg.Resolution.PersonThreshold,
		InternalDomainMarker: cfg.Resolution.InternalDomainMarker,
		PersonalDomains:      personalDomains(cfg),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *batch {
		if err := runBatch(ctx, resolver, cfg); err != nil {
			log.Fatalf("Batch resolution failed: %v", err)
		}
		return
	}

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	resolution, err := resolver.ResolveAttendee(ctx, *email, *name)
	if err != nil {
		log.Fatalf("Resolution failed: %v", err)
	}
	if err := writeResult(os.Stdout, toResult(engine.Attendee{Email: *email, DisplayName: *name}, resolution, nil)); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
}

// applyFlagOverrides layers command-line flags over the environment config.
func applyFlagOverrides(cfg *config.Config) {
	if *engineFlag != "" {
		cfg.Storage.StorageEngine = *engineFlag
	}
	if *dataPath != "" {
		cfg.Storage.DataPath = *dataPath
	}
	if *internalDomain != "" {
		cfg.Resolution.InternalDomainMarker = *internalDomain
	}
	if *threshold > 0 {
		cfg.Resolution.PersonThreshold = *threshold
	}
	if *concurrency > 0 {
		cfg.Batch.Concurrency = *concurrency
	}
	if *rateLimit > 0 {
		cfg.Batch.RateLimit = *rateLimit
	}
}

// buildStore opens the configured storage engine, wrapping it with the
// in-memory failover decorator unless disabled.
func buildStore(cfg *config.Config) (storage.ProfileStore, error) {
	var primary storage.ProfileStore
	var err error

	switch cfg.Storage.StorageEngine {
	case "memory":
		return memory.NewStore(), nil
	case "sqlite":
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		primary, err = sqlite.NewProfileStore(filepath.Join(cfg.Storage.DataPath, "prebrief.db"))
	case "postgres":
		primary, err = postgres.NewProfileStore(cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.StorageEngine)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Failover {
		return failover.New(primary, memory.NewStore()), nil
	}
	return primary, nil
}

// personalDomains combines the built-in consumer domain list with any extras
// from configuration.
func personalDomains(cfg *config.Config) []string {
	base := engine.DefaultConfig().PersonalDomains
	return append(append([]string(nil), base...), cfg.Resolution.PersonalDomains...)
}

// runBatch reads JSON attendees from stdin and resolves them concurrently,
// optionally rate limited. Results are written in input order.
func runBatch(ctx context.Context, resolver *engine.Resolver, cfg *config.Config) error {
	attendees, err := readAttendees(os.Stdin)
	if err != nil {
		return err
	}
	if len(attendees) == 0 {
		return nil
	}

	var outcomes []engine.Outcome
	if cfg.Batch.RateLimit > 0 {
		outcomes = resolveLimited(ctx, resolver, attendees, cfg.Batch.Concurrency, rate.Limit(cfg.Batch.RateLimit))
	} else {
		outcomes = resolver.ResolveAttendees(ctx, attendees, cfg.Batch.Concurrency)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, outcome := range outcomes {
		if err := writeResult(w, toResult(outcome.Attendee, outcome.Result, outcome.Err)); err != nil {
			return err
		}
	}
	return nil
}

// resolveLimited fans out resolutions like engine.Resolver.ResolveAttendees,
// but waits on a token-bucket limiter before dispatching each attendee.
func resolveLimited(ctx context.Context, resolver *engine.Resolver, attendees []engine.Attendee, concurrency int, limit rate.Limit) []engine.Outcome {
	if concurrency < 1 {
		concurrency = 4
	}
	limiter := rate.NewLimiter(limit, 1)

	outcomes := make([]engine.Outcome, len(attendees))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, attendee := range attendees {
		if err := limiter.Wait(ctx); err != nil {
			outcomes[i] = engine.Outcome{Attendee: attendee, Err: err}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, attendee engine.Attendee) {
			defer wg.Done()
			defer func() { <-sem }()
			resolution, err := resolver.ResolveAttendee(ctx, attendee.Email, attendee.DisplayName)
			outcomes[i] = engine.Outcome{Attendee: attendee, Result: resolution, Err: err}
		}(i, attendee)
	}

	wg.Wait()
	return outcomes
}

// readAttendees parses one JSON attendee object per line, skipping blanks.
func readAttendees(r *os.File) ([]engine.Attendee, error) {
	var attendees []engine.Attendee
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var attendee engine.Attendee
		if err := json.Unmarshal(text, &attendee); err != nil {
			return nil, fmt.Errorf("stdin line %d: %w", line, err)
		}
		attendees = append(attendees, attendee)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return attendees, nil
}

func toResult(attendee engine.Attendee, resolution *types.EntityResolutionResult, err error) result {
	out := result{
		Email:       attendee.Email,
		DisplayName: attendee.DisplayName,
	}
	if err != nil {
		out.Error = err.Error()
		out.Method = types.MethodUnresolved
		return out
	}
	out.Person = resolution.Person
	out.Confidence = resolution.Confidence
	out.Method = resolution.Method
	out.CreatedNewEntity = resolution.CreatedNewEntity
	out.Report = resolution.Report
	return out
}

func writeResult(w io.Writer, res result) error {
	enc := json.NewEncoder(w)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
