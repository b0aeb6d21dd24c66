// Package main is the jurnal command line tool.
//
// Subcommands:
//
//	generate  build a day/week/month/semester batch and write it as JSON
//	day       print the resolved journal of one date
//	import    load a YAML workbook into PostgreSQL
//	migrate   apply, roll back or list database migrations
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guruku/jurnal/config"
	"github.com/guruku/jurnal/internal/application/query"
	"github.com/guruku/jurnal/internal/domain/journal"
	"github.com/guruku/jurnal/internal/domain/report"
	"github.com/guruku/jurnal/internal/domain/shared"
	"github.com/guruku/jurnal/internal/infrastructure/export"
	"github.com/guruku/jurnal/internal/infrastructure/persistence/postgres"
	"github.com/guruku/jurnal/internal/infrastructure/persistence/redis"
	"github.com/guruku/jurnal/internal/infrastructure/persistence/yamlsource"
	"github.com/guruku/jurnal/pkg/circuitbreaker"
	"github.com/guruku/jurnal/pkg/logger"
	"github.com/guruku/jurnal/pkg/retry"
	"github.com/guruku/jurnal/pkg/timeutil"
)

const usage = `usage: jurnal [-env FILE] <command> [flags]

commands:
  generate -class NAME -mode day|week|month|semester [-date YYYY-MM-DD] [-out DIR]
  day      -class NAME [-date YYYY-MM-DD]
  import   -file WORKBOOK.yaml
  migrate  up|down|status
`

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitUnavailable = 3
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("jurnal", flag.ContinueOnError)
	global.SetOutput(stderr)
	envFile := global.String("env", ".env", "dotenv file to load before the environment")
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		global.Usage()
		return exitUsage
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFailure
	}
	log := setupLogger(cfg, stderr)
	ctx = logger.WithContext(ctx, log)

	app := &app{cfg: cfg, log: log, stdout: stdout}
	defer app.close()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "generate":
		err = app.generate(ctx, rest)
	case "day":
		err = app.day(ctx, rest)
	case "import":
		err = app.importWorkbook(ctx, rest)
	case "migrate":
		err = app.migrate(ctx, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return exitUsage
	}

	return exitCode(log, cmd, err)
}

func exitCode(log *logger.Logger, cmd string, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp), errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, context.Canceled):
		log.Warn("cancelled", logger.Operation(cmd))
		return exitFailure
	case shared.IsDataUnavailable(err):
		// Checked before validation: a malformed workbook is unusable data, not a bad request.
		log.Error("journal inputs unavailable", logger.Operation(cmd), logger.Err(err))
		return exitUnavailable
	case shared.IsValidation(err):
		log.Error("invalid request", logger.Operation(cmd), logger.Err(err))
		return exitUsage
	default:
		log.Error("command failed", logger.Operation(cmd), logger.Err(err))
		return exitFailure
	}
}

var errUsage = errors.New("usage error")

func setupLogger(cfg *config.Config, out io.Writer) *logger.Logger {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug && level > logger.LevelDebug {
		level = logger.LevelDebug
	}
	return logger.New(logger.Options{
		Output:    out,
		Level:     level,
		AddCaller: cfg.App.Debug || cfg.IsDevelopment(),
		Pretty:    strings.EqualFold(cfg.Observability.LogFormat, "pretty"),
	}).With(logger.Component(cfg.App.Name), logger.String("version", cfg.App.Version))
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRING
// ══════════════════════════════════════════════════════════════════════════════

type app struct {
	cfg    *config.Config
	log    *logger.Logger
	stdout io.Writer

	db    *postgres.Connection
	cache *redis.Cache
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) database(ctx context.Context) (*postgres.Connection, error) {
	if a.db != nil {
		return a.db, nil
	}
	if a.cfg.Database.URL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is not set", errUsage)
	}

	poolOpts := postgres.PoolOptions{
		MaxConns:        int32(a.cfg.Database.MaxOpenConns),
		MinConns:        int32(a.cfg.Database.MaxIdleConns),
		MaxConnLifetime: a.cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: a.cfg.Database.ConnMaxIdleTime,
	}
	retrier := retry.DatabaseRetrier(
		retry.WithRetryIf(func(err error) bool { return !errors.Is(err, postgres.ErrInvalidURL) }),
		retry.WithOnRetry(a.onRetry("postgres connect")),
	)
	conn, err := retry.DoWithData(ctx, retrier,
		func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnectionFromURL(ctx, a.cfg.Database.URL, poolOpts)
		})
	if err != nil {
		return nil, shared.WrapError("postgres", "Connect", shared.ErrServiceUnavailable, "database unreachable", err)
	}
	a.db = conn
	a.log.Info("database connection established")

	if a.cfg.Features.IsEnabled(config.FeatureMigrateOnStart) {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return conn, nil
}

// redisCache connects lazily. A failed connection disables caching, it never fails the command.
func (a *app) redisCache() *redis.Cache {
	if a.cache != nil || a.cfg.Redis.Disabled {
		return a.cache
	}

	rc := redis.DefaultConfig()
	rc.URL = a.cfg.Redis.URL
	rc.Host = a.cfg.Redis.Host
	rc.Port = a.cfg.Redis.Port
	rc.Password = a.cfg.Redis.Password
	rc.DB = a.cfg.Redis.DB
	rc.PoolSize = a.cfg.Redis.PoolSize
	rc.MinIdleConns = a.cfg.Redis.MinIdleConns
	rc.DialTimeout = a.cfg.Redis.DialTimeout
	rc.ReadTimeout = a.cfg.Redis.ReadTimeout
	rc.WriteTimeout = a.cfg.Redis.WriteTimeout

	cache, err := redis.NewCache(rc)
	if err != nil {
		a.log.Warn("redis unavailable, caching disabled", logger.Err(err))
		return nil
	}
	a.cache = cache
	return cache
}

func (a *app) onBreakerChange(name string, from, to circuitbreaker.State) {
	a.log.Warn("circuit breaker state changed",
		logger.String("breaker", name),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
	)
}

func (a *app) onRetry(op string) func(int, error, time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		a.log.Warn("retrying",
			logger.Operation(op),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	}
}

// source builds the configured journal source, wrapped by the Redis read-through cache when enabled.
func (a *app) source(ctx context.Context) (journal.Source, error) {
	var src journal.Source
	switch a.cfg.Journal.Source {
	case config.SourcePostgres:
		conn, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		src = postgres.NewJournalSource(conn)
	default:
		ys, err := yamlsource.Open(a.cfg.Journal.YAMLPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrDataUnavailable, err)
		}
		src = ys
	}

	if a.cfg.Features.IsEnabled(config.FeatureSourceCache) {
		if cache := a.redisCache(); cache != nil {
			src = redis.NewSourceCache(src, cache,
				redis.WithTTL(a.cfg.Journal.SourceCacheTTL),
				redis.WithBreaker(circuitbreaker.CacheBreaker(a.onBreakerChange)),
				redis.WithLogger(a.log),
			)
		}
	}
	return src, nil
}

func (a *app) loader(ctx context.Context) (*query.InputLoader, error) {
	src, err := a.source(ctx)
	if err != nil {
		return nil, err
	}

	opts := []query.LoaderOption{
		query.WithLoaderLogger(a.log),
		query.WithFetchConcurrency(a.cfg.Journal.FetchConcurrency),
	}
	for _, name := range a.cfg.Journal.DisabledSubjects {
		opts = append(opts, query.WithDefaultDisabled(shared.NewSubjectKey(name)))
	}
	if a.cfg.Features.IsEnabled(config.FeatureSourceBreaker) {
		opts = append(opts, query.WithSourceBreaker(circuitbreaker.SourceBreaker(a.onBreakerChange,
			circuitbreaker.WithFailureThreshold(a.cfg.Journal.BreakerThreshold),
			circuitbreaker.WithTimeout(a.cfg.Journal.BreakerTimeout),
		)))
	}
	return query.NewInputLoader(src, opts...), nil
}

func (a *app) layout() report.Layout {
	j := a.cfg.Journal
	return report.Layout{
		PageHeight:      j.PageHeight,
		DayHeader:       j.DayHeader,
		TableHeader:     j.TableHeader,
		RowHeight:       j.RowHeight,
		SignatureHeight: j.SignatureHeight,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	class := fs.String("class", "", "class name, e.g. \"VII A\"")
	mode := fs.String("mode", string(report.ModeWeek), "day, week, month or semester")
	date := fs.String("date", "", "anchor date YYYY-MM-DD (default: today)")
	out := fs.String("out", a.cfg.Journal.OutputDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	anchor, err := a.anchor(*date)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.App.ExportTimeout)
	defer cancel()

	loader, err := a.loader(ctx)
	if err != nil {
		return err
	}

	opts := []query.GenerateOption{
		query.WithGenerateLogger(a.log),
		query.WithAmbiguityWarnings(a.cfg.Features.IsEnabled(config.FeatureAmbiguityWarnings)),
	}
	if a.cfg.Features.IsEnabled(config.FeatureBatchCache) {
		if cache := a.redisCache(); cache != nil {
			opts = append(opts, query.WithBatchCache(redis.NewBatchCache(cache, a.cfg.Journal.BatchCacheTTL)))
		}
	}
	handler := query.NewGenerateJournalHandler(loader, report.NewBatcher(report.WithLayout(a.layout())), opts...)

	res, err := handler.Handle(ctx, query.GenerateJournalQuery{ClassName: *class, Mode: *mode, Anchor: anchor})
	if err != nil {
		return err
	}

	path, err := export.NewJSONFile(*out).Write(ctx, res.Batch.ExportName, res)
	if err != nil {
		return err
	}

	a.log.Info("journal exported",
		logger.BatchID(res.Batch.ID),
		logger.String("path", path),
		logger.Int("pages", res.Stats.Pages),
		logger.Int("unplanned", res.Stats.Unplanned),
		logger.Bool("cached", res.Cached),
	)
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *app) day(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("day", flag.ContinueOnError)
	class := fs.String("class", "", "class name")
	date := fs.String("date", "", "date YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := a.anchor(*date)
	if err != nil {
		return err
	}

	loader, err := a.loader(ctx)
	if err != nil {
		return err
	}

	res, err := query.NewResolveDayHandler(loader, a.log).Handle(ctx, query.ResolveDayQuery{ClassName: *class, Date: d})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func (a *app) importWorkbook(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("file", a.cfg.Journal.YAMLPath, "YAML workbook to import")
	if err := fs.Parse(args); err != nil {
		return err
	}

	wb, err := yamlsource.LoadFile(*file)
	if err != nil {
		return err
	}
	conn, err := a.database(ctx)
	if err != nil {
		return err
	}

	src := postgres.NewJournalSource(conn)
	for _, set := range wb.ImportSets() {
		start := time.Now()
		if err := src.Import(ctx, set); err != nil {
			return fmt.Errorf("import %s %s: %w", set.Year, set.Class, err)
		}
		a.log.Info("class imported",
			logger.AcademicYear(set.Year.Label()),
			logger.ClassName(set.Class.String()),
			logger.Int("slots", len(set.Timetable.Slots)),
			logger.Latency(time.Since(start)),
		)
	}

	if cache := a.redisCache(); cache != nil {
		if err := cache.DeleteByPattern(ctx, redis.PrefixSource+"*"); err != nil {
			a.log.Warn("failed to invalidate source cache", logger.Err(err))
		}
	}
	return nil
}

func (a *app) migrate(ctx context.Context, args []string) error {
	action := "up"
	if len(args) > 0 {
		action = args[0]
	}

	conn, err := a.database(ctx)
	if err != nil {
		return err
	}
	m := postgres.NewMigrator(conn)

	switch action {
	case "up":
		return m.Migrate(ctx)
	case "down":
		return m.Rollback(ctx)
	case "status":
		migrations, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, mg := range migrations {
			state := "pending"
			if mg.Applied() {
				state = "applied " + mg.AppliedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(a.stdout, "%03d %-40s %s\n", mg.Version, mg.Name, state)
		}
		return nil
	default:
		return fmt.Errorf("%w: migrate action must be up, down or status, got %q", errUsage, action)
	}
}

// anchor parses a date flag; empty means today in the configured timezone.
func (a *app) anchor(value string) (timeutil.Date, error) {
	if value == "" {
		return timeutil.Today(a.cfg.App.Location), nil
	}
	d, err := timeutil.ParseDate(value)
	if err != nil {
		return timeutil.Date{}, shared.WrapError("cli", "ParseDate", shared.ErrInvalidFormat, "bad -date", err)
	}
	return d, nil
}
