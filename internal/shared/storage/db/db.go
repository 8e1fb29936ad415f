package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"resume-formatter/internal/shared/config"
	"resume-formatter/internal/shared/telemetry"
)

const defaultPingTimeout = 5 * time.Second

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Profile names the runtime a pool is sized for.
type Profile string

const (
	// ProfileServer is the ops server and the SQS worker.
	ProfileServer Profile = "server"
	// ProfileLambda keeps the pool tiny; every warm container holds one.
	ProfileLambda Profile = "lambda"
	// ProfileMigrate is a single connection for the migration CLI.
	ProfileMigrate Profile = "migrate"
)

var profileDefaults = map[Profile]Options{
	ProfileServer:  {MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
	ProfileLambda:  {MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxIdleTime: 30 * time.Second, ConnMaxLifetime: 15 * time.Minute, PingTimeout: 3 * time.Second},
	ProfileMigrate: {MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second},
}

var openDB = sql.Open

// IsLambdaRuntime reports whether the current process is running in AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// RuntimeProfile is ProfileLambda inside Lambda and ProfileServer elsewhere.
func RuntimeProfile() Profile {
	if IsLambdaRuntime() {
		return ProfileLambda
	}
	return ProfileServer
}

// OptionsFor returns the defaults of profile with every non-zero field of
// pool applied on top.
func OptionsFor(profile Profile, pool config.DBPool) Options {
	opts, ok := profileDefaults[profile]
	if !ok {
		opts = profileDefaults[ProfileServer]
	}
	if pool.MaxOpenConns > 0 {
		opts.MaxOpenConns = pool.MaxOpenConns
	}
	if pool.MaxIdleConns > 0 {
		opts.MaxIdleConns = pool.MaxIdleConns
	}
	if pool.ConnMaxLifetime > 0 {
		opts.ConnMaxLifetime = pool.ConnMaxLifetime
	}
	if pool.ConnMaxIdleTime > 0 {
		opts.ConnMaxIdleTime = pool.ConnMaxIdleTime
	}
	if pool.PingTimeout > 0 {
		opts.PingTimeout = pool.PingTimeout
	}
	if opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}
	return opts
}

// Open connects to cfg.DatabaseURL with the pool of profile. The Lambda
// profile shares one pool per execution environment.
func Open(ctx context.Context, cfg config.Config, profile Profile) (*sql.DB, error) {
	opts := OptionsFor(profile, cfg.DBPool)
	if profile == ProfileLambda {
		return GetSingleton(ctx, cfg.DatabaseURL, opts)
	}
	return Connect(ctx, cfg.DatabaseURL, opts)
}

// Connect opens a *sql.DB and verifies connectivity within opts.PingTimeout.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	database, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(database, opts)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := database.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open":      stats.MaxOpenConnections,
		"max_idle":      opts.MaxIdleConns,
		"idle_time":     opts.ConnMaxIdleTime.String(),
		"lifetime":      opts.ConnMaxLifetime.String(),
		"open":          stats.OpenConnections,
		"ping_timeout":  timeout.String(),
		"in_use":        stats.InUse,
		"wait_count":    stats.WaitCount,
		"wait_duration": stats.WaitDuration.String(),
	})
	return database, nil
}

// shared is the pool reused across Lambda invocations. A failed connect
// leaves it empty so the next invocation retries.
type shared struct {
	mu       sync.Mutex
	ready    *sync.Cond
	db       *sql.DB
	inFlight bool
}

func newShared() *shared {
	s := &shared{}
	s.ready = sync.NewCond(&s.mu)
	return s
}

var lambdaPool = newShared()

func (s *shared) get(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	s.mu.Lock()
	for s.inFlight && s.db == nil {
		s.ready.Wait()
	}
	if s.db != nil {
		database := s.db
		s.mu.Unlock()
		telemetry.Info("db.shared_reuse", nil)
		return database, nil
	}
	s.inFlight = true
	s.mu.Unlock()

	database, err := Connect(ctx, databaseURL, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.ready.Broadcast()
	if err != nil {
		return nil, err
	}
	s.db = database
	telemetry.Info("db.shared_init", nil)
	return database, nil
}

func (s *shared) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db = nil
	s.inFlight = false
}

// GetSingleton returns the process-wide pool, connecting on first use.
func GetSingleton(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	return lambdaPool.get(ctx, databaseURL, opts)
}

func applyOptions(database *sql.DB, opts Options) {
	fallback := profileDefaults[ProfileServer]
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = fallback.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = fallback.MaxIdleConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = fallback.ConnMaxLifetime
	}
	database.SetMaxOpenConns(opts.MaxOpenConns)
	database.SetMaxIdleConns(opts.MaxIdleConns)
	database.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		database.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}
