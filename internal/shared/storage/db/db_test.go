package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"resume-formatter/internal/shared/config"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                   { return nil }
func (nopStmt) NumInput() int                                  { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func TestGetSingletonReturnsSamePointer(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	lambdaPool.reset()
	defer lambdaPool.reset()

	opts := OptionsFor(ProfileLambda, config.DBPool{})
	db1, err := GetSingleton(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("GetSingleton first: %v", err)
	}
	db2, err := GetSingleton(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("GetSingleton second: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected singleton pointers to match")
	}
}

func TestOptionsForAppliesPoolOverrides(t *testing.T) {
	pool := config.DBPool{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		PingTimeout:     time.Second,
	}
	opts := OptionsFor(ProfileServer, pool)
	want := Options{
		MaxOpenConns:    7,
		MaxIdleConns:    3,
		ConnMaxLifetime: 20 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     time.Second,
	}
	if opts != want {
		t.Fatalf("expected %+v, got %+v", want, opts)
	}

	lambda := OptionsFor(ProfileLambda, config.DBPool{MaxIdleConns: 8})
	if lambda.MaxOpenConns != 2 || lambda.MaxIdleConns != 2 {
		t.Fatalf("expected idle conns capped at max open, got %+v", lambda)
	}
	if unknown := OptionsFor(Profile("batch"), config.DBPool{}); unknown != profileDefaults[ProfileServer] {
		t.Fatalf("expected server defaults for unknown profile, got %+v", unknown)
	}
}

func TestOpenUsesConfiguredPool(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	cfg := config.Config{DatabaseURL: "ignored", DBPool: config.DBPool{MaxOpenConns: 7}}
	database, err := Open(context.Background(), cfg, ProfileServer)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()
	if got := database.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}

	if _, err := Open(context.Background(), config.Config{}, ProfileMigrate); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

func TestOpenLambdaProfileSharesPool(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()
	lambdaPool.reset()
	defer lambdaPool.reset()

	cfg := config.Config{DatabaseURL: "ignored"}
	first, err := Open(context.Background(), cfg, ProfileLambda)
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	second, err := Open(context.Background(), cfg, ProfileLambda)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	if first != second {
		t.Fatalf("expected lambda profile to reuse the shared pool")
	}
	if got := first.Stats().MaxOpenConnections; got != 2 {
		t.Fatalf("expected lambda pool size 2, got %d", got)
	}
}

func TestRuntimeProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if RuntimeProfile() != ProfileServer {
		t.Fatalf("expected server profile outside lambda")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "formatter-worker")
	if RuntimeProfile() != ProfileLambda {
		t.Fatalf("expected lambda profile")
	}
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	var calls int32
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		ensureTestDriverRegistered()
		return sql.Open("dbtest", dsn)
	}
	defer func() {
		openDB = prev
	}()
	ensureTestDriverRegistered()
	lambdaPool.reset()
	defer lambdaPool.reset()

	opts := OptionsFor(ProfileLambda, config.DBPool{})
	if _, err := GetSingleton(context.Background(), "ignored", opts); err == nil {
		t.Fatalf("expected first call to fail")
	}
	db2, err := GetSingleton(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("expected second call to succeed: %v", err)
	}
	if db2 == nil {
		t.Fatalf("expected db after retry")
	}
}

func TestEmbeddedMigrationsAreAnnotated(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("expected embedded migrations")
	}
	for _, name := range names {
		data, err := fs.ReadFile(migrationFiles, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(data), "-- +goose Up") || !strings.Contains(string(data), "-- +goose Down") {
			t.Fatalf("%s is missing goose annotations", name)
		}
	}
}

func TestLatestVersion(t *testing.T) {
	latest, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if latest != 1 {
		t.Fatalf("expected latest migration 1, got %d", latest)
	}
}

func TestRunMigrationsNilDatabase(t *testing.T) {
	result, err := RunMigrations(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected nil database to be a no-op, got %v", err)
	}
	if result.Applied() {
		t.Fatalf("expected nothing applied, got %+v", result)
	}
}
