package classify

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// VectorCache persists embeddings in a local SQLite file keyed by model and text.
type VectorCache struct {
	path string
	once sync.Once
	db   *sql.DB
	err  error
}

// NewVectorCache returns a cache backed by path. The file is created on first use.
func NewVectorCache(path string) *VectorCache {
	return &VectorCache{path: path}
}

func (c *VectorCache) open() (*sql.DB, error) {
	c.once.Do(func() {
		if dir := filepath.Dir(c.path); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				c.err = fmt.Errorf("vector cache: mkdir %s: %w", dir, err)
				return
			}
		}
		db, err := sql.Open("sqlite", c.path)
		if err != nil {
			c.err = fmt.Errorf("vector cache: open db: %w", err)
			return
		}
		db.SetMaxOpenConns(1) // SQLite: single writer
		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS embeddings (
			model  TEXT NOT NULL,
			text   TEXT NOT NULL,
			vector BLOB NOT NULL,
			PRIMARY KEY (model, text)
		)`); err != nil {
			_ = db.Close()
			c.err = fmt.Errorf("vector cache: init schema: %w", err)
			return
		}
		c.db = db
	})
	return c.db, c.err
}

// Get returns the stored vector for text, if any.
func (c *VectorCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	db, err := c.open()
	if err != nil {
		return nil, false, err
	}
	var blob []byte
	err = db.QueryRowContext(ctx, `SELECT vector FROM embeddings WHERE model = ? AND text = ?`, model, text).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("vector cache: get: %w", err)
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put stores vec for text, replacing any earlier value.
func (c *VectorCache) Put(ctx context.Context, model, text string, vec []float32) error {
	db, err := c.open()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (model, text, vector) VALUES (?, ?, ?)`,
		model, text, encodeVector(vec))
	if err != nil {
		return fmt.Errorf("vector cache: put: %w", err)
	}
	return nil
}

// Close closes the database if it was opened.
func (c *VectorCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector cache: blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// CachedEmbedder consults a VectorCache before calling the wrapped embedder.
type CachedEmbedder struct {
	Embedder Embedder
	Cache    *VectorCache
}

func (c CachedEmbedder) Name() string { return c.Embedder.Name() }

func (c CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		vec, ok, err := c.Cache.Get(ctx, c.Embedder.Name(), text)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	fresh, err := c.Embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder %s returned %d vectors for %d texts", c.Embedder.Name(), len(fresh), len(missing))
	}
	for j, vec := range fresh {
		out[missingIdx[j]] = vec
		if err := c.Cache.Put(ctx, c.Embedder.Name(), missing[j], vec); err != nil {
			return nil, err
		}
	}
	return out, nil
}
