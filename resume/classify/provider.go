package classify

import (
	"context"
	"fmt"
	"sync"

	"resume-formatter/resume/model"
	"resume-formatter/resume/taxonomy"
)

// Provider answers nearest-section queries against precomputed synonym embeddings.
// Synonym vectors are computed once, on first use.
type Provider struct {
	tax      *taxonomy.Taxonomy
	embedder Embedder

	mu       sync.Mutex
	ready    bool
	synonyms []taxonomy.Synonym
	vectors  [][]float32
}

// NewProvider builds a provider over tax using embedder.
func NewProvider(tax *taxonomy.Taxonomy, embedder Embedder) *Provider {
	if tax == nil {
		tax = taxonomy.MustDefault()
	}
	if embedder == nil {
		embedder = HashEmbedder{}
	}
	return &Provider{tax: tax, embedder: embedder}
}

var (
	sharedMu       sync.Mutex
	sharedProvider *Provider
)

// SharedProvider returns the process-wide provider backed by the default
// taxonomy and the hash embedder.
func SharedProvider() *Provider {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedProvider == nil {
		sharedProvider = NewProvider(taxonomy.MustDefault(), HashEmbedder{})
	}
	return sharedProvider
}

// EmbedderName identifies the backing embedder.
func (p *Provider) EmbedderName() string {
	return p.embedder.Name()
}

func (p *Provider) load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	synonyms := p.tax.Synonyms()
	texts := make([]string, len(synonyms))
	for i, syn := range synonyms {
		texts[i] = syn.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed synonyms with %s: %w", p.embedder.Name(), err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embed synonyms with %s: got %d vectors for %d texts", p.embedder.Name(), len(vectors), len(texts))
	}
	p.synonyms = synonyms
	p.vectors = vectors
	p.ready = true
	return nil
}

// Nearest returns the section of the synonym most similar to heading.
func (p *Provider) Nearest(ctx context.Context, heading string) (model.Section, float64, error) {
	if err := p.load(ctx); err != nil {
		return model.SectionOther, 0, err
	}
	vecs, err := p.embedder.Embed(ctx, []string{heading})
	if err != nil {
		return model.SectionOther, 0, fmt.Errorf("embed heading: %w", err)
	}
	if len(vecs) != 1 {
		return model.SectionOther, 0, fmt.Errorf("embed heading: got %d vectors", len(vecs))
	}

	best := model.SectionOther
	bestSim := 0.0
	for i, syn := range p.synonyms {
		sim := cosine(vecs[0], p.vectors[i])
		if sim > bestSim {
			best = syn.Section
			bestSim = sim
		}
	}
	return best, bestSim, nil
}
