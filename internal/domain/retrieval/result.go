package retrieval

// Chunk is one retrievable unit of source-document text. Produced only by the
// retrieval adapter; immutable.
type Chunk struct {
	text       string
	sourcePath string
	category   Category
	score      float64
}

// NewChunk creates a chunk.
func NewChunk(text, sourcePath string, category Category, score float64) Chunk {
	return Chunk{text: text, sourcePath: sourcePath, category: category, score: score}
}

// Text returns the chunk text.
func (c *Chunk) Text() string { return c.text }

// SourcePath returns the relative path of the source document.
func (c *Chunk) SourcePath() string { return c.sourcePath }

// Category returns the document category the chunk is tagged with.
func (c *Chunk) Category() Category { return c.category }

// Score returns the relevance score assigned by the search service.
func (c *Chunk) Score() float64 { return c.score }

// Result is a ranked retrieval outcome, best chunk first. The raw payload is
// kept for attribution parsing and debugging; it never crosses the adapter
// boundary in any other form.
type Result struct {
	chunks []Chunk
	raw    string
}

// NewResult creates a retrieval result.
func NewResult(chunks []Chunk, raw string) Result {
	return Result{chunks: chunks, raw: raw}
}

// Chunks returns the ranked chunks, best first.
func (r *Result) Chunks() []Chunk { return r.chunks }

// Raw returns the serialized payload the chunks were parsed from.
func (r *Result) Raw() string { return r.raw }

// IsEmpty reports whether the search returned no chunks at all.
func (r *Result) IsEmpty() bool { return len(r.chunks) == 0 }

// DefaultMinScore is the relevance threshold below which chunks are dropped
// when no explicit threshold is configured.
const DefaultMinScore = 0.6

// FilteredContext is the guardrail's output: the rank-preserving subsequence
// of a Result's chunks that met the minimum relevance score. May be empty.
type FilteredContext []Chunk

// Filter drops every chunk scoring below minScore, preserving rank order.
func Filter(r Result, minScore float64) FilteredContext {
	var kept FilteredContext
	for _, c := range r.chunks {
		if c.score >= minScore {
			kept = append(kept, c)
		}
	}
	return kept
}

// Texts returns the chunk texts in rank order.
func (f FilteredContext) Texts() []string {
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].text
	}
	return out
}

// SourcePaths returns the unique source paths in first-appearance order.
func (f FilteredContext) SourcePaths() []string {
	seen := make(map[string]struct{}, len(f))
	var paths []string
	for i := range f {
		p := f[i].sourcePath
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}
