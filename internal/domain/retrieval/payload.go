package retrieval

import "encoding/json"

// PayloadStatus is the explicit outcome of parsing a retrieval payload.
type PayloadStatus int

const (
	// PayloadOK means the payload parsed and carried at least one result.
	PayloadOK PayloadStatus = iota
	// PayloadEmpty means the payload parsed but carried no results.
	PayloadEmpty
	// PayloadMalformed means the payload could not be parsed.
	PayloadMalformed
)

// Payload is a parsed retrieval payload. The caller inspects Status and
// decides whether to take the attribution fallback path; parse failures are
// an outcome here, never an error.
type Payload struct {
	status PayloadStatus
	chunks []Chunk
}

// payloadEntry mirrors one entry of the search service's "results" array.
type payloadEntry struct {
	Chunk        string  `json:"chunk"`
	RelativePath string  `json:"relative_path"`
	Category     string  `json:"category"`
	Score        float64 `json:"relevance_score"`
}

// ParsePayload parses the documented JSON shape {"results": [...]}.
func ParsePayload(raw string) Payload {
	if raw == "" {
		return Payload{status: PayloadEmpty}
	}

	var parsed struct {
		Results []payloadEntry `json:"results"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Payload{status: PayloadMalformed}
	}
	if len(parsed.Results) == 0 {
		return Payload{status: PayloadEmpty}
	}

	chunks := make([]Chunk, 0, len(parsed.Results))
	for _, e := range parsed.Results {
		chunks = append(chunks, NewChunk(e.Chunk, e.RelativePath, Category(e.Category), e.Score))
	}
	return Payload{status: PayloadOK, chunks: chunks}
}

// Status returns the parse outcome.
func (p *Payload) Status() PayloadStatus { return p.status }

// Chunks returns the parsed chunks in payload order.
func (p *Payload) Chunks() []Chunk { return p.chunks }

// SourcePaths returns the unique relative paths cited by the payload, in
// first-appearance order.
func (p *Payload) SourcePaths() []string {
	return FilteredContext(p.chunks).SourcePaths()
}
