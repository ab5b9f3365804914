package retrieval

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Category
	}{
		{"exact match", "Sustainability", CategorySustainability},
		{"two-word category", "Building Code", CategoryBuildingCode},
		{"quoted output", `"Fire"`, CategoryFire},
		{"single-quoted output", "'Plumbing'", CategoryPlumbing},
		{"surrounding whitespace", "  Electrical \n", CategoryElectrical},
		{"wildcard", "ALL", CategoryAll},
		{"unknown word", "Structural", CategoryAll},
		{"empty", "", CategoryAll},
		{"chatty model output", "The category is Safety", CategoryAll},
		{"case mismatch", "safety", CategoryAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCategory(tt.raw); got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFilter_PreservesRankOrder(t *testing.T) {
	r := NewResult([]Chunk{
		NewChunk("a", "a.pdf", CategoryFire, 0.9),
		NewChunk("b", "b.pdf", CategoryFire, 0.4),
		NewChunk("c", "c.pdf", CategoryFire, 0.7),
		NewChunk("d", "d.pdf", CategoryFire, 0.61),
	}, "")

	got := Filter(r, 0.6)
	if len(got) != 3 {
		t.Fatalf("expected 3 surviving chunks, got %d", len(got))
	}
	wantOrder := []string{"a", "c", "d"}
	for i, text := range wantOrder {
		if got[i].Text() != text {
			t.Errorf("position %d: got %q, want %q", i, got[i].Text(), text)
		}
	}
	for _, c := range got {
		if c.Score() < 0.6 {
			t.Errorf("chunk %q survived with score %v below threshold", c.Text(), c.Score())
		}
	}
}

func TestFilter_AllBelowThreshold(t *testing.T) {
	chunks := make([]Chunk, 5)
	for i := range chunks {
		chunks[i] = NewChunk("low", "doc.pdf", CategoryAll, 0.3)
	}
	r := NewResult(chunks, "")

	if got := Filter(r, 0.6); len(got) != 0 {
		t.Fatalf("expected empty context, got %d chunks", len(got))
	}
}

func TestFilter_BoundaryScoreKept(t *testing.T) {
	r := NewResult([]Chunk{NewChunk("edge", "e.pdf", CategoryAll, 0.6)}, "")
	if got := Filter(r, 0.6); len(got) != 1 {
		t.Fatalf("score equal to threshold must survive")
	}
}

func TestParsePayload_RoundTrip(t *testing.T) {
	payload := map[string]any{
		"results": []map[string]any{
			{"chunk": "beams", "relative_path": "codes/beams.pdf", "category": "Building Code", "relevance_score": 0.8},
			{"chunk": "joists", "relative_path": "codes/joists.pdf", "category": "Building Code", "relevance_score": 0.7},
			{"chunk": "beams again", "relative_path": "codes/beams.pdf", "category": "Building Code", "relevance_score": 0.65},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	p := ParsePayload(string(raw))
	if p.Status() != PayloadOK {
		t.Fatalf("expected PayloadOK, got %v", p.Status())
	}
	want := []string{"codes/beams.pdf", "codes/joists.pdf"}
	if got := p.SourcePaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("SourcePaths() = %v, want %v", got, want)
	}
}

func TestParsePayload_Idempotent(t *testing.T) {
	raw := `{"results":[{"chunk":"c","relative_path":"a.pdf","category":"Fire","relevance_score":0.9}]}`
	first := ParsePayload(raw)
	second := ParsePayload(raw)
	if !reflect.DeepEqual(first.SourcePaths(), second.SourcePaths()) {
		t.Errorf("parsing the same payload twice yielded different paths")
	}
}

func TestParsePayload_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PayloadStatus
	}{
		{"well-formed", `{"results":[{"chunk":"c","relative_path":"a.pdf","category":"Fire","relevance_score":0.9}]}`, PayloadOK},
		{"empty results", `{"results":[]}`, PayloadEmpty},
		{"missing results key", `{}`, PayloadEmpty},
		{"empty string", "", PayloadEmpty},
		{"truncated json", `{"results":[{"chunk":`, PayloadMalformed},
		{"not json at all", "sorry, no documents", PayloadMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePayload(tt.raw)
			if p.Status() != tt.want {
				t.Errorf("status = %v, want %v", p.Status(), tt.want)
			}
		})
	}
}

func TestFilteredContext_SourcePathsDeduplicated(t *testing.T) {
	f := FilteredContext{
		NewChunk("a", "x.pdf", CategoryAll, 0.9),
		NewChunk("b", "y.pdf", CategoryAll, 0.8),
		NewChunk("c", "x.pdf", CategoryAll, 0.7),
	}
	want := []string{"x.pdf", "y.pdf"}
	if got := f.SourcePaths(); !reflect.DeepEqual(got, want) {
		t.Errorf("SourcePaths() = %v, want %v", got, want)
	}
}
