package structai

// Document is a source reference cited by an answer.
type Document struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

// Answer is the server's response to one question.
type Answer struct {
	Text      string     `json:"answer"`
	Documents []Document `json:"documents"`
}

// Message is one turn of a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Health is the aggregated service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
