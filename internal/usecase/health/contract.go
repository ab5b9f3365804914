package health

import "context"

// SearchPinger checks search service availability.
type SearchPinger interface {
	Ping(ctx context.Context) error
}

// CompletionChecker checks completion provider availability.
type CompletionChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks prompt cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
