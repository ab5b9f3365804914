package structai

import "errors"

// Sentinel errors mapped from API error codes.
// Use errors.Is() to check.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	ErrGenerationFailure    = errors.New("generation failure")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBadRequest           = errors.New("bad request")
)

// APIError is the decoded error body of a failed request. It wraps the
// matching sentinel so errors.Is keeps working.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return "structai: " + e.Code + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "conversation_not_found":
		return ErrConversationNotFound
	case "retrieval_unavailable":
		return ErrRetrievalUnavailable
	case "generation_failure", "completion_provider_error":
		return ErrGenerationFailure
	case "bad_request", "validation_failed":
		if e.StatusCode == 401 {
			return ErrUnauthorized
		}
		return ErrBadRequest
	default:
		return nil
	}
}
