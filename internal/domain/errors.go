package domain

import "errors"

var (
	// ErrRetrievalUnavailable signals that the backing search service could not be reached.
	ErrRetrievalUnavailable = errors.New("retrieval service unavailable")
	// ErrGenerationFailure signals that the completion call for the final answer failed.
	ErrGenerationFailure = errors.New("answer generation failed")
	// ErrConversationNotFound signals an unknown conversation identifier.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
)
