package chat

import (
	"strings"

	domchat "github.com/capstruct/structai/internal/domain/chat"
	"github.com/capstruct/structai/internal/domain/retrieval"
)

// EmptyContextReason records why no document context made it into a prompt.
type EmptyContextReason int

const (
	// ContextPresent means at least one chunk survived filtering.
	ContextPresent EmptyContextReason = iota
	// NoDocuments means the search returned nothing at all.
	NoDocuments
	// BelowThreshold means chunks came back but none cleared the
	// minimum relevance score.
	BelowThreshold
)

const disclaimer = "This is the best answer I can provide with the available data. " +
	"Please verify the information with the linked reference documents to ensure " +
	"full compliance with relevant regulations."

const noDocumentsNote = "No reference documents matched this question. " +
	"Say so, and answer only from general knowledge if you can do so safely."

const belowThresholdNote = "Reference documents were found but none were a confident " +
	"match for this question. Say so, and do not present uncertain material as authoritative."

// BuildPrompt assembles the chat history, retrieved context and the
// user question into a single completion prompt.
func BuildPrompt(
	history []domchat.Message,
	context retrieval.FilteredContext,
	question string,
	reason EmptyContextReason,
) string {
	var b strings.Builder

	b.WriteString("You are an expert assistant for building design and construction ")
	b.WriteString("compliance questions. Answer the question between the <question> tags ")
	b.WriteString("using the chat history between the <chat_history> tags and the document ")
	b.WriteString("excerpts between the <context> tags.\n")
	b.WriteString("When you answer, remember:\n")
	b.WriteString("- Be concise and do not hallucinate.\n")
	b.WriteString("- Do not mention the context or the chat history in your answer.\n")
	b.WriteString("- If you do not have the information, just say so.\n")
	b.WriteString("- End every answer with this exact sentence: " + disclaimer + "\n")

	switch reason {
	case NoDocuments:
		b.WriteString("- " + noDocumentsNote + "\n")
	case BelowThreshold:
		b.WriteString("- " + belowThresholdNote + "\n")
	}

	b.WriteString("\n<chat_history>\n")
	for _, m := range history {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("</chat_history>\n")

	b.WriteString("<context>\n")
	for i, text := range context.Texts() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	b.WriteString("</context>\n")

	b.WriteString("<question>\n")
	b.WriteString(question)
	b.WriteString("\n</question>\n")
	b.WriteString("Answer:\n")

	return b.String()
}
