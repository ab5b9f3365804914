package domain

import "strings"

var quoteStripper = strings.NewReplacer(`"`, "", "'", "")

// StripQuotes removes quote characters from model output. Raw completions get
// embedded into prompts and JSON strings downstream; stray quotes break both.
func StripQuotes(s string) string {
	return quoteStripper.Replace(s)
}
