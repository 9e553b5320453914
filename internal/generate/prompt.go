// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"strings"

	"github.com/pdiddy/report-engine/pkg/types"
)

// systemPrompt instructs the model on the report's register and shape.
const systemPrompt = `You are a research analyst writing a recurring briefing on a single subject.

Synthesize the provided search snippets into a concise report:
- Open with a short paragraph summarizing the day's most significant development.
- Follow with a bulleted rundown of the remaining items, one sentence each.
- Stick to what the sources say; do not speculate or pad.
- If the briefing notes that no fresh sources were available, say so plainly and
  keep the report to a short continuity note.

Respond with the report body in Markdown. Do not include a title line; the
archive adds its own header.`

// snippetOverhead approximates the per-result formatting cost (numbering,
// title, URL) counted against the character budget alongside the snippet.
const snippetOverhead = 96

// synthesisPrompt builds the user message: the subject and date, the
// collected snippets trimmed to the character budget, and optional
// continuity context from prior runs.
func synthesisPrompt(subject, date string, results []types.SearchResult, historyContext string, budget int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Subject: %s\nDate: %s\n\n", subject, date)

	if historyContext != "" {
		b.WriteString(historyContext)
		b.WriteString("\n\n")
	}

	if len(results) == 0 {
		b.WriteString("No fresh sources were available for this run; the search provider could not be reached.\n")
		return b.String()
	}

	b.WriteString("Today's sources:\n\n")
	remaining := budget
	for i, r := range results {
		if remaining <= snippetOverhead {
			break
		}
		snippet := r.Snippet
		if len(snippet) > remaining-snippetOverhead {
			snippet = snippet[:remaining-snippetOverhead]
		}
		fmt.Fprintf(&b, "%d. %s\n%s\n(%s)\n\n", i+1, r.Title, snippet, r.URL)
		remaining -= len(snippet) + snippetOverhead
	}

	return b.String()
}

// historyContextLine formats prior run dates into the continuity note fed
// to the model. Empty input yields no context.
func historyContextLine(dates []string) string {
	if len(dates) == 0 {
		return ""
	}
	return fmt.Sprintf(
		"Previous briefings on this subject were published on: %s. Favor developments not already covered then.",
		strings.Join(dates, ", "))
}
