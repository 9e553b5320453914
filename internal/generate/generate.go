// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate synthesizes a report body from collected search
// snippets via a chat-completion backend.
package generate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/report-engine/internal/retry"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Backend abstracts the completion API so tests can supply a mock.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Error reports a failed generation after retry exhaustion. It is fatal
// for the subject's run but must not abort other subjects.
type Error struct {
	Subject string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generating report for %q: %v", e.Subject, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// reasoningBlock matches chain-of-thought markers some models emit around
// their internal reasoning; the report keeps only what follows.
var reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Generator produces report bodies for one subject at a time.
type Generator struct {
	Backend Backend
	Policy  retry.Policy

	// SnippetBudget caps the total snippet characters in the prompt.
	SnippetBudget int
}

// Generate builds the synthesis prompt and invokes the completion backend,
// retrying per the policy on transient failures. An empty body after
// trimming is a failure: the caller must not archive a blank report.
func (g *Generator) Generate(ctx context.Context, subject, date string, results []types.SearchResult, historyDates []string) (string, error) {
	user := synthesisPrompt(subject, date, results, historyContextLine(historyDates), g.SnippetBudget)

	var body string
	err := retry.Do(ctx, g.Policy, func(ctx context.Context) error {
		text, err := g.Backend.Complete(ctx, systemPrompt, user)
		if err != nil {
			return err
		}
		body = text
		return nil
	})
	if err != nil {
		return "", &Error{Subject: subject, Err: err}
	}

	body = strings.TrimSpace(reasoningBlock.ReplaceAllString(body, ""))
	if body == "" {
		return "", &Error{Subject: subject, Err: fmt.Errorf("model returned an empty report body")}
	}
	return body, nil
}
