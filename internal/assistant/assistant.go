// Package assistant proxies a generative-text API for the editor's
// writing actions. It never touches the persistence store: failures
// surface to the caller with local state untouched.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Action selects one of the editor's generation modes.
type Action string

const (
	ActionOutline   Action = "OUTLINE"
	ActionContinue  Action = "CONTINUE"
	ActionImprove   Action = "IMPROVE"
	ActionSummarize Action = "SUMMARIZE"
	ActionSEO       Action = "SEO"
)

// ParseAction validates a raw action string.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(value))) {
	case ActionOutline:
		return ActionOutline, nil
	case ActionContinue:
		return ActionContinue, nil
	case ActionImprove:
		return ActionImprove, nil
	case ActionSummarize:
		return ActionSummarize, nil
	case ActionSEO:
		return ActionSEO, nil
	default:
		return "", fmt.Errorf("assistant: unknown action %q", value)
	}
}

// Request describes one generation call.
type Request struct {
	Action Action
	// Context is the text the action operates on: a topic for OUTLINE,
	// the draft so far for the others.
	Context string
	// Instruction optionally appends extra guidance to the prompt.
	Instruction string
}

// SEOReport is the structured response of the SEO action.
type SEOReport struct {
	TitleSuggestion string   `json:"titleSuggestion"`
	Keywords        []string `json:"keywords"`
	ImprovementTips []string `json:"improvementTips"`
}

// Result carries the generated text. SEO is set only for the SEO action
// and only when the model returned well-formed JSON; otherwise the raw
// text is preserved in Text as the fallback.
type Result struct {
	Text string
	SEO  *SEOReport
}

// ErrMissingAPIKey indicates the generator credential was never
// configured. Set the API_KEY environment variable.
var ErrMissingAPIKey = errors.New("assistant: API key is missing")

// GenerationError wraps a failed or rejected remote generation call.
type GenerationError struct {
	Status int
	err    error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("assistant: generation failed (status %d): %v", e.Status, e.err)
	}
	return fmt.Sprintf("assistant: generation failed: %v", e.err)
}

func (e *GenerationError) Unwrap() error {
	return e.err
}

// Generator is the capability the rest of the app depends on.
type Generator interface {
	Generate(ctx context.Context, request Request) (Result, error)
}

func buildPrompt(request Request) string {
	var prompt string
	switch request.Action {
	case ActionOutline:
		prompt = fmt.Sprintf("Create a structured blog post outline for the topic: %q. "+
			"Use Markdown headings (##, ###). Keep it concise and actionable.", request.Context)
	case ActionContinue:
		prompt = "Continue writing this blog post. Pick up naturally where the text ends. " +
			"Maintain the tone and style. Here is the current content:\n\n" + request.Context
	case ActionImprove:
		prompt = "Rewrite the following text to improve clarity, flow, and professional tone. " +
			"Do not change the core meaning. Text:\n\n" + request.Context
	case ActionSummarize:
		prompt = "Summarize the following blog post content into a short, engaging meta description " +
			"(max 160 characters):\n\n" + request.Context
	case ActionSEO:
		prompt = "Analyze the following blog content and provide SEO suggestions. " +
			"Return ONLY a JSON object with this structure: " +
			`{ "titleSuggestion": "string", "keywords": ["string", "string"], "improvementTips": ["string"] }. ` +
			"Content:\n\n" + request.Context
	default:
		prompt = request.Context
	}

	if request.Instruction != "" {
		prompt += "\n\nAdditional instructions: " + request.Instruction
	}
	return prompt
}
