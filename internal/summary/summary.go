package summary

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
)

const (
	// Placeholder returned for empty input.
	Placeholder = "No issue description was provided."

	maxLength = 500
)

var DefaultModels = []string{"gemini-1.5-flash", "gemini-2.0-flash"}

const promptTemplate = `Fasse das folgende GitHub-Issue in einem einzigen, professionellen Absatz auf Deutsch zusammen.

Befolge dabei diese strikten Regeln:
1. Nenne bis zu 3 Kernpunkte oder Positionen als textliche Aufzählung innerhalb des Absatzes.
2. Benutze keinerlei Sonderzeichen wie Sternchen, Rauten, Bindestriche, Spiegelstriche oder Klammern.
3. Der gesamte Text muss unter 450 Zeichen bleiben.

Text: %s`

type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// Summarizer turns a raw issue description into a short client-facing
// paragraph, falling back to a cleaned copy of the input when every model
// fails.
type Summarizer struct {
	gen    Generator
	models []string
}

func NewSummarizer(gen Generator, models []string) *Summarizer {
	if len(models) == 0 {
		models = DefaultModels
	}
	return &Summarizer{gen: gen, models: models}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	summary, _ := s.TrySummarize(ctx, text)
	return summary
}

// TrySummarize is Summarize that also reports whether the result is final.
// It is false when every model failed and the cleaned input was returned in
// place of a summary.
func (s *Summarizer) TrySummarize(ctx context.Context, text string) (string, bool) {
	if strings.TrimFunc(text, isSpace) == "" {
		return Placeholder, true
	}

	prompt := fmt.Sprintf(promptTemplate, text)
	for _, model := range s.models {
		out, err := s.gen.GenerateContent(ctx, model, prompt)
		if err != nil {
			slog.Error("summary model failed", "model", model, "error", err)
			continue
		}
		out = CleanSpecialChars(out)
		if runeLen(out) > maxLength {
			return truncate(out, maxLength-3) + "...", true
		}
		return out, true
	}

	slog.Warn("all summary models failed, using cleaned description")
	return truncate(CleanSpecialChars(text), maxLength), false
}

var (
	specialChars = regexp.MustCompile(`[#*_\[\]\-|>+]`)
	// Includes vertical tab, no-break and other Unicode spaces, line and
	// paragraph separators and the byte order mark.
	whitespace = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
)

// CleanSpecialChars strips Markdown-ish punctuation and collapses whitespace.
func CleanSpecialChars(text string) string {
	text = specialChars.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimFunc(text, isSpace)
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
