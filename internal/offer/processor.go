package offer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"miren.dev/issue-offer-bridge/internal/points"
)

type Summarizer interface {
	Summarize(ctx context.Context, text string) string
}

type Renderer interface {
	RenderOffer(w io.Writer, issue *Issue) error
}

type Mailer interface {
	SendOffer(ctx context.Context, html, number, repo string) error
}

type DealCreator interface {
	CreateDeal(ctx context.Context, title, description string) error
}

type Options struct {
	CreateDeal bool
}

type Processor struct {
	summarizer Summarizer
	renderer   Renderer
	mailer     Mailer
	deals      DealCreator
}

// NewProcessor wires the processing collaborators. deals may be nil when no
// CRM is configured.
func NewProcessor(summarizer Summarizer, renderer Renderer, mailer Mailer, deals DealCreator) *Processor {
	return &Processor{
		summarizer: summarizer,
		renderer:   renderer,
		mailer:     mailer,
		deals:      deals,
	}
}

// Process parses point references from a comment, rewrites the description
// for the client and fires the email and CRM side effects. The processed
// issue is returned even when a side effect fails, together with the first
// side effect error.
func (p *Processor) Process(ctx context.Context, issue Issue, opts Options) (Issue, error) {
	if issue.ParsedEntries == nil {
		issue.ParsedEntries = []points.Entry{}
	}
	issue.EmailHTML = ""

	if issue.IsComment() {
		res := points.ExtractText(issue.Comment)
		if !res.Found {
			slog.Info("no point references in comment, skipping", "issue", issue.Number, "repo", issue.Repo)
			if issue.ClientDescription == "" {
				issue.ClientDescription = NoDescriptionInput
			}
			issue.Skipped = true
			return issue, p.sideEffects(ctx, &issue, false, opts)
		}
		issue.ParsedEntries = res.Entries
		slog.Info("parsed point references", "issue", issue.Number, "entries", len(res.Entries))
	}

	summary := p.summarizer.Summarize(ctx, issue.FullDescription)
	issue.ClientDescription = summary
	if summary == NoDescriptionInput {
		issue.FullDescription = NoDescriptionOutput
	} else {
		issue.FullDescription = summary
	}

	var renderErr error
	notify := issue.FullDescription != "" && issue.FullDescription != NoDescriptionOutput
	if notify {
		var buf strings.Builder
		if err := p.renderer.RenderOffer(&buf, &issue); err != nil {
			renderErr = fmt.Errorf("render offer email: %w", err)
			notify = false
		} else {
			issue.EmailHTML = buf.String()
		}
	}

	if err := p.sideEffects(ctx, &issue, notify, opts); err != nil {
		return issue, err
	}
	return issue, renderErr
}

func (p *Processor) sideEffects(ctx context.Context, issue *Issue, notify bool, opts Options) error {
	var g errgroup.Group

	if notify {
		g.Go(func() error {
			if err := p.mailer.SendOffer(ctx, issue.EmailHTML, issue.Number, issue.Repo); err != nil {
				slog.Error("failed to send offer email", "issue", issue.Number, "repo", issue.Repo, "error", err)
				return fmt.Errorf("send offer email: %w", err)
			}
			slog.Info("sent offer email", "issue", issue.Number, "repo", issue.Repo)
			return nil
		})
	}

	if opts.CreateDeal && p.deals != nil {
		g.Go(func() error {
			if err := p.deals.CreateDeal(ctx, issue.Title, issue.FullDescription); err != nil {
				slog.Error("failed to create deal", "issue", issue.Number, "repo", issue.Repo, "error", err)
				return fmt.Errorf("create deal: %w", err)
			}
			slog.Info("created deal", "issue", issue.Number, "repo", issue.Repo)
			return nil
		})
	}

	return g.Wait()
}
