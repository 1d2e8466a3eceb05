package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"miren.dev/issue-offer-bridge/internal/github"
	"miren.dev/issue-offer-bridge/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		repo     string
		since    string
		asJSON   bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "scan",
		Short:         "Report issue comments that carry points references",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel))

			owner, name, err := splitRepo(repo)
			if err != nil {
				return err
			}

			token := os.Getenv("GITHUB_TOKEN")
			if token == "" {
				token = ghAuthToken()
			}

			scanner := github.NewRepoScanner(token, owner, name)
			findings, err := scanner.ScanComments(cmd.Context(), since)
			if err != nil {
				return fmt.Errorf("scan repo: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(findings)
			}
			printFindings(cmd.OutOrStdout(), findings)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "GitHub owner/repo to scan")
	cmd.Flags().StringVar(&since, "since", "", "only comments updated at or after this ISO 8601 timestamp")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print findings as JSON")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.MarkFlagRequired("repo")

	return cmd
}

func splitRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q, want owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

func printFindings(w io.Writer, findings []github.Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "no points references found")
		return
	}
	for _, f := range findings {
		refs := make([]string, len(f.Entries))
		for i, e := range f.Entries {
			refs[i] = e.String()
		}
		fmt.Fprintf(w, "%s  %s  %s\n", f.IssueURL, f.Author, strings.Join(refs, ", "))
	}
	fmt.Fprintf(w, "\n%d comments with points references\n", len(findings))
}

func ghAuthToken() string {
	out, err := exec.Command("gh", "auth", "token").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
