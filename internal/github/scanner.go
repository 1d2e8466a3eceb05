package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"miren.dev/issue-offer-bridge/internal/points"
)

// Finding is a single issue comment that carries points references.
type Finding struct {
	CommentURL string         `json:"commentUrl"`
	IssueURL   string         `json:"issueUrl"`
	Author     string         `json:"author"`
	Created    string         `json:"created"`
	Entries    []points.Entry `json:"entries"`
}

type RepoScanner struct {
	baseURL    string
	token      string
	owner      string
	repo       string
	httpClient *http.Client
}

func NewRepoScanner(token, owner, repo string) *RepoScanner {
	return &RepoScanner{
		baseURL:    "https://api.github.com",
		token:      token,
		owner:      owner,
		repo:       repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ScanComments walks every issue comment in the repository and returns the
// ones the points extractor finds references in, oldest first.
func (s *RepoScanner) ScanComments(ctx context.Context, since string) ([]Finding, error) {
	url := s.repoURL("/issues/comments?sort=created&direction=asc")
	if since != "" {
		url += "&since=" + since
	}

	var findings []Finding
	scanned := 0
	err := s.paginate(ctx, "issue comments", url, func(body []byte) (int, error) {
		if !gjson.ValidBytes(body) {
			return 0, fmt.Errorf("invalid JSON in comments page")
		}
		comments := gjson.ParseBytes(body).Array()
		for _, c := range comments {
			result := points.ExtractText(c.Get("body").String())
			if !result.Found {
				continue
			}
			findings = append(findings, Finding{
				CommentURL: c.Get("html_url").String(),
				IssueURL:   issueHTMLURL(c),
				Author:     c.Get("user.login").String(),
				Created:    c.Get("created_at").String(),
				Entries:    result.Entries,
			})
		}
		scanned += len(comments)
		return len(comments), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan issue comments: %w", err)
	}

	slog.Info("finished scanning", "comments", scanned, "findings", len(findings))
	return findings, nil
}

// The comments API only returns the API URL of the parent issue; the
// comment's html_url carries the browser one with a fragment.
func issueHTMLURL(comment gjson.Result) string {
	if u := comment.Get("html_url").String(); u != "" {
		if i := strings.Index(u, "#"); i >= 0 {
			return u[:i]
		}
		return u
	}
	return comment.Get("issue_url").String()
}

func (s *RepoScanner) repoURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", s.baseURL, s.owner, s.repo, path)
}

func (s *RepoScanner) paginate(ctx context.Context, source, url string, decode func([]byte) (int, error)) error {
	if !strings.Contains(url, "per_page=") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "per_page=100"
	}

	page := 0
	total := 0
	for url != "" {
		page++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("GitHub API %s: %s", resp.Status, gjson.GetBytes(body, "message").String())
		}

		n, err := decode(body)
		if err != nil {
			return err
		}
		total += n

		url = nextPageURL(resp.Header.Get("Link"))
		if url != "" {
			slog.Info("fetching next page", "source", source, "page", page+1, "items_so_far", total)
		}
	}
	return nil
}

var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

func nextPageURL(linkHeader string) string {
	m := linkNextRe.FindStringSubmatch(linkHeader)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
