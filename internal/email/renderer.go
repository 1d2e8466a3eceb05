package email

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"miren.dev/issue-offer-bridge/internal/offer"
)

//go:embed templates/*.html
var templateFS embed.FS

// Descriptions come from the summarizer or straight from GitHub, so raw HTML
// in them is escaped rather than passed through.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
	),
)

const dateLayout = "02.01.2006"

type Renderer struct {
	templates *template.Template
	now       func() time.Time
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{
		templates: tmpl,
		now:       time.Now,
	}, nil
}

type offerPageData struct {
	Number          string
	Title           string
	DescriptionHTML template.HTML
	PointValue      string
	Status          string
	Author          string
	Repo            string
	Date            string
	URL             string
}

func (r *Renderer) RenderOffer(w io.Writer, issue *offer.Issue) error {
	return r.templates.ExecuteTemplate(w, "offer.html", offerPageData{
		Number:          orDefault(issue.Number, "N/A"),
		Title:           orDefault(issue.Title, "No Title"),
		DescriptionHTML: renderMarkdown(issue.FullDescription),
		PointValue:      PointValue(issue),
		Status:          orDefault(issue.Status, "Open"),
		Author:          orDefault(issue.Author, "unknown"),
		Repo:            orDefault(issue.Repo, "N/A"),
		Date:            r.formatDate(issue.Created),
		URL:             orDefault(issue.URL, "#"),
	})
}

// PointValue joins the parsed references for display, e.g. "Sales 5 7".
func PointValue(issue *offer.Issue) string {
	if len(issue.ParsedEntries) == 0 {
		return "N/A"
	}
	parts := make([]string, len(issue.ParsedEntries))
	for i, e := range issue.ParsedEntries {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

func (r *Renderer) formatDate(created string) string {
	if created == "" {
		return r.now().Format(dateLayout)
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, created); err == nil {
			return t.Format(dateLayout)
		}
	}
	return "N/A"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}
