package points

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

const (
	MessageFound    = "Entries successfully parsed"
	MessageNotFound = "No valid entries found"
)

// space is the wider whitespace set comment text is written with: RE2's \s
// plus vertical tab, the Unicode space separators (no-break space among
// them), the line and paragraph separators and the byte order mark.
const space = `\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}`

// The trailing group stands in for a "no word character follows" lookahead,
// which RE2 cannot express. It is consumed by the match, so scanning resumes
// at its start.
var referencePattern = regexp.MustCompile(
	`(?:([A-Za-z0-9&` + space + `]+?)?[` + space + `]*)?` +
		`(?:[Pp][Tt][:\-]?[` + space + `]*(\d+)|(\d+)[` + space + `]*[Pp][Tt])` +
		`([^A-Za-z0-9_]|$)`,
)

var noiseWords = map[string]bool{
	"and":  true,
	"for":  true,
	"also": true,
}

// Source is a comment envelope. The body is either given directly or nested
// one level deep as comment.body.
type Source struct {
	Body    string
	Comment *Comment
}

type Comment struct {
	Body string
}

// Text resolves the comment body, preferring the plain form.
func (s Source) Text() string {
	if s.Body != "" {
		return s.Body
	}
	if s.Comment != nil {
		return s.Comment.Body
	}
	return ""
}

// SourceFromJSON decodes {"body": "..."} or {"body": {"comment": {"body": "..."}}}.
func SourceFromJSON(raw []byte) Source {
	body := gjson.GetBytes(raw, "body")
	switch {
	case body.Type == gjson.String:
		return Source{Body: body.String()}
	case body.IsObject():
		if nested := body.Get("comment.body"); nested.Type == gjson.String {
			return Source{Comment: &Comment{Body: nested.String()}}
		}
	}
	return Source{}
}

type Entry struct {
	Department    string
	Points        string
	SourceComment string
}

func (e Entry) MarshalJSON() ([]byte, error) {
	var dept *string
	if e.Department != "" {
		dept = &e.Department
	}
	return json.Marshal(struct {
		Department    *string `json:"department"`
		Points        string  `json:"points"`
		SourceComment string  `json:"sourceComment"`
	}{dept, e.Points, e.SourceComment})
}

// String renders the entry as "<department> <points>", or just the points
// when there is no department.
func (e Entry) String() string {
	if e.Department == "" {
		return e.Points
	}
	return e.Department + " " + e.Points
}

type Result struct {
	Entries []Entry `json:"entries"`
	Message string  `json:"message"`
	Found   bool    `json:"found"`
}

// Extract returns the references of the first source whose text yields any.
func Extract(sources ...Source) Result {
	for _, src := range sources {
		text := src.Text()
		if !HasKeyword(text) {
			continue
		}
		if entries := scan(text); len(entries) > 0 {
			return Result{Entries: entries, Message: MessageFound, Found: true}
		}
	}
	return Result{Entries: []Entry{}, Message: MessageNotFound, Found: false}
}

// ExtractText is Extract for a single plain comment body.
func ExtractText(text string) Result {
	return Extract(Source{Body: text})
}

// HasKeyword reports whether text contains "pt" in any casing.
func HasKeyword(text string) bool {
	return strings.Contains(strings.ToLower(text), "pt")
}

func scan(text string) []Entry {
	var entries []Entry
	pos := 0
	for pos < len(text) {
		loc := referencePattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}

		entries = append(entries, Entry{
			Department:    department(group(text[pos:], loc, 1)),
			Points:        group(text[pos:], loc, 2) + group(text[pos:], loc, 3),
			SourceComment: text,
		})

		pos += loc[8]
	}
	return entries
}

func group(s string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}

func department(raw string) string {
	dept := strings.TrimFunc(raw, isSpace)
	if noiseWords[strings.ToLower(dept)] {
		return ""
	}
	return dept
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}
