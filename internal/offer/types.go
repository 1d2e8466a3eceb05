package offer

import "miren.dev/issue-offer-bridge/internal/points"

const (
	NoDescriptionInput  = "No issue description was provided."
	NoDescriptionOutput = "No description provided."
)

// Issue is the structured form of a GitHub issue or issue comment event,
// plus the results of processing it.
type Issue struct {
	Title           string
	Number          string
	FullDescription string
	Status          string
	Author          string
	Repo            string
	URL             string
	Created         string
	Labels          string
	Assignees       string
	Comment         string

	ParsedEntries     []points.Entry
	ClientDescription string
	EmailHTML         string
	Skipped           bool
}

func (i *Issue) IsComment() bool {
	return i.Comment != ""
}
