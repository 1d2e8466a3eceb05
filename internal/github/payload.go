package github

import (
	"strings"

	"github.com/tidwall/gjson"

	"miren.dev/issue-offer-bridge/internal/offer"
)

// Some relays deliver the webhook as [{"body": <payload>, ...}].
func unwrapPayload(body []byte) gjson.Result {
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		if inner := root.Get("0.body"); inner.Exists() && inner.IsObject() {
			return inner
		}
	}
	return root
}

// ExtractIssue reads the issue (and comment, if any) out of an issues or
// issue_comment payload.
func ExtractIssue(body []byte) offer.Issue {
	payload := unwrapPayload(body)
	issue := payload.Get("issue")

	repo := payload.Get("repository.full_name").String()
	if repo == "" {
		repo = "N/A"
	}

	return offer.Issue{
		Title:           issue.Get("title").String(),
		Number:          issue.Get("number").String(),
		FullDescription: issue.Get("body").String(),
		Status:          issue.Get("state").String(),
		Author:          issue.Get("user.login").String(),
		Repo:            repo,
		URL:             issue.Get("html_url").String(),
		Created:         issue.Get("created_at").String(),
		Labels:          joinNames(issue.Get("labels.#.name")),
		Assignees:       joinNames(issue.Get("assignees.#.login")),
		Comment:         payload.Get("comment.body").String(),
	}
}

func payloadAction(body []byte) string {
	return unwrapPayload(body).Get("action").String()
}

func joinNames(list gjson.Result) string {
	var names []string
	for _, n := range list.Array() {
		if s := n.String(); s != "" {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
