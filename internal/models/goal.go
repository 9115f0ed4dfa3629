package models

import (
	"fmt"
	"strings"
	"time"
)

// Goal statuses as reported by the server. Transitions are monotonic:
// an active goal may become completed or failed, terminal goals never
// change again on the client.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Completion types determine how the server interprets the completion
// condition. The client never evaluates completion itself.
const (
	CompletionIssue         = "issue"
	CompletionCommitMessage = "commit_message"
)

// Goal is a single time-boxed commitment tied to a repository.
type Goal struct {
	ID                  string     `json:"id"`
	Description         string     `json:"description"`
	Deadline            string     `json:"deadline"`                   // canonical UTC timestamp, authoritative
	DeadlineDisplay     string     `json:"deadline_display,omitempty"` // user-facing DD/MM/YYYY HH:MM, rehydration hint only
	RepoURL             string     `json:"repo_url"`
	CompletionCondition string     `json:"completion_condition"`
	CompletionType      string     `json:"completion_type"`
	Status              string     `json:"status"`
	EmbedURL            string     `json:"embed_url,omitempty"` // server-assigned, read-only
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

// Active reports whether the goal still has a running deadline.
func (g *Goal) Active() bool {
	return g.Status == StatusActive
}

// Terminal reports whether the goal reached a final status.
func (g *Goal) Terminal() bool {
	return g.Status == StatusCompleted || g.Status == StatusFailed
}

// RepoName returns the short "owner/repo" form of the repository URL.
func (g *Goal) RepoName() string {
	owner, name, err := SplitRepoURL(g.RepoURL)
	if err != nil {
		return g.RepoURL
	}
	return owner + "/" + name
}

// SplitRepoURL extracts the owner and repository name from a repository URL,
// stripping a trailing ".git" suffix if present.
func SplitRepoURL(repoURL string) (owner, name string, err error) {
	trimmed := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid repository URL %q: expected format https://github.com/owner/repo", repoURL)
	}
	owner = parts[len(parts)-2]
	name = strings.TrimSuffix(parts[len(parts)-1], ".git")
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository URL %q: expected format https://github.com/owner/repo", repoURL)
	}
	return owner, name, nil
}

// ValidCompletionType reports whether t is one of the supported completion types.
func ValidCompletionType(t string) bool {
	return t == CompletionIssue || t == CompletionCommitMessage
}
