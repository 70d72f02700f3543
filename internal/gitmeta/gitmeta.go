// Package gitmeta fetches code-repository metadata for indexed GitHub links.
package gitmeta

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// ReadmeContextLimit caps the README snippet fed to the summarizer
	ReadmeContextLimit = 2000
)

// ErrNotRepoURL is returned when a URL does not point at a repository
var ErrNotRepoURL = errors.New("not a github repository url")

var repoPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

// RepoMeta is the enrichment extracted from a repository
type RepoMeta struct {
	Title        string     // Description when present, else full name
	FullName     string
	Description  string
	AuthorName   string
	LastEditedAt *time.Time // Last push
	Context      string     // Combined text handed to the summarizer
}

// Client wraps the code-hosting API
type Client struct {
	gh     *github.Client
	logger *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		if parsed, err := url.Parse(baseURL); err == nil {
			c.gh.BaseURL = parsed
		}
	}
}

// NewClient creates a metadata client. An empty token uses unauthenticated
// access, which is rate-limited but works for public repositories.
func NewClient(token string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	gh := github.NewClient(nil)
	if token != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(context.Background(), source))
	}
	c := &Client{gh: gh, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseRepoURL extracts owner and repository name from a URL
func ParseRepoURL(url string) (owner, repo string, err error) {
	matches := repoPattern.FindStringSubmatch(url)
	if matches == nil {
		return "", "", ErrNotRepoURL
	}
	return matches[1], strings.TrimSuffix(matches[2], ".git"), nil
}

// Meta fetches repository details plus a README snippet and shapes them for
// summarization
func (c *Client) Meta(ctx context.Context, url string) (*RepoMeta, error) {
	owner, repo, err := ParseRepoURL(url)
	if err != nil {
		return nil, err
	}

	repository, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repo %s/%s: %w", owner, repo, err)
	}

	meta := &RepoMeta{
		FullName:    repository.GetFullName(),
		Description: repository.GetDescription(),
		AuthorName:  repository.GetOwner().GetLogin(),
	}
	meta.Title = meta.Description
	if meta.Title == "" {
		meta.Title = meta.FullName
	}
	if pushed := repository.GetPushedAt(); !pushed.IsZero() {
		t := pushed.Time
		meta.LastEditedAt = &t
	}

	// README fetch is best effort; a missing README still yields usable meta
	readme := ""
	if content, _, err := c.gh.Repositories.GetReadme(ctx, owner, repo, nil); err == nil {
		if text, err := content.GetContent(); err == nil {
			readme = truncate(text, ReadmeContextLimit)
		}
	} else {
		c.logger.Debug("no readme", zap.String("repo", meta.FullName), zap.Error(err))
	}

	meta.Context = buildContext(repository, readme)
	return meta, nil
}

func buildContext(repository *github.Repository, readme string) string {
	description := repository.GetDescription()
	if description == "" {
		description = "No description"
	}
	topics := "None"
	if len(repository.Topics) > 0 {
		topics = strings.Join(repository.Topics, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Repo: %s\n", repository.GetFullName())
	fmt.Fprintf(&b, "Description: %s\n", description)
	fmt.Fprintf(&b, "Topics: %s\n", topics)
	fmt.Fprintf(&b, "Language: %s\n", repository.GetLanguage())
	fmt.Fprintf(&b, "README Snippet:\n%s", readme)
	return strings.TrimSpace(b.String())
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
