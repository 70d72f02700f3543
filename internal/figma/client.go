// Package figma is the design-file API client used for metadata enrichment
// and team sync.
package figma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/internal/retry"
	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// DefaultBaseURL is the design-file API root
	DefaultBaseURL = "https://api.figma.com/v1"

	// MetaDepth is the tree depth fetched for enrichment: pages and their
	// top-level layers are enough for the manifest and the content index
	// as shipped by the original dashboard.
	MetaDepth = 2

	// MaxFramesPerPage caps the manifest sent to the AI analyzer
	MaxFramesPerPage = 5

	requestTimeout = 30 * time.Second
)

var (
	// ErrMissingToken is returned when no access token is configured
	ErrMissingToken = errors.New("figma access token missing")
	// ErrNotFigmaURL is returned when a URL carries no recognizable file key
	ErrNotFigmaURL = errors.New("not a figma file url")
)

// TokenFunc supplies the current access token. Tokens live in runtime
// settings and can change without a restart.
type TokenFunc func(ctx context.Context) (string, error)

// StaticToken wraps a fixed token as a TokenFunc
func StaticToken(token string) TokenFunc {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// Client calls the design-file REST API
type Client struct {
	token      TokenFunc
	baseURL    string
	httpClient *http.Client
	retry      retry.Config
	logger     *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRetry overrides the backoff configuration
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a design-file API client
func NewClient(token TokenFunc, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		retry:  retry.DefaultConfig(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project is one team project as listed by the projects endpoint
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectFile is one file within a project
type ProjectFile struct {
	Key          string     `json:"key"`
	Name         string     `json:"name"`
	ThumbnailURL string     `json:"thumbnail_url"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// GetFile fetches a file's document tree at the given depth. Zero depth
// fetches the full tree.
func (c *Client) GetFile(ctx context.Context, fileKey string, depth int) (*types.DocumentFile, error) {
	url := fmt.Sprintf("%s/files/%s", c.baseURL, fileKey)
	if depth > 0 {
		url = fmt.Sprintf("%s?depth=%d", url, depth)
	}

	var file types.DocumentFile
	if err := c.get(ctx, url, &file); err != nil {
		return nil, fmt.Errorf("failed to fetch file %s: %w", fileKey, err)
	}
	return &file, nil
}

// GetThumbnail returns a file's cover image URL, empty when the API reports
// none
func (c *Client) GetThumbnail(ctx context.Context, fileKey string) (string, error) {
	file, err := c.GetFile(ctx, fileKey, 1)
	if err != nil {
		return "", err
	}
	if file.ThumbnailURL == "" {
		c.logger.Warn("no thumbnail in file response", zap.String("file_key", fileKey))
	}
	return file.ThumbnailURL, nil
}

// GetTeamProjects lists the projects of a team
func (c *Client) GetTeamProjects(ctx context.Context, teamID string) ([]Project, error) {
	url := fmt.Sprintf("%s/teams/%s/projects", c.baseURL, teamID)

	var resp struct {
		Projects []Project `json:"projects"`
	}
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch team %s projects: %w", teamID, err)
	}
	return resp.Projects, nil
}

// GetProjectFiles lists the files of a project
func (c *Client) GetProjectFiles(ctx context.Context, projectID string) ([]ProjectFile, error) {
	url := fmt.Sprintf("%s/projects/%s/files", c.baseURL, projectID)

	var resp struct {
		Files []ProjectFile `json:"files"`
	}
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch project %s files: %w", projectID, err)
	}
	return resp.Files, nil
}

// BuildManifest reduces a file tree to the page/frame summary sent to the AI
// analyzer: every page with up to MaxFramesPerPage top-level frame names.
func BuildManifest(file *types.DocumentFile) []types.PageSummary {
	manifest := make([]types.PageSummary, 0)
	if file == nil || file.Document == nil {
		return manifest
	}

	for _, page := range file.Document.Children {
		summary := types.PageSummary{Name: page.Name, Frames: []string{}}
		for _, child := range page.Children {
			if child.Type != types.NodeFrame {
				continue
			}
			summary.Frames = append(summary.Frames, child.Name)
			if len(summary.Frames) == MaxFramesPerPage {
				break
			}
		}
		manifest = append(manifest, summary)
	}
	return manifest
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrMissingToken
	}

	body, err := retry.Do(ctx, c.retry, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Figma-Token", token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, truncateBody(data))
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(body, out)
}

func truncateBody(data []byte) string {
	const max = 200
	if len(data) > max {
		return string(data[:max])
	}
	return string(data)
}
