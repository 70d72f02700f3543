package types

import (
	"strings"
	"time"
)

// ResourceType identifies the origin of an indexed resource
type ResourceType string

const (
	ResourceFigma  ResourceType = "figma"
	ResourceFigJam ResourceType = "figjam"
	ResourceGitHub ResourceType = "github"
	ResourceDocs   ResourceType = "docs"
	ResourceDrive  ResourceType = "drive"
	ResourceOther  ResourceType = "other"
)

// Supported reports whether the type is one Dejoiner knows how to enrich
func (t ResourceType) Supported() bool {
	switch t {
	case ResourceFigma, ResourceFigJam, ResourceGitHub, ResourceDocs, ResourceDrive:
		return true
	}
	return false
}

// ResourceMetadata holds the enrichment data attached to a resource.
// Frames and AISummary are produced by the AI structure analysis; both are
// searchable by the relevance engine.
type ResourceMetadata struct {
	Frames    []string `json:"frames,omitempty"`
	AISummary string   `json:"ai_summary,omitempty"`
	Milestone string   `json:"milestone,omitempty"`
}

// Empty reports whether the metadata carries no enrichment at all
func (m *ResourceMetadata) Empty() bool {
	return m == nil || (len(m.Frames) == 0 && m.AISummary == "" && m.Milestone == "")
}

// Resource represents a single indexed design resource
type Resource struct {
	ID           string        `json:"id"`
	URL          string        `json:"url"`
	Type         ResourceType  `json:"type"`
	Title        string        `json:"title"`
	Version      string        `json:"version,omitempty"`
	AuthorName   string        `json:"authorName,omitempty"`
	AuthorAvatar string        `json:"authorAvatar,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	ProjectName  string        `json:"projectName,omitempty"`

	Metadata     *ResourceMetadata `json:"metadata,omitempty"`
	ContentIndex []IndexEntry      `json:"contentIndex,omitempty"`

	LastEditedAt *time.Time `json:"lastEditedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"`
}

// DisplayTitle returns the title for rendering, never empty
func (r *Resource) DisplayTitle() string {
	if strings.TrimSpace(r.Title) == "" {
		return "Untitled"
	}
	return r.Title
}

// Validate checks the resource fields required for persistence
func (r *Resource) Validate() error {
	if r.URL == "" {
		return ErrMissingURL
	}
	if r.Type == "" {
		return ErrMissingType
	}
	return nil
}

// ContextNote is a captured piece of conversation context attached to a
// resource, together with its AI-generated summary.
type ContextNote struct {
	ID         int64     `json:"id"`
	ResourceID string    `json:"resourceId"`
	ChatText   string    `json:"chatText"`
	Summary    string    `json:"summary"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SyncStats summarizes a team-sync run
type SyncStats struct {
	ProjectsFound  int           `json:"projectsFound"`
	FilesFound     int           `json:"filesFound"`
	FilesIndexed   int           `json:"filesIndexed"`
	FilesSkipped   int           `json:"filesSkipped"`
	FilesFailed    int           `json:"filesFailed"`
	Duration       time.Duration `json:"-"`
	ErrorMessages  []string      `json:"errors,omitempty"`
}
