package storage

import (
	"context"
	"time"

	"github.com/dejoiner/dejoiner/pkg/types"
)

// Store defines the interface for persisting and querying indexed resources
type Store interface {
	// Resource operations
	InsertResource(ctx context.Context, r *types.Resource) error
	UpdateResource(ctx context.Context, r *types.Resource) error
	DeleteResource(ctx context.Context, id string) error
	GetResource(ctx context.Context, id string) (*types.Resource, error)
	GetResourceByIDPrefix(ctx context.Context, prefix string) (*types.Resource, error)
	FindResourceByURL(ctx context.Context, url string) (*types.Resource, error)
	FindResourceByURLFragment(ctx context.Context, fragment string) (*types.Resource, error)
	ListRecent(ctx context.Context, limit int) ([]types.Resource, error)
	ListResources(ctx context.Context, opts ListOptions) ([]types.Resource, int, error)
	SearchTitleURL(ctx context.Context, query string, limit int) ([]types.Resource, error)

	// Context notes
	AddContextNote(ctx context.Context, note *types.ContextNote) error
	ListContextNotes(ctx context.Context, resourceID string) ([]types.ContextNote, error)

	// Projects discovered during team sync
	UpsertProject(ctx context.Context, project *Project) error
	ListProjects(ctx context.Context) ([]Project, error)

	// Runtime settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]string, error)

	// Status operations
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// ListOptions narrows and pages a resource listing
type ListOptions struct {
	Type   types.ResourceType // Empty means all types
	Limit  int
	Offset int
}

// Project represents a design-tool project discovered during team sync
type Project struct {
	ID           string
	Name         string
	TeamID       string
	FileCount    int
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stats contains counts reported by the admin surfaces
type Stats struct {
	TotalResources int
	ByType         map[types.ResourceType]int
	ContextNotes   int
	Projects       int
	LatestAddition time.Time
}
