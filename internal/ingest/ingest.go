// Package ingest turns shared links into enriched, persisted resources.
//
// The pipeline classifies a URL, checks for duplicates, fetches provider
// metadata (design-file structure, repository details), runs AI enrichment,
// and writes the resource plus any captured chat context to storage. Team
// sync walks a design team's projects and ingests every file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/internal/contentindex"
	"github.com/dejoiner/dejoiner/internal/figma"
	"github.com/dejoiner/dejoiner/internal/gitmeta"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/internal/summarizer"
	"github.com/dejoiner/dejoiner/pkg/types"
)

// ErrDuplicate is returned when the link is already indexed; the existing
// resource rides along in DuplicateError.
var ErrDuplicate = errors.New("resource already indexed")

// DuplicateError carries the already-indexed resource for duplicate prompts
type DuplicateError struct {
	Existing *types.Resource
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("resource already indexed as %q", e.Existing.DisplayTitle())
}

// Unwrap makes errors.Is(err, ErrDuplicate) work
func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// Store is the slice of the resource store the ingest pipeline needs
type Store interface {
	InsertResource(ctx context.Context, r *types.Resource) error
	DeleteResource(ctx context.Context, id string) error
	GetResourceByIDPrefix(ctx context.Context, prefix string) (*types.Resource, error)
	FindResourceByURL(ctx context.Context, url string) (*types.Resource, error)
	FindResourceByURLFragment(ctx context.Context, fragment string) (*types.Resource, error)
	AddContextNote(ctx context.Context, note *types.ContextNote) error
	UpsertProject(ctx context.Context, project *storage.Project) error
}

// SearchInvalidator drops cached search responses after writes
type SearchInvalidator interface {
	InvalidateCache()
}

// SaveRequest is one link to ingest
type SaveRequest struct {
	URL          string
	Title        string // Optional override; enrichment fills it otherwise
	Context      string // Chat text captured around the link
	AuthorName   string
	AuthorAvatar string

	// ReplaceContext skips duplicate rejection and attaches the context to
	// the existing resource instead
	ReplaceContext bool
}

// Service runs the ingest pipeline
type Service struct {
	store   Store
	figma   *figma.Client
	git     *gitmeta.Client
	ai      summarizer.Provider
	indexer *contentindex.Indexer
	search  SearchInvalidator
	logger  *zap.Logger
	workers int
}

// NewService wires the ingest pipeline. search may be nil when no cache
// needs invalidation (tests, one-shot tools).
func NewService(store Store, figmaClient *figma.Client, gitClient *gitmeta.Client,
	ai summarizer.Provider, search SearchInvalidator, workers int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 4
	}
	return &Service{
		store:   store,
		figma:   figmaClient,
		git:     gitClient,
		ai:      ai,
		indexer: contentindex.New(),
		search:  search,
		logger:  logger,
		workers: workers,
	}
}

// FindDuplicate returns the already-indexed resource for url, or nil. Design
// links match on file key so the same file under a different URL shape is
// still caught; everything else matches on exact URL.
func (s *Service) FindDuplicate(ctx context.Context, url string, resourceType types.ResourceType) (*types.Resource, error) {
	var existing *types.Resource
	var err error

	if key := DuplicateKey(url, resourceType); key != "" {
		existing, err = s.store.FindResourceByURLFragment(ctx, key)
	} else {
		existing, err = s.store.FindResourceByURL(ctx, url)
	}

	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Save ingests a single link: classify, duplicate-check, enrich, persist,
// capture context, invalidate the search cache.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*types.Resource, error) {
	resourceType := ClassifyURL(req.URL)

	existing, err := s.FindDuplicate(ctx, req.URL, resourceType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !req.ReplaceContext {
			return nil, &DuplicateError{Existing: existing}
		}
		if err := s.attachContext(ctx, existing.ID, req); err != nil {
			return nil, err
		}
		return existing, nil
	}

	resource := &types.Resource{
		URL:          req.URL,
		Type:         resourceType,
		Title:        req.Title,
		Version:      "v1.0",
		AuthorName:   req.AuthorName,
		AuthorAvatar: req.AuthorAvatar,
	}
	s.enrich(ctx, resource)
	if req.Title != "" {
		resource.Title = req.Title
	}

	if err := s.store.InsertResource(ctx, resource); err != nil {
		return nil, err
	}
	if err := s.attachContext(ctx, resource.ID, req); err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.InvalidateCache()
	}
	s.logger.Info("resource indexed",
		zap.String("id", resource.ID),
		zap.String("type", string(resource.Type)),
		zap.String("title", resource.Title),
	)
	return resource, nil
}

// Delete removes a resource by ID prefix and invalidates the search cache
func (s *Service) Delete(ctx context.Context, idPrefix string) (*types.Resource, error) {
	resource, err := s.store.GetResourceByIDPrefix(ctx, idPrefix)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteResource(ctx, resource.ID); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.InvalidateCache()
	}
	return resource, nil
}

// enrich fills type-specific metadata. Enrichment is best effort: provider
// failures degrade to a bare resource, they never block the save.
func (s *Service) enrich(ctx context.Context, resource *types.Resource) {
	switch resource.Type {
	case types.ResourceFigma, types.ResourceFigJam:
		s.enrichFigma(ctx, resource)
	case types.ResourceGitHub:
		s.enrichGitHub(ctx, resource)
	case types.ResourceDocs, types.ResourceDrive:
		resource.Title = derivedDocTitle(resource.URL, resource.Type)
	default:
		resource.Title = fallbackTitle(resource.URL)
	}

	if resource.Title == "" {
		resource.Title = fallbackTitle(resource.URL)
	}
	if resource.LastEditedAt == nil {
		now := time.Now()
		resource.LastEditedAt = &now
	}
}

func (s *Service) enrichFigma(ctx context.Context, resource *types.Resource) {
	fileKey, err := figma.ExtractFileKey(resource.URL)
	if err != nil {
		s.logger.Warn("unrecognized design url", zap.String("url", resource.URL))
		return
	}

	file, err := s.figma.GetFile(ctx, fileKey, figma.MetaDepth)
	if err != nil {
		s.logger.Warn("design file fetch failed", zap.String("file_key", fileKey), zap.Error(err))
		return
	}

	resource.Title = file.Name
	resource.ThumbnailURL = file.ThumbnailURL
	resource.LastEditedAt = file.LastModified
	resource.ContentIndex = s.indexer.Extract(file)

	manifest := figma.BuildManifest(file)
	analysis, err := s.ai.AnalyzeStructure(ctx, file.Name, manifest)
	if err != nil {
		s.logger.Warn("structure analysis failed", zap.String("file_key", fileKey), zap.Error(err))
		return
	}
	resource.Metadata = &types.ResourceMetadata{
		Frames:    analysis.KeyFrames,
		AISummary: analysis.Summary,
		Milestone: analysis.Milestone,
	}
}

func (s *Service) enrichGitHub(ctx context.Context, resource *types.Resource) {
	meta, err := s.git.Meta(ctx, resource.URL)
	if err != nil {
		s.logger.Warn("repo metadata fetch failed", zap.String("url", resource.URL), zap.Error(err))
		if owner, repo, perr := gitmeta.ParseRepoURL(resource.URL); perr == nil {
			resource.Title = owner + "/" + repo
		}
		return
	}

	resource.Title = meta.Title
	resource.AuthorName = firstNonEmpty(resource.AuthorName, meta.AuthorName)
	resource.LastEditedAt = meta.LastEditedAt

	summary, err := s.ai.Summarize(ctx, meta.Context)
	if err != nil {
		summary = summarizer.FallbackSummary(meta.Context)
	}
	resource.Metadata = &types.ResourceMetadata{AISummary: summary}
}

// attachContext stores the captured chat context with its summary
func (s *Service) attachContext(ctx context.Context, resourceID string, req SaveRequest) error {
	if req.Context == "" {
		return nil
	}

	summary, err := s.ai.Summarize(ctx, req.Context)
	if err != nil {
		summary = summarizer.FallbackSummary(req.Context)
	}

	return s.store.AddContextNote(ctx, &types.ContextNote{
		ResourceID: resourceID,
		ChatText:   req.Context,
		Summary:    summary,
		AuthorName: req.AuthorName,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
