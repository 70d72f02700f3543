package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dejoiner/dejoiner/internal/figma"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/pkg/types"
)

// SyncTeam walks every project of a design team and ingests files that are
// not indexed yet. Files are enriched concurrently with a bounded worker
// pool; individual failures are collected in the stats, they do not abort
// the run.
func (s *Service) SyncTeam(ctx context.Context, teamInput string) (*types.SyncStats, error) {
	start := time.Now()
	teamID := figma.ExtractTeamID(teamInput)

	projects, err := s.figma.GetTeamProjects(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team projects: %w", err)
	}

	stats := &types.SyncStats{ProjectsFound: len(projects)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, project := range projects {
		if err := s.store.UpsertProject(ctx, &storage.Project{
			ID:     project.ID,
			Name:   project.Name,
			TeamID: teamID,
		}); err != nil {
			s.logger.Warn("project upsert failed", zap.String("project", project.Name), zap.Error(err))
		}

		files, err := s.figma.GetProjectFiles(ctx, project.ID)
		if err != nil {
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages,
				fmt.Sprintf("project %s: %v", project.Name, err))
			mu.Unlock()
			continue
		}

		mu.Lock()
		stats.FilesFound += len(files)
		mu.Unlock()

		projectName := project.Name
		for _, file := range files {
			file := file
			g.Go(func() error {
				outcome := s.syncFile(gctx, projectName, file)
				mu.Lock()
				switch outcome.status {
				case syncIndexed:
					stats.FilesIndexed++
				case syncSkipped:
					stats.FilesSkipped++
				case syncFailed:
					stats.FilesFailed++
					stats.ErrorMessages = append(stats.ErrorMessages, outcome.message)
				}
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	if s.search != nil && stats.FilesIndexed > 0 {
		s.search.InvalidateCache()
	}

	s.logger.Info("team sync complete",
		zap.String("team_id", teamID),
		zap.Int("projects", stats.ProjectsFound),
		zap.Int("indexed", stats.FilesIndexed),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("failed", stats.FilesFailed),
		zap.Duration("elapsed", stats.Duration),
	)
	return stats, nil
}

type syncStatus int

const (
	syncIndexed syncStatus = iota
	syncSkipped
	syncFailed
)

type syncOutcome struct {
	status  syncStatus
	message string
}

func (s *Service) syncFile(ctx context.Context, projectName string, file figma.ProjectFile) syncOutcome {
	url := figma.FileURL(file.Key)

	existing, err := s.store.FindResourceByURLFragment(ctx, file.Key)
	if err == nil && existing != nil {
		return syncOutcome{status: syncSkipped}
	}

	resource := &types.Resource{
		URL:          url,
		Type:         types.ResourceFigma,
		Title:        file.Name,
		Version:      "v1.0",
		ProjectName:  projectName,
		ThumbnailURL: file.ThumbnailURL,
		LastEditedAt: file.LastModified,
	}
	s.enrichFigma(ctx, resource)
	if resource.Title == "" {
		resource.Title = file.Name
	}

	if err := s.store.InsertResource(ctx, resource); err != nil {
		return syncOutcome{
			status:  syncFailed,
			message: fmt.Sprintf("file %s: %v", file.Name, err),
		}
	}
	return syncOutcome{status: syncIndexed}
}
