package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejoiner/dejoiner/internal/figma"
	"github.com/dejoiner/dejoiner/internal/gitmeta"
	"github.com/dejoiner/dejoiner/internal/retry"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/internal/summarizer"
	"github.com/dejoiner/dejoiner/pkg/types"
)

const testFileKey = "a1B2c3D4e5F6g7H8i9J0k1" // 22 chars, a real-looking file key

type fakeStore struct {
	resources map[string]*types.Resource
	notes     []types.ContextNote
	projects  map[string]*storage.Project
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resources: make(map[string]*types.Resource),
		projects:  make(map[string]*storage.Project),
	}
}

func (f *fakeStore) InsertResource(_ context.Context, r *types.Resource) error {
	if r.ID == "" {
		f.nextID++
		r.ID = fmt.Sprintf("res-%d", f.nextID)
	}
	for _, existing := range f.resources {
		if existing.URL == r.URL {
			return storage.ErrAlreadyExists
		}
	}
	clone := *r
	f.resources[r.ID] = &clone
	return nil
}

func (f *fakeStore) DeleteResource(_ context.Context, id string) error {
	if _, ok := f.resources[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.resources, id)
	return nil
}

func (f *fakeStore) GetResourceByIDPrefix(_ context.Context, prefix string) (*types.Resource, error) {
	var found *types.Resource
	for id, r := range f.resources {
		if strings.HasPrefix(id, prefix) {
			if found != nil {
				return nil, storage.ErrAmbiguousPrefix
			}
			found = r
		}
	}
	if found == nil {
		return nil, storage.ErrNotFound
	}
	return found, nil
}

func (f *fakeStore) FindResourceByURL(_ context.Context, url string) (*types.Resource, error) {
	for _, r := range f.resources {
		if r.URL == url {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) FindResourceByURLFragment(_ context.Context, fragment string) (*types.Resource, error) {
	for _, r := range f.resources {
		if strings.Contains(r.URL, fragment) {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) AddContextNote(_ context.Context, note *types.ContextNote) error {
	note.ID = int64(len(f.notes) + 1)
	f.notes = append(f.notes, *note)
	return nil
}

func (f *fakeStore) UpsertProject(_ context.Context, project *storage.Project) error {
	clone := *project
	f.projects[project.ID] = &clone
	return nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateCache() { f.calls++ }

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func figmaTestClient(t *testing.T, handler http.Handler) *figma.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return figma.NewClient(figma.StaticToken("figd_test"), nil,
		figma.WithBaseURL(server.URL), figma.WithRetry(fastRetry()))
}

func newTestService(t *testing.T, store Store, figmaClient *figma.Client, gitClient *gitmeta.Client, ai summarizer.Provider) (*Service, *fakeInvalidator) {
	t.Helper()
	inv := &fakeInvalidator{}
	if ai == nil {
		ai = &summarizer.Mock{}
	}
	return NewService(store, figmaClient, gitClient, ai, inv, 2, nil), inv
}

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		url  string
		want types.ResourceType
	}{
		{"https://www.figma.com/board/jam1/Retro", types.ResourceFigJam},
		{"https://www.figma.com/file/abc/Checkout", types.ResourceFigma},
		{"https://www.figma.com/design/abc/Checkout", types.ResourceFigma},
		{"https://github.com/acme/widgets", types.ResourceGitHub},
		{"https://docs.google.com/document/d/abc123def456/edit", types.ResourceDocs},
		{"https://docs.google.com/spreadsheets/d/abc123def456", types.ResourceDocs},
		{"https://drive.google.com/drive/folders/xyz", types.ResourceDrive},
		{"https://example.com/whatever", types.ResourceOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyURL(tt.url), tt.url)
	}
}

func TestDuplicateKey(t *testing.T) {
	url := "https://www.figma.com/file/" + testFileKey + "/Checkout"
	assert.Equal(t, testFileKey, DuplicateKey(url, types.ResourceFigma))

	// Short slugs are not keys
	assert.Empty(t, DuplicateKey("https://www.figma.com/file/short/X", types.ResourceFigma))
	// Non-design types match by exact URL instead
	assert.Empty(t, DuplicateKey("https://github.com/acme/widgets", types.ResourceGitHub))
}

func TestSave_DocsLink(t *testing.T) {
	store := newFakeStore()
	svc, inv := newTestService(t, store, nil, nil, nil)

	resource, err := svc.Save(context.Background(), SaveRequest{
		URL:        "https://docs.google.com/document/d/abc123def456ghi/edit",
		Context:    "design brief for the spring launch",
		AuthorName: "dana",
	})
	require.NoError(t, err)

	assert.Equal(t, types.ResourceDocs, resource.Type)
	assert.Equal(t, "Google Doc (abc123de...)", resource.Title)
	assert.NotNil(t, resource.LastEditedAt)

	require.Len(t, store.notes, 1)
	assert.Equal(t, resource.ID, store.notes[0].ResourceID)
	assert.Equal(t, "mock summary", store.notes[0].Summary)
	assert.Equal(t, 1, inv.calls)
}

func TestSave_DuplicateRejected(t *testing.T) {
	store := newFakeStore()
	existing := &types.Resource{URL: "https://example.com/page", Type: types.ResourceOther, Title: "Existing"}
	require.NoError(t, store.InsertResource(context.Background(), existing))

	svc, inv := newTestService(t, store, nil, nil, nil)

	_, err := svc.Save(context.Background(), SaveRequest{URL: "https://example.com/page"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Existing", dup.Existing.Title)
	assert.Equal(t, 0, inv.calls)
}

func TestSave_ReplaceContextOnDuplicate(t *testing.T) {
	store := newFakeStore()
	existing := &types.Resource{URL: "https://example.com/page", Type: types.ResourceOther, Title: "Existing"}
	require.NoError(t, store.InsertResource(context.Background(), existing))

	svc, _ := newTestService(t, store, nil, nil, nil)

	resource, err := svc.Save(context.Background(), SaveRequest{
		URL:            "https://example.com/page",
		Context:        "updated discussion",
		ReplaceContext: true,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, resource.ID)
	require.Len(t, store.notes, 1)
	assert.Equal(t, "updated discussion", store.notes[0].ChatText)
	// No second row inserted
	assert.Len(t, store.resources, 1)
}

func TestSave_FigmaEnrichment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/"+testFileKey, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("depth"))
		fmt.Fprint(w, `{
			"name": "Checkout Flow",
			"lastModified": "2026-03-01T10:00:00Z",
			"thumbnailUrl": "https://cdn.example.com/cover.png",
			"document": {
				"id": "0:0", "name": "", "type": "DOCUMENT",
				"children": [{
					"id": "1:1", "name": "Page 1", "type": "CANVAS",
					"children": [{"id": "2:1", "name": "Hero", "type": "FRAME"}]
				}]
			}
		}`)
	})

	analyzed := false
	ai := &summarizer.Mock{
		AnalyzeFunc: func(_ context.Context, fileName string, manifest []types.PageSummary) (*summarizer.Analysis, error) {
			analyzed = true
			assert.Equal(t, "Checkout Flow", fileName)
			require.Len(t, manifest, 1)
			assert.Equal(t, []string{"Hero"}, manifest[0].Frames)
			return &summarizer.Analysis{
				Summary:   "Payment redesign.",
				Milestone: "Review",
				KeyFrames: []string{"Hero"},
			}, nil
		},
	}

	store := newFakeStore()
	svc, inv := newTestService(t, store, figmaTestClient(t, mux), nil, ai)

	resource, err := svc.Save(context.Background(), SaveRequest{
		URL: "https://www.figma.com/file/" + testFileKey + "/Checkout",
	})
	require.NoError(t, err)

	assert.True(t, analyzed)
	assert.Equal(t, "Checkout Flow", resource.Title)
	assert.Equal(t, "https://cdn.example.com/cover.png", resource.ThumbnailURL)
	require.NotNil(t, resource.Metadata)
	assert.Equal(t, "Payment redesign.", resource.Metadata.AISummary)
	assert.Equal(t, "Review", resource.Metadata.Milestone)
	assert.Equal(t, []string{"Hero"}, resource.Metadata.Frames)
	require.NotEmpty(t, resource.ContentIndex)
	assert.Equal(t, "Page 1", resource.ContentIndex[0].Text)
	assert.Equal(t, 1, inv.calls)
}

func TestSave_FigmaFetchFailureStillSaves(t *testing.T) {
	mux := http.NewServeMux() // No routes: every fetch 404s
	store := newFakeStore()
	svc, _ := newTestService(t, store, figmaTestClient(t, mux), nil, nil)

	resource, err := svc.Save(context.Background(), SaveRequest{
		URL: "https://www.figma.com/file/" + testFileKey + "/Checkout",
	})
	require.NoError(t, err)
	// Degraded save: fallback title from the URL, no enrichment
	assert.Equal(t, "Checkout", resource.Title)
	assert.Nil(t, resource.Metadata)
}

func TestSave_GitHubEnrichment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"full_name": "acme/widgets", "description": "Reusable UI widgets",
			"language": "Go", "owner": {"login": "acme"}}`)
	})
	mux.HandleFunc("/repos/acme/widgets/readme", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	gitClient := gitmeta.NewClient("", nil, gitmeta.WithBaseURL(server.URL))

	ai := &summarizer.Mock{
		SummarizeFunc: func(_ context.Context, text string) (string, error) {
			assert.Contains(t, text, "Repo: acme/widgets")
			return "A widget library.", nil
		},
	}

	store := newFakeStore()
	svc, _ := newTestService(t, store, nil, gitClient, ai)

	resource, err := svc.Save(context.Background(), SaveRequest{URL: "https://github.com/acme/widgets"})
	require.NoError(t, err)

	assert.Equal(t, "Reusable UI widgets", resource.Title)
	assert.Equal(t, "acme", resource.AuthorName)
	require.NotNil(t, resource.Metadata)
	assert.Equal(t, "A widget library.", resource.Metadata.AISummary)
}

func TestSave_SummarizerFailureFallsBack(t *testing.T) {
	store := newFakeStore()
	ai := &summarizer.Mock{
		SummarizeFunc: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("provider down")
		},
	}
	svc, _ := newTestService(t, store, nil, nil, ai)

	longContext := strings.Repeat("word ", 30)
	_, err := svc.Save(context.Background(), SaveRequest{
		URL:     "https://example.com/page",
		Context: longContext,
	})
	require.NoError(t, err)
	require.Len(t, store.notes, 1)
	assert.True(t, strings.HasSuffix(store.notes[0].Summary, "..."))
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	existing := &types.Resource{URL: "https://example.com/page", Type: types.ResourceOther, Title: "Doomed"}
	require.NoError(t, store.InsertResource(context.Background(), existing))

	svc, inv := newTestService(t, store, nil, nil, nil)

	deleted, err := svc.Delete(context.Background(), existing.ID[:5])
	require.NoError(t, err)
	assert.Equal(t, "Doomed", deleted.Title)
	assert.Empty(t, store.resources)
	assert.Equal(t, 1, inv.calls)

	_, err = svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSyncTeam(t *testing.T) {
	existingKey := "zzzzzzzzzzzzzzzzzzzzzz"
	newKey := "yyyyyyyyyyyyyyyyyyyyyy"

	mux := http.NewServeMux()
	mux.HandleFunc("/teams/777/projects", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"projects": [{"id": "99", "name": "Mobile"}]}`)
	})
	mux.HandleFunc("/projects/99/files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"files": [
			{"key": %q, "name": "Already Indexed"},
			{"key": %q, "name": "Fresh File"}
		]}`, existingKey, newKey)
	})
	mux.HandleFunc("/files/"+newKey, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "Fresh File", "document": {"id": "0:0", "name": "", "type": "DOCUMENT"}}`)
	})

	store := newFakeStore()
	require.NoError(t, store.InsertResource(context.Background(), &types.Resource{
		URL:  "https://www.figma.com/file/" + existingKey,
		Type: types.ResourceFigma,
	}))

	svc, inv := newTestService(t, store, figmaTestClient(t, mux), nil, nil)

	stats, err := svc.SyncTeam(context.Background(), "https://www.figma.com/files/team/777/Acme")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ProjectsFound)
	assert.Equal(t, 2, stats.FilesFound)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesFailed)

	require.Contains(t, store.projects, "99")
	assert.Equal(t, "Mobile", store.projects["99"].Name)

	fresh, err := store.FindResourceByURLFragment(context.Background(), newKey)
	require.NoError(t, err)
	assert.Equal(t, "Fresh File", fresh.Title)
	assert.Equal(t, "Mobile", fresh.ProjectName)
	assert.Equal(t, 1, inv.calls)
}
