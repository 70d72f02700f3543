package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejoiner/dejoiner/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	// Use in-memory database for testing
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	return store
}

func testResource(url, title string) *types.Resource {
	return &types.Resource{
		URL:   url,
		Type:  types.ResourceFigma,
		Title: title,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	assert.NotNil(t, store)
	assert.NotNil(t, store.db)
}

func TestClose(t *testing.T) {
	store := setupTestDB(t)
	err := store.Close()
	assert.NoError(t, err)
}

func TestInsertResource(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	r := testResource("https://www.figma.com/file/abc123/Checkout", "Checkout Flow")

	err := store.InsertResource(ctx, r)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	// Same URL again - unique constraint
	duplicate := testResource("https://www.figma.com/file/abc123/Checkout", "Other Title")
	err = store.InsertResource(ctx, duplicate)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestInsertResource_Validation(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()

	err := store.InsertResource(ctx, &types.Resource{Type: types.ResourceFigma})
	assert.ErrorIs(t, err, types.ErrMissingURL)

	err = store.InsertResource(ctx, &types.Resource{URL: "https://example.com"})
	assert.ErrorIs(t, err, types.ErrMissingType)
}

func TestGetResource_RoundTripsEnrichment(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	edited := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	r := testResource("https://www.figma.com/file/abc123/Checkout", "Checkout Flow")
	r.Metadata = &types.ResourceMetadata{
		Frames:    []string{"Checkout Step 1", "Confirmation"},
		AISummary: "Payment flow redesign",
		Milestone: "Q2 launch",
	}
	r.ContentIndex = []types.IndexEntry{
		{Text: "Pay now", Location: "Page 1 > CTA", NodeID: "1:2", Category: types.EntryText},
	}
	r.LastEditedAt = &edited

	require.NoError(t, store.InsertResource(ctx, r))

	got, err := store.GetResource(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.URL, got.URL)
	assert.Equal(t, r.Title, got.Title)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, r.Metadata.Frames, got.Metadata.Frames)
	assert.Equal(t, r.Metadata.AISummary, got.Metadata.AISummary)
	require.Len(t, got.ContentIndex, 1)
	assert.Equal(t, "Pay now", got.ContentIndex[0].Text)
	require.NotNil(t, got.LastEditedAt)
	assert.WithinDuration(t, edited, *got.LastEditedAt, time.Second)
}

func TestGetResource_NotFound(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	_, err := store.GetResource(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateResource(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	r := testResource("https://www.figma.com/file/abc123/Checkout", "Checkout Flow")
	require.NoError(t, store.InsertResource(ctx, r))

	r.Title = "Checkout Flow v2"
	r.Metadata = &types.ResourceMetadata{AISummary: "updated"}
	require.NoError(t, store.UpdateResource(ctx, r))

	got, err := store.GetResource(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checkout Flow v2", got.Title)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "updated", got.Metadata.AISummary)

	missing := testResource("https://example.com/x", "X")
	missing.ID = "nope"
	assert.ErrorIs(t, store.UpdateResource(ctx, missing), ErrNotFound)
}

func TestDeleteResource_CascadesContext(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	r := testResource("https://www.figma.com/file/abc123/Checkout", "Checkout Flow")
	require.NoError(t, store.InsertResource(ctx, r))
	require.NoError(t, store.AddContextNote(ctx, &types.ContextNote{
		ResourceID: r.ID,
		ChatText:   "latest checkout designs",
	}))

	require.NoError(t, store.DeleteResource(ctx, r.ID))

	_, err := store.GetResource(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	notes, err := store.ListContextNotes(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.ErrorIs(t, store.DeleteResource(ctx, r.ID), ErrNotFound)
}

func TestGetResourceByIDPrefix(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	a := testResource("https://example.com/a", "A")
	a.ID = "aabbccdd-0000"
	b := testResource("https://example.com/b", "B")
	b.ID = "aaffeedd-0000"
	require.NoError(t, store.InsertResource(ctx, a))
	require.NoError(t, store.InsertResource(ctx, b))

	got, err := store.GetResourceByIDPrefix(ctx, "aabb")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = store.GetResourceByIDPrefix(ctx, "aa")
	assert.ErrorIs(t, err, ErrAmbiguousPrefix)

	_, err = store.GetResourceByIDPrefix(ctx, "zz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetResourceByIDPrefix(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindResourceByURL(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	r := testResource("https://github.com/acme/widgets", "widgets")
	r.Type = types.ResourceGitHub
	require.NoError(t, store.InsertResource(ctx, r))

	got, err := store.FindResourceByURL(ctx, "https://github.com/acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = store.FindResourceByURL(ctx, "https://github.com/acme/other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindResourceByURLFragment(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	r := testResource("https://www.figma.com/design/abc123/Checkout?node-id=1", "Checkout")
	require.NoError(t, store.InsertResource(ctx, r))

	// Same file key under a different URL shape
	got, err := store.FindResourceByURLFragment(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	// LIKE wildcards in the fragment are literal
	_, err = store.FindResourceByURLFragment(ctx, "%zzz%")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecent_OrdersByEditTime(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()

	older := testResource("https://example.com/older", "Older")
	olderEdit := time.Now().Add(-48 * time.Hour)
	older.LastEditedAt = &olderEdit

	newer := testResource("https://example.com/newer", "Newer")
	newerEdit := time.Now().Add(-1 * time.Hour)
	newer.LastEditedAt = &newerEdit

	// No edit stamp: falls back to creation time, which is now
	unstamped := testResource("https://example.com/unstamped", "Unstamped")

	require.NoError(t, store.InsertResource(ctx, older))
	require.NoError(t, store.InsertResource(ctx, newer))
	require.NoError(t, store.InsertResource(ctx, unstamped))

	got, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Unstamped", got[0].Title)
	assert.Equal(t, "Newer", got[1].Title)
	assert.Equal(t, "Older", got[2].Title)

	capped, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestListResources_FilterAndCount(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	figma := testResource("https://www.figma.com/file/a/A", "A")
	github := testResource("https://github.com/acme/b", "B")
	github.Type = types.ResourceGitHub
	require.NoError(t, store.InsertResource(ctx, figma))
	require.NoError(t, store.InsertResource(ctx, github))

	all, total, err := store.ListResources(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, total)

	onlyGitHub, total, err := store.ListResources(ctx, ListOptions{Type: types.ResourceGitHub})
	require.NoError(t, err)
	require.Len(t, onlyGitHub, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "B", onlyGitHub[0].Title)

	paged, total, err := store.ListResources(ctx, ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
	assert.Equal(t, 2, total)
}

func TestSearchTitleURL(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.InsertResource(ctx, testResource("https://www.figma.com/file/a/A", "Checkout Flow")))
	require.NoError(t, store.InsertResource(ctx, testResource("https://example.com/checkout-doc", "Payment Spec")))
	require.NoError(t, store.InsertResource(ctx, testResource("https://example.com/other", "Brand Guidelines")))

	// Matches by title and by URL, case-insensitively
	got, err := store.SearchTitleURL(ctx, "CHECKOUT", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := store.SearchTitleURL(ctx, "nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContextNotes(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	r := testResource("https://example.com/a", "A")
	require.NoError(t, store.InsertResource(ctx, r))

	note := &types.ContextNote{
		ResourceID: r.ID,
		ChatText:   "sharing the latest checkout designs for review",
		Summary:    "Checkout designs for review",
		AuthorName: "dana",
	}
	require.NoError(t, store.AddContextNote(ctx, note))
	assert.Greater(t, note.ID, int64(0))

	notes, err := store.ListContextNotes(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Checkout designs for review", notes[0].Summary)
	assert.Equal(t, "dana", notes[0].AuthorName)
}

func TestProjects_Upsert(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	p := &Project{ID: "proj-1", Name: "Mobile", TeamID: "team-9", FileCount: 3}
	require.NoError(t, store.UpsertProject(ctx, p))

	p.FileCount = 5
	require.NoError(t, store.UpsertProject(ctx, p))

	projects, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, 5, projects[0].FileCount)
	assert.Equal(t, "team-9", projects[0].TeamID)
}

func TestSettings(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()

	_, err := store.GetSetting(ctx, "figma_token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetSetting(ctx, "figma_token", "figd_abc"))
	require.NoError(t, store.SetSetting(ctx, "admin_users", "U123,U456"))

	got, err := store.GetSetting(ctx, "figma_token")
	require.NoError(t, err)
	assert.Equal(t, "figd_abc", got)

	// Overwrite
	require.NoError(t, store.SetSetting(ctx, "figma_token", "figd_def"))
	got, err = store.GetSetting(ctx, "figma_token")
	require.NoError(t, err)
	assert.Equal(t, "figd_def", got)

	all, err := store.AllSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "U123,U456", all["admin_users"])
}

func TestStats(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()

	ctx := context.Background()
	figma := testResource("https://www.figma.com/file/a/A", "A")
	github := testResource("https://github.com/acme/b", "B")
	github.Type = types.ResourceGitHub
	require.NoError(t, store.InsertResource(ctx, figma))
	require.NoError(t, store.InsertResource(ctx, github))
	require.NoError(t, store.AddContextNote(ctx, &types.ContextNote{ResourceID: figma.ID, ChatText: "ctx"}))
	require.NoError(t, store.UpsertProject(ctx, &Project{ID: "p1", Name: "Mobile"}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalResources)
	assert.Equal(t, 1, stats.ByType[types.ResourceFigma])
	assert.Equal(t, 1, stats.ByType[types.ResourceGitHub])
	assert.Equal(t, 1, stats.ContextNotes)
	assert.Equal(t, 1, stats.Projects)
	assert.False(t, stats.LatestAddition.IsZero())
}
