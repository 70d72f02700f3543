package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dejoiner/dejoiner/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrAmbiguousPrefix is returned when an ID prefix matches multiple resources
	ErrAmbiguousPrefix = errors.New("ambiguous id prefix")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const resourceColumns = `id, url, type, title, version, author_name, author_avatar,
       thumbnail_url, project_name, metadata, content_index,
       last_edited_at, created_at, updated_at`

// Resource operations

// InsertResource persists a new resource. A missing ID is assigned a fresh
// UUID; a URL collision reports ErrAlreadyExists.
func (s *SQLiteStore) InsertResource(ctx context.Context, r *types.Resource) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	metadata, contentIndex, err := marshalEnrichment(r)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO resources (id, url, type, title, version, author_name, author_avatar,
		                       thumbnail_url, project_name, metadata, content_index,
		                       last_edited_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.URL, string(r.Type), r.Title, r.Version, r.AuthorName, r.AuthorAvatar,
		r.ThumbnailURL, r.ProjectName, metadata, contentIndex,
		nullTime(r.LastEditedAt), now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert resource: %w", err)
	}

	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// UpdateResource overwrites the stored row for r.ID
func (s *SQLiteStore) UpdateResource(ctx context.Context, r *types.Resource) error {
	metadata, contentIndex, err := marshalEnrichment(r)
	if err != nil {
		return err
	}

	query := `
		UPDATE resources
		SET url = ?, type = ?, title = ?, version = ?, author_name = ?, author_avatar = ?,
		    thumbnail_url = ?, project_name = ?, metadata = ?, content_index = ?,
		    last_edited_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := s.db.ExecContext(ctx, query,
		r.URL, string(r.Type), r.Title, r.Version, r.AuthorName, r.AuthorAvatar,
		r.ThumbnailURL, r.ProjectName, metadata, contentIndex,
		nullTime(r.LastEditedAt), now, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	r.UpdatedAt = now
	return nil
}

// DeleteResource removes a resource and its context notes (cascade)
func (s *SQLiteStore) DeleteResource(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetResource fetches a resource by its full ID
func (s *SQLiteStore) GetResource(ctx context.Context, id string) (*types.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = ?", resourceColumns)
	return s.queryOne(ctx, query, id)
}

// GetResourceByIDPrefix fetches a resource by a leading fragment of its ID,
// as typed in chat delete commands. A prefix matching more than one row is
// rejected rather than picking one arbitrarily.
func (s *SQLiteStore) GetResourceByIDPrefix(ctx context.Context, prefix string) (*types.Resource, error) {
	if prefix == "" {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE id LIKE ? ESCAPE '\' LIMIT 2`, resourceColumns)
	resources, err := s.queryMany(ctx, query, likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	switch len(resources) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &resources[0], nil
	default:
		return nil, ErrAmbiguousPrefix
	}
}

// FindResourceByURL fetches a resource by exact URL match
func (s *SQLiteStore) FindResourceByURL(ctx context.Context, url string) (*types.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE url = ?", resourceColumns)
	return s.queryOne(ctx, query, url)
}

// FindResourceByURLFragment fetches the first resource whose URL contains
// fragment. Used for design-file duplicate detection, where the same file key
// can appear under different URL shapes.
func (s *SQLiteStore) FindResourceByURLFragment(ctx context.Context, fragment string) (*types.Resource, error) {
	if fragment == "" {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE url LIKE ? ESCAPE '\' LIMIT 1`, resourceColumns)
	return s.queryOne(ctx, query, likeContains(fragment))
}

// ListRecent returns up to limit resources ordered most-recently-edited
// first, falling back to creation time for resources without an edit stamp.
// This is the candidate pool fed to the relevance engine.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]types.Resource, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM resources
		ORDER BY COALESCE(last_edited_at, created_at) DESC
		LIMIT ?
	`, resourceColumns)
	return s.queryMany(ctx, query, limit)
}

// ListResources returns a filtered page of resources plus the total count
// for the filter
func (s *SQLiteStore) ListResources(ctx context.Context, opts ListOptions) ([]types.Resource, int, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	where := ""
	args := []interface{}{}
	if opts.Type != "" {
		where = "WHERE type = ?"
		args = append(args, string(opts.Type))
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM resources %s", where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM resources %s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, resourceColumns, where)
	args = append(args, opts.Limit, opts.Offset)

	resources, err := s.queryMany(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return resources, total, nil
}

// SearchTitleURL returns resources whose title or URL contains query,
// case-insensitively. This is the chat-command exact path; fuzzy suggestions
// take over when it comes back empty.
func (s *SQLiteStore) SearchTitleURL(ctx context.Context, query string, limit int) ([]types.Resource, error) {
	if limit <= 0 {
		limit = 10
	}
	sqlQuery := fmt.Sprintf(`
		SELECT %s FROM resources
		WHERE title LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\'
		ORDER BY COALESCE(last_edited_at, created_at) DESC
		LIMIT ?
	`, resourceColumns)
	pattern := likeContains(query)
	return s.queryMany(ctx, sqlQuery, pattern, pattern, limit)
}

// Context notes

// AddContextNote attaches a captured chat-context note to a resource
func (s *SQLiteStore) AddContextNote(ctx context.Context, note *types.ContextNote) error {
	query := `
		INSERT INTO resource_context (resource_id, chat_text, summary, author_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := s.db.ExecContext(ctx, query,
		note.ResourceID, note.ChatText, note.Summary, note.AuthorName, now)
	if err != nil {
		return fmt.Errorf("failed to add context note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	note.ID = id
	note.CreatedAt = now
	return nil
}

// ListContextNotes returns a resource's context notes, newest first
func (s *SQLiteStore) ListContextNotes(ctx context.Context, resourceID string) ([]types.ContextNote, error) {
	query := `
		SELECT id, resource_id, chat_text, summary, author_name, created_at
		FROM resource_context
		WHERE resource_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list context notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []types.ContextNote
	for rows.Next() {
		var note types.ContextNote
		var summary, author sql.NullString
		if err := rows.Scan(&note.ID, &note.ResourceID, &note.ChatText, &summary, &author, &note.CreatedAt); err != nil {
			return nil, err
		}
		note.Summary = summary.String
		note.AuthorName = author.String
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Projects

// UpsertProject records a design-tool project discovered during team sync
func (s *SQLiteStore) UpsertProject(ctx context.Context, project *Project) error {
	query := `
		INSERT INTO projects (id, name, team_id, file_count, last_synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			team_id = excluded.team_id,
			file_count = excluded.file_count,
			last_synced_at = excluded.last_synced_at,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := s.db.ExecContext(ctx, query,
		project.ID, project.Name, project.TeamID, project.FileCount, now, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	project.LastSyncedAt = now
	project.UpdatedAt = now
	return nil
}

// ListProjects returns all known projects ordered by name
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]Project, error) {
	query := `
		SELECT id, name, team_id, file_count, last_synced_at, created_at, updated_at
		FROM projects
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []Project
	for rows.Next() {
		var p Project
		var teamID sql.NullString
		var lastSynced sql.NullTime
		if err := rows.Scan(&p.ID, &p.Name, &teamID, &p.FileCount, &lastSynced, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.TeamID = teamID.String
		if lastSynced.Valid {
			p.LastSyncedAt = lastSynced.Time
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Settings

// GetSetting fetches a single setting value by key
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting writes a setting, replacing any existing value
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO app_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// AllSettings returns every setting as a key/value map
func (s *SQLiteStore) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM app_settings")
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// Stats returns counts for the admin surfaces
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByType: make(map[types.ResourceType]int)}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resources").Scan(&stats.TotalResources); err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM resources GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to count by type: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var resourceType string
		var count int
		if err := rows.Scan(&resourceType, &count); err != nil {
			return nil, err
		}
		stats.ByType[types.ResourceType(resourceType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resource_context").Scan(&stats.ContextNotes); err != nil {
		return nil, fmt.Errorf("failed to count context notes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&stats.Projects); err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var latest sql.NullTime
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(created_at) FROM resources").Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to read latest addition: %w", err)
	}
	if latest.Valid {
		stats.LatestAddition = latest.Time
	}

	return stats, nil
}

// Row helpers

func (s *SQLiteStore) queryOne(ctx context.Context, query string, args ...interface{}) (*types.Resource, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	r, err := scanResource(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) queryMany(ctx context.Context, query string, args ...interface{}) ([]types.Resource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	resources := make([]types.Resource, 0)
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *r)
	}
	return resources, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanResource(row rowScanner) (*types.Resource, error) {
	var r types.Resource
	var resourceType string
	var title, version, authorName, authorAvatar sql.NullString
	var thumbnailURL, projectName, metadata, contentIndex sql.NullString
	var lastEditedAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.URL, &resourceType, &title, &version, &authorName, &authorAvatar,
		&thumbnailURL, &projectName, &metadata, &contentIndex,
		&lastEditedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Type = types.ResourceType(resourceType)
	r.Title = title.String
	r.Version = version.String
	r.AuthorName = authorName.String
	r.AuthorAvatar = authorAvatar.String
	r.ThumbnailURL = thumbnailURL.String
	r.ProjectName = projectName.String
	if lastEditedAt.Valid {
		t := lastEditedAt.Time
		r.LastEditedAt = &t
	}

	if metadata.Valid && metadata.String != "" {
		var m types.ResourceMetadata
		if err := json.Unmarshal([]byte(metadata.String), &m); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", r.ID, err)
		}
		r.Metadata = &m
	}
	if contentIndex.Valid && contentIndex.String != "" {
		var entries []types.IndexEntry
		if err := json.Unmarshal([]byte(contentIndex.String), &entries); err != nil {
			return nil, fmt.Errorf("failed to decode content index for %s: %w", r.ID, err)
		}
		r.ContentIndex = entries
	}

	return &r, nil
}

// marshalEnrichment serializes the JSON columns; empty enrichment stores NULL
func marshalEnrichment(r *types.Resource) (metadata, contentIndex interface{}, err error) {
	if !r.Metadata.Empty() {
		raw, err := json.Marshal(r.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = string(raw)
	}
	if len(r.ContentIndex) > 0 {
		raw, err := json.Marshal(r.ContentIndex)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode content index: %w", err)
		}
		contentIndex = string(raw)
	}
	return metadata, contentIndex, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// likePrefix escapes LIKE wildcards and anchors the pattern at the start
func likePrefix(s string) string {
	return escapeLike(s) + "%"
}

// likeContains escapes LIKE wildcards and matches anywhere
func likeContains(s string) string {
	return "%" + escapeLike(s) + "%"
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
