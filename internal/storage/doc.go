// Package storage provides SQLite-based persistence for indexed design resources.
//
// The storage layer manages:
//   - Resources (links plus their enrichment: metadata, content index)
//   - Captured chat context attached to resources
//   - Design-tool projects discovered during team sync
//   - Runtime settings (provider tokens, admin user IDs)
//
// # Database Schema
//
// Tables:
//   - resources: one row per indexed link; metadata and content_index are
//     stored as JSON columns
//   - resource_context: chat text and summary notes, cascade-deleted with
//     their resource
//   - projects: team-sync project inventory
//   - app_settings: key/value runtime settings
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStore("~/.dejoiner/dejoiner.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.InsertResource(ctx, &types.Resource{
//	    URL:   "https://www.figma.com/file/abc123/Checkout",
//	    Type:  types.ResourceFigma,
//	    Title: "Checkout Flow",
//	})
//
// # Candidate Pools
//
// The relevance engine never queries storage itself; callers fetch a bounded
// batch and hand it over:
//
//	candidates, err := db.ListRecent(ctx, 100)
//	resp := engine.Search(query, candidates, 6)
//
// # Build Modes
//
// The SQLite driver is selected at build time. The default is the pure Go
// driver (modernc.org/sqlite, no C compiler needed); the cgo_sqlite tag
// switches to github.com/mattn/go-sqlite3. BuildMode and DriverName report
// the active configuration.
//
// Migrations are versioned with semver and applied automatically on open.
package storage
