// Package contentindex turns a design-file document tree into a flat,
// searchable content index.
//
// The indexer walks the hierarchical node tree of a design file (pages,
// frames, components, text layers, groups) depth-first and produces one
// IndexEntry per meaningful node, each carrying the searchable text and a
// human-readable breadcrumb of where in the file it lives.
//
// # Basic Usage
//
//	ix := contentindex.New()
//	entries := ix.Extract(file)
//
//	for _, e := range entries {
//	    fmt.Printf("%s: %q at %s\n", e.Category, e.Text, e.Location)
//	}
//
// # Indexing Rules
//
// Nodes are classified by their type tag:
//   - CANVAS (pages): indexed with text and location both set to the page name
//   - FRAME: indexed with the frame name and full breadcrumb
//   - COMPONENT, COMPONENT_SET, INSTANCE: indexed as "component"
//   - TEXT: indexed with the literal text content (capped at 200 characters),
//     only when longer than two characters
//   - GROUP, SECTION: indexed under their own lowercased type
//
// All other node types produce no entry, but their children are still walked.
//
// # Placeholder Suppression
//
// Default and generator-placeholder labels ("Frame", "Text", "Lorem Ipsum",
// "Component 2", single characters) are skipped so they do not flood the
// index with noise.
//
// # Determinism
//
// Entries preserve document traversal order: depth-first, parent before
// child, children in document order. Each node is indexed at most once,
// keyed by (id, name); once visited, a node is fully skipped, including
// descent into its children.
//
// Extraction is total: a missing or malformed document root yields an empty
// slice, never an error.
package contentindex
