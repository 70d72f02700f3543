package contentindex

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// MaxTextLength caps the indexed text of text-bearing nodes
	MaxTextLength = 200

	// MinTextLength is the minimum content length for a text node to be indexed
	MinTextLength = 3

	// LocationSeparator joins breadcrumb segments
	LocationSeparator = " > "
)

// generatedLabelPattern matches auto-generated component and instance names
// such as "Component 2" or "Instance"
var generatedLabelPattern = regexp.MustCompile(`(?i)^(component|instance)\s*\d*$`)

// Indexer extracts searchable content entries from design-file document trees
type Indexer struct{}

// New creates a new Indexer instance
func New() *Indexer {
	return &Indexer{}
}

// Extract walks the document tree of file and returns its flat content index.
// A nil file or missing document root yields an empty slice.
func (ix *Indexer) Extract(file *types.DocumentFile) []types.IndexEntry {
	entries := make([]types.IndexEntry, 0)
	if file == nil || file.Document == nil {
		return entries
	}

	w := &walker{visited: make(map[string]struct{})}
	w.walk(file.Document, nil)

	return append(entries, w.entries...)
}

// walker holds per-extraction traversal state
type walker struct {
	visited map[string]struct{}
	entries []types.IndexEntry
}

func (w *walker) walk(node *types.DocumentNode, ancestors []string) {
	if node == nil || node.ID == "" {
		return
	}

	// Index each node at most once, keyed by (id, name); first visit wins
	// and a visited node is fully skipped, children included.
	key := node.ID + "_" + node.Name
	if _, seen := w.visited[key]; seen {
		return
	}
	w.visited[key] = struct{}{}

	path := ancestors
	if node.Name != "" {
		path = make([]string, 0, len(ancestors)+1)
		path = append(path, ancestors...)
		path = append(path, node.Name)
	}
	location := strings.Join(path, LocationSeparator)

	switch node.Type {
	case types.NodeCanvas:
		// Pages use their own name as location, not the breadcrumb
		if !IsPlaceholder(node.Name) {
			w.add(node.Name, node.Name, node.ID, types.EntryPage)
		}

	case types.NodeFrame:
		if !IsPlaceholder(node.Name) {
			w.add(node.Name, location, node.ID, types.EntryFrame)
		}

	case types.NodeComponent, types.NodeComponentSet, types.NodeInstance:
		if !IsPlaceholder(node.Name) {
			w.add(node.Name, location, node.ID, types.EntryComponent)
		}

	case types.NodeText:
		text := node.Characters
		if text == "" {
			text = node.Name
		}
		if !IsPlaceholder(text) && utf8.RuneCountInString(text) >= MinTextLength {
			w.add(truncate(text, MaxTextLength), location, node.ID, types.EntryText)
		}

	case types.NodeGroup, types.NodeSection:
		if !IsPlaceholder(node.Name) {
			w.add(node.Name, location, node.ID, types.EntryCategory(strings.ToLower(node.Type)))
		}
	}

	for i := range node.Children {
		w.walk(&node.Children[i], path)
	}
}

func (w *walker) add(text, location, nodeID string, category types.EntryCategory) {
	w.entries = append(w.entries, types.IndexEntry{
		Text:     text,
		Location: location,
		NodeID:   nodeID,
		Category: category,
	})
}

// IsPlaceholder reports whether text is a default or generator-placeholder
// label that should be excluded from indexing.
func IsPlaceholder(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "lorem ipsum" || lower == "text" || lower == "frame" {
		return true
	}
	if utf8.RuneCountInString(lower) <= 1 {
		return true
	}
	return generatedLabelPattern.MatchString(lower)
}

// truncate caps s at max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
