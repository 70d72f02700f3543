package types

// EntryCategory mirrors the node taxonomy of the source document type system
type EntryCategory string

const (
	EntryPage      EntryCategory = "page"
	EntryFrame     EntryCategory = "frame"
	EntryComponent EntryCategory = "component"
	EntryText      EntryCategory = "text"
	EntryGroup     EntryCategory = "group"
	EntrySection   EntryCategory = "section"
)

// IndexEntry is one element of a resource's deep content index: a searchable
// snippet plus the human-readable location it came from.
type IndexEntry struct {
	// Text is the searchable snippet; for text-bearing nodes it is capped
	// at 200 characters.
	Text string `json:"text"`

	// Location is a breadcrumb of ancestor names joined with " > ",
	// e.g. "Page 2 > Hero Section".
	Location string `json:"location"`

	// NodeID is the stable identifier of the originating node, used for
	// deep-linking back into the source document.
	NodeID string `json:"nodeId,omitempty"`

	Category EntryCategory `json:"type"`
}

// Validate checks the entry fields
func (e *IndexEntry) Validate() error {
	if e.Text == "" {
		return ErrEmptyEntryText
	}
	if e.Category == "" {
		return ErrMissingEntryCategory
	}
	return nil
}
