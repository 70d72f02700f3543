package types

import "time"

// Design-file node type tags as delivered by the file API
const (
	NodeDocument     = "DOCUMENT"
	NodeCanvas       = "CANVAS"
	NodeFrame        = "FRAME"
	NodeComponent    = "COMPONENT"
	NodeComponentSet = "COMPONENT_SET"
	NodeInstance     = "INSTANCE"
	NodeText         = "TEXT"
	NodeGroup        = "GROUP"
	NodeSection      = "SECTION"
)

// DocumentNode is a single node of a design-file document tree. Nodes form a
// tree: Children are in document order, and text-bearing nodes carry their
// literal content in Characters.
type DocumentNode struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Characters string         `json:"characters,omitempty"`
	Children   []DocumentNode `json:"children,omitempty"`
}

// DocumentFile is the tree payload returned by the design-file API for a
// single file. Document may be nil when the response is malformed; consumers
// treat that as an empty tree rather than an error.
type DocumentFile struct {
	Name         string        `json:"name"`
	LastModified *time.Time    `json:"lastModified,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	Document     *DocumentNode `json:"document,omitempty"`
}

// PageSummary is one page of the simplified structure manifest sent to the
// AI analyzer: the page name plus its top-level frame names.
type PageSummary struct {
	Name   string   `json:"name"`
	Frames []string `json:"frames"`
}
