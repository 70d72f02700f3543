// Package types provides shared type definitions for the Dejoiner hub.
//
// This package defines domain types used across multiple components of
// Dejoiner: indexed resources, design-document trees, content-index entries,
// and search results.
//
// # Core Types
//
// Resource represents a single indexed design resource (a Figma file, a
// GitHub repository, a Drive document) together with its enrichment metadata:
//
//	res := &types.Resource{
//	    Title: "Checkout Flow",
//	    Type:  types.ResourceFigma,
//	    URL:   "https://www.figma.com/file/abc123/Checkout-Flow",
//	}
//
// IndexEntry is one element of a resource's deep content index, produced by
// the contentindex package from a design-file document tree:
//
//	entry := types.IndexEntry{
//	    Text:     "Sign up now",
//	    Location: "Page 1 > Hero",
//	    Category: types.EntryText,
//	}
//
// # Search Results
//
// RankedResult is the relevance-ordered output of the search engine. The
// internal score used for ordering is not part of the type; callers only see
// rank order and the MatchInfo describing where the query matched:
//
//	result.MatchedIn.Field    // "title", "metadata", or "contentIndex"
//	result.MatchedIn.Location // e.g. "Summary" or "Page 1 > Hero"
//
// FuzzySuggestion is a "did you mean" candidate produced by edit-distance
// matching when an exact search returns nothing.
//
// # Validation
//
// Domain types carry validation methods used at input boundaries:
//
//	if err := res.Validate(); err != nil {
//	    return err
//	}
package types
