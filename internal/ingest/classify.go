package ingest

import (
	"regexp"
	"strings"

	"github.com/dejoiner/dejoiner/pkg/types"
)

// Figma file keys are long alphanumerics; shorter path segments are vanity
// slugs, not keys. The length floor keeps the duplicate check from matching
// on a slug.
var strictFileKeyPattern = regexp.MustCompile(`(?:file|design|board)/([a-zA-Z0-9]{22,})`)

// ClassifyURL maps a shared link to its resource type
func ClassifyURL(url string) types.ResourceType {
	switch {
	case strings.Contains(url, "figma.com/board/") || strings.Contains(url, "figjam"):
		return types.ResourceFigJam
	case strings.Contains(url, "figma.com"):
		return types.ResourceFigma
	case strings.Contains(url, "github.com"):
		return types.ResourceGitHub
	case strings.Contains(url, "docs.google.com/document"),
		strings.Contains(url, "docs.google.com/spreadsheets"):
		return types.ResourceDocs
	case strings.Contains(url, "drive.google.com"):
		return types.ResourceDrive
	default:
		return types.ResourceOther
	}
}

// DuplicateKey returns the fragment used for duplicate detection: the file
// key for design links (the same file reappears under different URL shapes),
// empty otherwise (exact URL match applies).
func DuplicateKey(url string, resourceType types.ResourceType) string {
	if resourceType != types.ResourceFigma && resourceType != types.ResourceFigJam {
		return ""
	}
	matches := strictFileKeyPattern.FindStringSubmatch(url)
	if matches == nil {
		return ""
	}
	return matches[1]
}

var docIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// derivedDocTitle builds a display title for docs/drive links, which carry
// no fetchable metadata
func derivedDocTitle(url string, resourceType types.ResourceType) string {
	if resourceType == types.ResourceDrive {
		return "Google Drive File"
	}

	kind := "Google Document"
	switch {
	case strings.Contains(url, "document"):
		kind = "Google Doc"
	case strings.Contains(url, "spreadsheets"):
		kind = "Google Sheet"
	}

	if matches := docIDPattern.FindStringSubmatch(url); matches != nil {
		id := matches[1]
		if len(id) > 8 {
			id = id[:8]
		}
		return kind + " (" + id + "...)"
	}
	return kind
}

// fallbackTitle derives a title from the last URL path segment
func fallbackTitle(url string) string {
	trimmed := strings.TrimRight(url, "/")
	segment := trimmed[strings.LastIndex(trimmed, "/")+1:]
	if i := strings.IndexByte(segment, '?'); i >= 0 {
		segment = segment[:i]
	}
	if segment == "" {
		return "Saved Link"
	}
	return segment
}
