package figma

import (
	"regexp"
	"strings"
)

var (
	fileKeyPattern = regexp.MustCompile(`figma\.com/(?:file|design|board)/([^/?#]+)`)
	teamIDPattern  = regexp.MustCompile(`team/(\d+)`)
)

// ExtractFileKey pulls the file key out of a file, design, or board URL
func ExtractFileKey(url string) (string, error) {
	matches := fileKeyPattern.FindStringSubmatch(url)
	if matches == nil {
		return "", ErrNotFigmaURL
	}
	return matches[1], nil
}

// ExtractTeamID accepts either a team URL or a bare team ID and returns the
// ID
func ExtractTeamID(input string) string {
	if strings.Contains(input, "figma.com") {
		if matches := teamIDPattern.FindStringSubmatch(input); matches != nil {
			return matches[1]
		}
	}
	return input
}

// FileURL builds the canonical URL for a file key, as stored for team-synced
// files
func FileURL(fileKey string) string {
	return "https://www.figma.com/file/" + fileKey
}
