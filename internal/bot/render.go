package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/pkg/types"
)

const publicHelp = `*Dejoiner - Design Resource Hub*

*Commands:*
- ` + "`search <query>`" + ` - Search resources
- ` + "`find <keyword>`" + ` - Quick search (top 3 results)
- ` + "`save <link> [context]`" + ` - Index a link manually
- ` + "`list`" + ` - Show recent resources
- ` + "`ping`" + ` - Check if I'm alive
- ` + "`help`" + ` - Show this guide

_I also automatically index Figma, GitHub, and Drive links shared in conversation._`

const adminHelp = `

*Admin Commands:*
- ` + "`delete <id>`" + ` - Delete a resource
- ` + "`stats`" + ` - Show statistics
- ` + "`list all`" + ` - List all resources with IDs`

// renderResults formats a numbered result listing under a header
func renderResults(header string, resources []types.Resource) string {
	var b strings.Builder
	b.WriteString("*" + header + "*\n")
	for i, r := range resources {
		fmt.Fprintf(&b, "\n%d. *%s* (%s)\n   <%s>", i+1, r.DisplayTitle(), r.Type, r.URL)
	}
	return b.String()
}

// renderSuggestions formats the "did you mean" fallback
func renderSuggestions(query string, suggestions []types.FuzzySuggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No exact matches for \"*%s*\".\n\n*Did you mean:*\n", query)
	for i, s := range suggestions {
		fmt.Fprintf(&b, "\n%d. *%s* (%s)\n   <%s>", i+1, s.Resource.DisplayTitle(), s.Resource.Type, s.Resource.URL)
	}
	return b.String()
}

func renderIndexed(resource *types.Resource, authorName string) string {
	text := fmt.Sprintf("Indexed: *%s*\n<%s>", resource.DisplayTitle(), resource.URL)
	if authorName != "" {
		text += "\n_Added by " + authorName + "_"
	}
	return text
}

func renderDuplicate(existing *types.Resource) string {
	author := existing.AuthorName
	if author == "" {
		author = "Unknown"
	}
	return fmt.Sprintf("This file is already indexed:\n*%s*\nAdded by: %s",
		existing.DisplayTitle(), author)
}

func renderDuplicatePrompt(existing *types.Resource, url string) string {
	return fmt.Sprintf("*Duplicate Detected!*\n\n%s\n\n<%s>\nReplace its context or keep the existing one?",
		renderDuplicate(existing), url)
}

func renderIndexPrompt(resourceType types.ResourceType, url string) string {
	return fmt.Sprintf("I detected a *%s* link:\n<%s>\nIndex it?", resourceType, url)
}

func renderStats(stats *storage.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Stats*\nTotal Resources: *%d*", stats.TotalResources)

	if len(stats.ByType) > 0 {
		resourceTypes := make([]string, 0, len(stats.ByType))
		for t := range stats.ByType {
			resourceTypes = append(resourceTypes, string(t))
		}
		sort.Strings(resourceTypes)
		for _, t := range resourceTypes {
			fmt.Fprintf(&b, "\n- %s: %d", t, stats.ByType[types.ResourceType(t)])
		}
	}

	fmt.Fprintf(&b, "\nContext Notes: %d\nProjects: %d", stats.ContextNotes, stats.Projects)
	return b.String()
}

func renderAdminList(resources []types.Resource) string {
	var b strings.Builder
	b.WriteString("*All Resources:*\n")
	for _, r := range resources {
		id := r.ID
		if len(id) > IDDisplayLength {
			id = id[:IDDisplayLength]
		}
		fmt.Fprintf(&b, "\n`%s` - %s (%s)", id, r.DisplayTitle(), r.Type)
	}
	b.WriteString("\n\n_Use `delete <id>` to remove._")
	return b.String()
}
