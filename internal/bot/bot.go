// Package bot implements the chat command processor. It is transport free:
// the caller feeds it inbound messages and renders the replies and prompts it
// returns on whatever chat surface it owns.
package bot

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dejoiner/dejoiner/internal/config"
	"github.com/dejoiner/dejoiner/internal/ingest"
	"github.com/dejoiner/dejoiner/internal/storage"
	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// SearchLimit caps mention-command search results
	SearchLimit = 5

	// FindLimit caps quick-find results
	FindLimit = 3

	// ListLimit caps the recent-resource listing
	ListLimit = 5

	// AdminListLimit caps the admin full listing
	AdminListLimit = 20

	// IDDisplayLength is how much of a resource ID admin listings show
	IDDisplayLength = 8
)

var (
	linkPattern    = regexp.MustCompile(`(?i)(https?://[^\s>]+)`)
	mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)
)

// Message is one inbound chat message addressed to the bot
type Message struct {
	Text       string
	AuthorID   string
	AuthorName string
}

// PromptKind distinguishes the interactive follow-ups a transport renders as
// confirmation buttons.
type PromptKind string

const (
	// PromptIndex asks whether a freshly detected link should be indexed
	PromptIndex PromptKind = "index"

	// PromptDuplicate asks whether to replace the context of an already
	// indexed resource
	PromptDuplicate PromptKind = "duplicate"
)

// Prompt is a rendered question with the data the transport needs to wire
// its confirm action back into ConfirmIndex or ReplaceContext.
type Prompt struct {
	Kind     PromptKind
	Text     string
	URL      string
	Type     types.ResourceType
	Existing *types.Resource // Set for duplicate prompts
}

// Reply is the processor's response to one message
type Reply struct {
	Text    string
	Prompts []Prompt
}

// Store is the slice of the resource store the processor reads from
type Store interface {
	ListRecent(ctx context.Context, limit int) ([]types.Resource, error)
	ListResources(ctx context.Context, opts storage.ListOptions) ([]types.Resource, int, error)
	Stats(ctx context.Context) (*storage.Stats, error)
}

// Searcher runs the chat search path: substring lookup with fuzzy fallback
type Searcher interface {
	Lookup(ctx context.Context, query string, limit int) ([]types.Resource, []types.FuzzySuggestion, error)
}

// Ingester saves and deletes resources on behalf of chat users
type Ingester interface {
	Save(ctx context.Context, req ingest.SaveRequest) (*types.Resource, error)
	Delete(ctx context.Context, idPrefix string) (*types.Resource, error)
	FindDuplicate(ctx context.Context, url string, resourceType types.ResourceType) (*types.Resource, error)
}

// SettingsSource resolves runtime settings, including the admin list
type SettingsSource interface {
	Get(ctx context.Context) (*config.Settings, error)
}

// Processor routes chat commands to the search and ingest services
type Processor struct {
	store    Store
	search   Searcher
	ingester Ingester
	settings SettingsSource
	logger   *zap.Logger
}

// NewProcessor creates a command processor. settings may be nil, in which
// case nobody is an admin.
func NewProcessor(store Store, search Searcher, ingester Ingester,
	settings SettingsSource, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:    store,
		search:   search,
		ingester: ingester,
		settings: settings,
		logger:   logger,
	}
}

// HandleMessage processes one inbound message: explicit commands first, then
// bare-link detection. A nil reply means the message needs no response.
func (p *Processor) HandleMessage(ctx context.Context, msg Message) (*Reply, error) {
	clean := strings.ToLower(strings.TrimSpace(mentionPattern.ReplaceAllString(msg.Text, "")))
	if clean == "" {
		return nil, nil
	}

	switch {
	case clean == "ping":
		return &Reply{Text: "pong! Dejoiner is alive."}, nil

	case clean == "help":
		return p.help(ctx, msg), nil

	case strings.HasPrefix(clean, "search "):
		return p.searchCommand(ctx, strings.TrimSpace(strings.TrimPrefix(clean, "search ")))

	case strings.HasPrefix(clean, "find "):
		return p.findCommand(ctx, strings.TrimSpace(strings.TrimPrefix(clean, "find ")))

	case clean == "list":
		return p.listCommand(ctx)

	case strings.HasPrefix(clean, "save "):
		return p.saveCommand(ctx, msg)
	}

	if p.isAdmin(ctx, msg.AuthorID) {
		switch {
		case clean == "commands" || clean == "admin help":
			return &Reply{Text: adminHelp}, nil
		case clean == "stats":
			return p.statsCommand(ctx)
		case clean == "list all":
			return p.listAllCommand(ctx)
		case strings.HasPrefix(clean, "delete "):
			return p.deleteCommand(ctx, strings.TrimSpace(strings.TrimPrefix(clean, "delete ")))
		}
	}

	return p.detectLinks(ctx, msg)
}

// ConfirmIndex indexes a link a user approved from an index prompt
func (p *Processor) ConfirmIndex(ctx context.Context, msg Message, url string) (*Reply, error) {
	resource, err := p.ingester.Save(ctx, ingest.SaveRequest{
		URL:        url,
		Context:    contextAround(msg.Text, url),
		AuthorName: msg.AuthorName,
	})
	if err != nil {
		var dup *ingest.DuplicateError
		if errors.As(err, &dup) {
			return &Reply{Text: renderDuplicate(dup.Existing)}, nil
		}
		return nil, err
	}
	return &Reply{Text: renderIndexed(resource, msg.AuthorName)}, nil
}

// ReplaceContext attaches fresh chat context to an already indexed resource
func (p *Processor) ReplaceContext(ctx context.Context, msg Message, url string) (*Reply, error) {
	_, err := p.ingester.Save(ctx, ingest.SaveRequest{
		URL:            url,
		Context:        contextAround(msg.Text, url),
		AuthorName:     msg.AuthorName,
		ReplaceContext: true,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Text: "Context updated by " + msg.AuthorName}, nil
}

func (p *Processor) help(ctx context.Context, msg Message) *Reply {
	text := publicHelp
	if p.isAdmin(ctx, msg.AuthorID) {
		text += adminHelp
	}
	return &Reply{Text: text}
}

func (p *Processor) searchCommand(ctx context.Context, query string) (*Reply, error) {
	if query == "" {
		return &Reply{Text: "Usage: `search <keyword>`"}, nil
	}

	results, suggestions, err := p.search.Lookup(ctx, query, SearchLimit)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return &Reply{Text: renderResults("Results for \""+query+"\":", results)}, nil
	}
	if len(suggestions) > 0 {
		return &Reply{Text: renderSuggestions(query, suggestions)}, nil
	}
	return &Reply{Text: "No results found for \"" + query + "\"."}, nil
}

func (p *Processor) findCommand(ctx context.Context, query string) (*Reply, error) {
	if query == "" {
		return &Reply{Text: "Usage: `find <keyword>`"}, nil
	}

	results, _, err := p.search.Lookup(ctx, query, FindLimit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Reply{Text: "No results for \"" + query + "\"."}, nil
	}
	return &Reply{Text: renderResults("Results for \""+query+"\":", results)}, nil
}

func (p *Processor) listCommand(ctx context.Context) (*Reply, error) {
	resources, err := p.store.ListRecent(ctx, ListLimit)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return &Reply{Text: "No resources found yet."}, nil
	}
	return &Reply{Text: renderResults("Recent Resources:", resources)}, nil
}

func (p *Processor) saveCommand(ctx context.Context, msg Message) (*Reply, error) {
	// Everything after the "save" keyword: the link plus optional context
	raw := strings.TrimSpace(mentionPattern.ReplaceAllString(msg.Text, ""))
	body := strings.TrimSpace(raw[len("save"):])

	links := linkPattern.FindAllString(body, 1)
	if len(links) == 0 {
		return &Reply{Text: "No valid URL found."}, nil
	}
	url := strings.TrimSuffix(links[0], ">")

	resource, err := p.ingester.Save(ctx, ingest.SaveRequest{
		URL:        url,
		Context:    contextAround(body, url),
		AuthorName: msg.AuthorName,
	})
	if err != nil {
		var dup *ingest.DuplicateError
		if errors.As(err, &dup) {
			return &Reply{Text: renderDuplicate(dup.Existing)}, nil
		}
		return nil, err
	}
	return &Reply{Text: renderIndexed(resource, msg.AuthorName)}, nil
}

func (p *Processor) statsCommand(ctx context.Context) (*Reply, error) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: renderStats(stats)}, nil
}

func (p *Processor) listAllCommand(ctx context.Context) (*Reply, error) {
	resources, _, err := p.store.ListResources(ctx, storage.ListOptions{Limit: AdminListLimit})
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return &Reply{Text: "No resources found."}, nil
	}
	return &Reply{Text: renderAdminList(resources)}, nil
}

func (p *Processor) deleteCommand(ctx context.Context, idPrefix string) (*Reply, error) {
	if idPrefix == "" {
		return &Reply{Text: "Usage: `delete <id>`"}, nil
	}

	resource, err := p.ingester.Delete(ctx, idPrefix)
	if errors.Is(err, storage.ErrNotFound) {
		return &Reply{Text: "No resource found with ID `" + idPrefix + "`."}, nil
	}
	if errors.Is(err, storage.ErrAmbiguousPrefix) {
		return &Reply{Text: "ID `" + idPrefix + "` matches more than one resource."}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Reply{Text: "Deleted: *" + resource.DisplayTitle() + "*"}, nil
}

// detectLinks scans a bare message for indexable links and builds index or
// duplicate prompts for each supported one.
func (p *Processor) detectLinks(ctx context.Context, msg Message) (*Reply, error) {
	links := linkPattern.FindAllString(msg.Text, -1)
	if len(links) == 0 {
		return nil, nil
	}

	var prompts []Prompt
	for _, raw := range links {
		url := strings.TrimSuffix(raw, ">")
		resourceType := ingest.ClassifyURL(url)
		if resourceType == types.ResourceOther {
			continue
		}

		existing, err := p.ingester.FindDuplicate(ctx, url, resourceType)
		if err != nil {
			p.logger.Warn("duplicate check failed", zap.String("url", url), zap.Error(err))
			continue
		}

		if existing != nil {
			prompts = append(prompts, Prompt{
				Kind:     PromptDuplicate,
				Text:     renderDuplicatePrompt(existing, url),
				URL:      url,
				Type:     resourceType,
				Existing: existing,
			})
		} else {
			prompts = append(prompts, Prompt{
				Kind: PromptIndex,
				Text: renderIndexPrompt(resourceType, url),
				URL:  url,
				Type: resourceType,
			})
		}
	}

	if len(prompts) == 0 {
		return nil, nil
	}
	return &Reply{Prompts: prompts}, nil
}

func (p *Processor) isAdmin(ctx context.Context, userID string) bool {
	if p.settings == nil || userID == "" {
		return false
	}
	settings, err := p.settings.Get(ctx)
	if err != nil {
		p.logger.Warn("settings lookup failed", zap.Error(err))
		return false
	}
	return settings.IsAdmin(userID)
}

// contextAround strips the link itself from the message so only the
// surrounding chat text is captured as context.
func contextAround(text, url string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, url, ""))
}
