// Package search implements Dejoiner's in-memory relevance engine.
//
// The engine ranks a caller-supplied batch of candidate resources against a
// free-text query using mutually exclusive, priority-ordered matching tiers:
//
//	exact title > title prefix > title substring >
//	metadata frames > metadata summary > deep content index
//
// The first tier that fires determines a candidate's score; tiers are never
// accumulated. Matched candidates are ordered by score (stable, so equal
// scores preserve the caller's ordering, typically most-recently-edited
// first), capped at the requested limit, and returned with a MatchInfo
// describing where the match occurred. The score itself never leaves the
// engine.
//
// # Basic Usage
//
//	engine := search.NewEngine()
//	resp := engine.Search("checkout", candidates, 6)
//	fmt.Printf("%d matches, showing %d\n", resp.TotalMatched, len(resp.Results))
//
// The engine is a pure function over its inputs: no I/O, no shared state, no
// mutation of the candidates. Concurrent calls need no coordination.
//
// # Fuzzy Suggestions
//
// When an exact search yields nothing, Suggest produces "did you mean"
// candidates via Levenshtein edit distance with heuristic bonuses for
// substring containment and shared prefixes:
//
//	suggestions := search.Suggest("dsign systm", pool)
//
// # Service
//
// Service wires the pure engine to a resource store and an LRU response
// cache for the serving paths (HTTP quick search and chat commands). The
// cache is invalidated whenever the ingest pipeline writes a resource.
package search
