package relate

import "strings"

// Tagger is a deliberately small heuristic part-of-speech tagger used only
// to extract adjectives out of a foreign key's column-name tokens during
// duplicate-name resolution (spec.md §4.6.b.2). No library in this
// project's example set ships a POS tagger (see DESIGN.md), so this is a
// curated dictionary plus a handful of suffix rules rather than a
// statistical model — it only ever has to be right about the kind of word
// that shows up in a FK column name ("primary_address_id", "billing_"...),
// not general English text.
//
// Per spec.md §5, the engine maintains at most one Tagger instance, created
// lazily and discarded by Engine.Cleanup.
type Tagger struct {
	adjectives map[string]struct{}
}

// NewTagger builds a Tagger with the built-in adjective dictionary.
func NewTagger() *Tagger {
	words := []string{
		"active", "inactive", "primary", "secondary", "default", "current",
		"previous", "last", "first", "public", "private", "main", "billing",
		"shipping", "home", "work", "mailing", "legal", "preferred",
		"temporary", "permanent", "internal", "external", "parent", "child",
		"old", "new", "archived", "pending", "approved", "verified", "admin",
		"guest", "primary", "alternate", "physical", "registered", "original",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return &Tagger{adjectives: set}
}

// Adjectives returns the subset of words that the tagger classifies as
// adjectives, preserving input order.
func (t *Tagger) Adjectives(words []string) []string {
	var out []string
	for _, w := range words {
		w = strings.ToLower(w)
		if _, ok := t.adjectives[w]; ok {
			out = append(out, w)
			continue
		}
		if t.looksAdjectival(w) {
			out = append(out, w)
		}
	}
	return out
}

// looksAdjectival applies a couple of cheap English suffix heuristics for
// adjectives not in the curated dictionary (e.g. "inherited", "seasonal").
// Words shorter than 5 characters never match, nor do the timestamp-style
// column words "created", "updated" and "deleted". There is no "-ing" rule:
// "-ing" words count as adjectives only when they are in the dictionary.
func (t *Tagger) looksAdjectival(w string) bool {
	if len(w) < 5 {
		return false
	}
	switch w {
	case "created", "updated", "deleted", "id":
		return false
	}
	for _, suffix := range []string{"ed", "ive", "ous", "al", "able", "ible"} {
		if strings.HasSuffix(w, suffix) {
			return true
		}
	}
	return false
}
