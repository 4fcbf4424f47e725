package palette

import (
	"sort"
	"strings"
	"sync"
)

// Entry is one searchable command.
type Entry struct {
	// Name is the command name passed to the editor.
	Name string `json:"name"`
	// Title is the label shown to the user.
	Title string `json:"title"`
	// Group clusters related commands, e.g. "Blocks" or "Format".
	Group string `json:"group,omitempty"`
	// Keys lists the chords bound to the command.
	Keys []string `json:"keys,omitempty"`
}

// Match is a search result.
type Match struct {
	Entry Entry `json:"entry"`
	Score int   `json:"score"`
	// Matches holds the rune indices of the matched title characters, or
	// nil when the name matched instead.
	Matches []int `json:"matches,omitempty"`
}

// Bonuses added to a match score.
const (
	titleBonus  = 50
	nameBonus   = 25
	recentBonus = 40
)

// Palette searches a fixed set of commands.
type Palette struct {
	entries []Entry

	mu        sync.Mutex
	recent    []string
	maxRecent int
}

// New creates a palette remembering up to maxRecent executed commands.
func New(maxRecent int, entries ...Entry) *Palette {
	if maxRecent <= 0 {
		maxRecent = 20
	}
	return &Palette{entries: entries, maxRecent: maxRecent}
}

// Entries returns the commands in registration order.
func (p *Palette) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Record notes that a command ran, moving it to the front of the recent
// list.
func (p *Palette) Record(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.recent {
		if n == name {
			p.recent = append(p.recent[:i], p.recent[i+1:]...)
			break
		}
	}
	p.recent = append([]string{name}, p.recent...)
	if len(p.recent) > p.maxRecent {
		p.recent = p.recent[:p.maxRecent]
	}
}

// Recent returns recently run command names, most recent first.
func (p *Palette) Recent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.recent...)
}

// recency returns a bonus that decays with position in the recent list.
func (p *Palette) recency() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.recent))
	for i, n := range p.recent {
		out[n] = recentBonus * (len(p.recent) - i) / len(p.recent)
	}
	return out
}

// Search returns up to limit commands matching query, best first. An
// empty query lists recent commands first, then the rest in order. A
// limit of zero or less means no limit.
func (p *Palette) Search(query string, limit int) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	boost := p.recency()

	results := make([]Match, 0, len(p.entries))
	for i, e := range p.entries {
		if query == "" {
			results = append(results, Match{Entry: e, Score: boost[e.Name] - i})
			continue
		}
		q := []rune(query)
		if s, m := score(q, e.Title); s > 0 {
			results = append(results, Match{Entry: e, Score: s + titleBonus + boost[e.Name], Matches: m})
		} else if s, _ := score(q, e.Name); s > 0 {
			results = append(results, Match{Entry: e, Score: s + nameBonus + boost[e.Name]})
		} else if s, _ := score(q, e.Group); s > 0 {
			results = append(results, Match{Entry: e, Score: s + boost[e.Name]})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
