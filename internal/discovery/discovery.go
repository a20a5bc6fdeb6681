// Package discovery implements Tool Discovery (C2): it extracts semantic
// tags from tool metadata and ranks tools against an intent atom. It is
// read-only with respect to the registry — discovery never registers or
// disables a tool, it only queries it.
package discovery

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"github.com/agentcore/orchestrator/internal/registry"
	"github.com/agentcore/orchestrator/pkg/core"
)

// Options configures a single Discover call.
type Options struct {
	Limit      int
	MinScore   float64
	UseStats   bool
	Categories []string
}

// DefaultOptions mirrors the contract's documented defaults.
func DefaultOptions() Options {
	return Options{Limit: 5, MinScore: 0.3, UseStats: true}
}

// Ranked is one scored tool in a Discover result.
type Ranked struct {
	Name  string
	Score float64
	order int
}

// Discovery builds a reverse tag index over a Registry's tools and
// scores them against intent atoms.
type Discovery struct {
	registry *registry.Registry
	fold     cases.Caser
}

// New constructs a Discovery bound to reg. The index is computed lazily
// on every Discover call by re-querying the registry, so enable/disable
// and new registrations are picked up without an explicit refresh step.
func New(reg *registry.Registry) *Discovery {
	return &Discovery{registry: reg, fold: cases.Fold()}
}

// normalize folds case and normalizes fullwidth/halfwidth forms so CJK
// synonyms entered in either width match tool text consistently.
func (d *Discovery) normalize(s string) string {
	return d.fold.String(width.Fold.String(s))
}

// tagsFor computes the set of canonical tags a tool earns from its name
// and description against both synonym tables, union'd with any
// explicit tags the registry recorded at registration time.
func (d *Discovery) tagsFor(rt *core.RegisteredTool) map[string]float64 {
	tags := make(map[string]float64)
	haystack := d.normalize(rt.Tool.Name() + " " + rt.Tool.Description())

	for _, group := range allSynonymTables() {
		for tag, synonyms := range group.table {
			for _, syn := range synonyms {
				if strings.Contains(haystack, d.normalize(syn)) {
					if w, ok := tags[tag]; !ok || group.weight > w {
						tags[tag] = group.weight
					}
					break
				}
			}
		}
	}
	for explicit := range rt.Tags {
		if _, ok := tags[explicit]; !ok {
			tags[explicit] = categoryWeight
		}
	}
	return tags
}

// atomTags turns an IntentAtom into the same {tag: weight} shape so it
// can be scored against a tool's tag set with the dot-product formula.
func atomTags(atom core.IntentAtom) map[string]float64 {
	tags := make(map[string]float64)
	if atom.Action != "" {
		tags[atom.Action] = actionWeight
	}
	if atom.Entity != "" {
		tags[atom.Entity] = entityWeight
	}
	for _, m := range atom.Modifiers {
		tags[m] = categoryWeight
	}
	return tags
}

// Discover ranks registered, enabled tools against an intent atom.
// Score = Σ(intent_tag_weight × tool_tag_weight for matches) /
// Σ(intent_tag_weight); when UseStats is set and the tool has recorded
// outcomes, the final score blends in its success rate 0.7/0.3.
func (d *Discovery) Discover(atom core.IntentAtom, opts Options) []Ranked {
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	intent := atomTags(atom)
	var denom float64
	for _, w := range intent {
		denom += w
	}
	if denom == 0 {
		return nil
	}

	q := registry.Query{}
	candidates := d.registry.Query(q)

	var ranked []Ranked
	for i, rt := range candidates {
		if !rt.Enabled {
			continue
		}
		if len(opts.Categories) > 0 && !containsStr(opts.Categories, rt.Tool.Category()) {
			continue
		}
		toolTags := d.tagsFor(rt)
		var numer float64
		for tag, iw := range intent {
			if tw, ok := toolTags[tag]; ok {
				numer += iw * tw
			}
		}
		semantic := numer / denom
		score := semantic
		if opts.UseStats && rt.HasStats() {
			score = 0.7*semantic + 0.3*rt.SuccessRate
		}
		if score < opts.MinScore {
			continue
		}
		ranked = append(ranked, Ranked{Name: rt.QualifiedName(), Score: score, order: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].order < ranked[j].order
	})
	if len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked
}

// DiscoverWithFallback tries the primary atom first; if it ranks no
// enabled tool at or above MinScore (Discover never ranks disabled
// tools), it walks the fallback atoms in order and returns the first
// non-empty ranking — grounded on the capability router's
// route-with-fallback pattern, generalized from agents to tools.
func (d *Discovery) DiscoverWithFallback(primary core.IntentAtom, fallbacks []core.IntentAtom, opts Options) []Ranked {
	if ranked := d.Discover(primary, opts); len(ranked) > 0 {
		return ranked
	}
	for _, fb := range fallbacks {
		if ranked := d.Discover(fb, opts); len(ranked) > 0 {
			return ranked
		}
	}
	return nil
}

// UpdateStats maintains a tool's exponential-moving success_rate and
// avg_duration (alpha = 0.2), delegating to the registry's bookkeeping
// since RegisteredTool state lives there.
func (d *Discovery) UpdateStats(name string, success bool, durationMS float64) {
	d.registry.RecordOutcome(name, success, durationMS)
}

func containsStr(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
