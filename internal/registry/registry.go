// Package registry implements the Tool Registry (C1): a thread-safe
// catalog of tools keyed by fully-qualified name, with namespacing,
// enable/disable, usage statistics and an event bus for registration
// changes. It is the one process-global the core allows (§9): a single
// instance is constructed once and handed to every other component by
// reference, never looked up ambiently.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/agentcore/orchestrator/pkg/core"
)

// MaxToolNameLength bounds a registered tool's fully-qualified name,
// mirroring the defensive size limits the teacher applies to LLM-facing
// surfaces before they ever reach a map lookup.
const MaxToolNameLength = 256

// RegisterOptions configures a single Register call.
type RegisterOptions struct {
	Namespace string
	Group     string
	Tags      []string
	Enabled   *bool // nil means true
	Overwrite bool
}

// Query narrows the result of Query/Search.
type Query struct {
	NameSubstring string
	Category      string
	Group         string
	Tags          []string
}

// Statistics summarizes the current catalog.
type Statistics struct {
	Total      int            `json:"total"`
	Enabled    int            `json:"enabled"`
	Disabled   int            `json:"disabled"`
	Deprecated int            `json:"deprecated"`
	Categories map[string]int `json:"categories"`
	TopUsed    []string       `json:"top_used"`
}

// HealthReport is the result of HealthCheck.
type HealthReport struct {
	Healthy  bool     `json:"healthy"`
	Warnings []string `json:"warnings"`
}

// Listener receives every registry event; Registry.AddEventListener
// registers one. Listeners are invoked synchronously under the
// registry's lock released, so they must not call back into the
// registry from inside the callback without expecting re-entrancy.
type Listener func(core.RegistryEvent)

// Registry is the concrete Tool Registry. Its listener list and tool map
// are the only mutable state guarded by a single mutex, per the
// concurrency model's "registry is the only process-global" note.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*core.RegisteredTool
	order     []string // registration order, for discovery tie-breaking
	listeners []Listener

	// StaleAfter configures HealthCheck's "unused tool" warning; zero
	// disables that check.
	StaleAfter time.Duration
	now        func() time.Time
	log        *slog.Logger
}

// New creates an empty registry. logger may be nil, in which case
// registration events are dropped instead of logged.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = observability.NewDiscardLogger()
	}
	return &Registry{
		tools: make(map[string]*core.RegisteredTool),
		now:   time.Now,
		log:   logger,
	}
}

// Register adds a tool under its fully-qualified name. Duplicate
// registration fails unless opts.Overwrite is set.
func (r *Registry) Register(tool core.Tool, opts RegisterOptions) error {
	if tool == nil {
		return fmt.Errorf("registry: nil tool")
	}
	rt := &core.RegisteredTool{
		Tool:      tool,
		Namespace: opts.Namespace,
		Group:     opts.Group,
		Tags:      make(map[string]struct{}, len(opts.Tags)),
		Enabled:   true,
		Status:    core.StatusActive,
	}
	if opts.Enabled != nil {
		rt.Enabled = *opts.Enabled
	}
	for _, t := range opts.Tags {
		rt.Tags[strings.ToLower(t)] = struct{}{}
	}

	name := rt.QualifiedName()
	if len(name) > MaxToolNameLength {
		return fmt.Errorf("registry: tool name exceeds maximum length of %d characters", MaxToolNameLength)
	}

	r.mu.Lock()
	_, exists := r.tools[name]
	if exists && !opts.Overwrite {
		r.mu.Unlock()
		return fmt.Errorf("registry: tool %q already registered", name)
	}
	r.tools[name] = rt
	if !exists {
		r.order = append(r.order, name)
	}
	r.mu.Unlock()

	r.emit(core.EventRegistered, name)
	return nil
}

// RegisterAll registers every tool with the same options, stopping at
// the first error.
func (r *Registry) RegisterAll(tools []core.Tool, opts RegisterOptions) error {
	for _, t := range tools {
		if err := r.Register(t, opts); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes a tool by its fully-qualified name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	_, ok := r.tools[name]
	if ok {
		delete(r.tools, name)
		r.order = removeString(r.order, name)
	}
	r.mu.Unlock()
	if ok {
		r.emit(core.EventUnregistered, name)
	}
}

// UnregisterWhere removes every tool matching predicate.
func (r *Registry) UnregisterWhere(predicate func(*core.RegisteredTool) bool) {
	r.mu.Lock()
	var removed []string
	for name, rt := range r.tools {
		if predicate(rt) {
			removed = append(removed, name)
		}
	}
	for _, name := range removed {
		delete(r.tools, name)
		r.order = removeString(r.order, name)
	}
	r.mu.Unlock()
	for _, name := range removed {
		r.emit(core.EventUnregistered, name)
	}
}

// Get returns the tool registered under name. A disabled tool is
// reported as absent, matching the contract "get of a disabled tool
// returns none".
func (r *Registry) Get(name string) (core.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	if !ok || !rt.Enabled {
		return nil, false
	}
	return rt.Tool, true
}

// GetRegistered returns the full RegisteredTool record regardless of
// enablement, for callers (validator, discovery) that need the metadata.
func (r *Registry) GetRegistered(name string) (*core.RegisteredTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.tools[name]
	return rt, ok
}

// Has reports whether name is registered, regardless of enablement.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Enable re-enables a registered tool.
func (r *Registry) Enable(name string) error {
	return r.setEnabled(name, true, core.EventEnabled)
}

// Disable disables a registered tool without removing it.
func (r *Registry) Disable(name string) error {
	return r.setEnabled(name, false, core.EventDisabled)
}

func (r *Registry) setEnabled(name string, enabled bool, evt core.RegistryEventType) error {
	r.mu.Lock()
	rt, ok := r.tools[name]
	if ok {
		rt.Enabled = enabled
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("registry: tool %q not found", name)
	}
	r.emit(evt, name)
	return nil
}

// Deprecate marks a tool deprecated, optionally pointing callers at a
// replacement's fully-qualified name.
func (r *Registry) Deprecate(name, replacement string) error {
	r.mu.Lock()
	rt, ok := r.tools[name]
	if ok {
		rt.Status = core.StatusDeprecated
		rt.Replacement = replacement
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("registry: tool %q not found", name)
	}
	r.emit(core.EventDeprecated, name)
	return nil
}

// RecordUsage bumps a tool's usage count and last-used timestamp. The
// executor calls this once per invocation attempt, independent of
// success, so Statistics.TopUsed reflects call volume.
func (r *Registry) RecordUsage(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.tools[name]; ok {
		rt.UsageCount++
		rt.LastUsedAt = r.now().UnixMilli()
	}
}

// RecordOutcome folds a tool-call outcome into its moving-average
// success rate and duration, the same bookkeeping Tool Discovery reads
// back via use_stats.
func (r *Registry) RecordOutcome(name string, success bool, durationMS float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt, ok := r.tools[name]; ok {
		rt.RecordOutcome(success, durationMS)
	}
}

// Query returns every tool matching q, in registration order.
func (r *Registry) Query(q Query) []*core.RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*core.RegisteredTool
	for _, name := range r.order {
		rt, ok := r.tools[name]
		if !ok {
			continue
		}
		if q.NameSubstring != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(q.NameSubstring)) {
			continue
		}
		if q.Category != "" && rt.Tool.Category() != q.Category {
			continue
		}
		if q.Group != "" && rt.Group != q.Group {
			continue
		}
		if len(q.Tags) > 0 && !hasAllTags(rt, q.Tags) {
			continue
		}
		out = append(out, rt)
	}
	return out
}

func hasAllTags(rt *core.RegisteredTool, tags []string) bool {
	for _, t := range tags {
		if _, ok := rt.Tags[strings.ToLower(t)]; !ok {
			return false
		}
	}
	return true
}

// Search does a free-text match against name and description.
func (r *Registry) Search(freeText string) []*core.RegisteredTool {
	needle := strings.ToLower(freeText)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*core.RegisteredTool
	for _, name := range r.order {
		rt := r.tools[name]
		if rt == nil {
			continue
		}
		haystack := strings.ToLower(name + " " + rt.Tool.Description())
		if strings.Contains(haystack, needle) {
			out = append(out, rt)
		}
	}
	return out
}

// Statistics summarizes the catalog.
func (r *Registry) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{Categories: make(map[string]int)}
	type usage struct {
		name  string
		count int64
	}
	var byUsage []usage
	for name, rt := range r.tools {
		stats.Total++
		if rt.Enabled {
			stats.Enabled++
		} else {
			stats.Disabled++
		}
		if rt.Status == core.StatusDeprecated {
			stats.Deprecated++
		}
		stats.Categories[rt.Tool.Category()]++
		byUsage = append(byUsage, usage{name, rt.UsageCount})
	}
	sort.Slice(byUsage, func(i, j int) bool { return byUsage[i].count > byUsage[j].count })
	for i, u := range byUsage {
		if i >= 10 {
			break
		}
		stats.TopUsed = append(stats.TopUsed, u.name)
	}
	return stats
}

// HealthCheck supplements the registry contract with structured
// warnings, grounded on the capability-health pattern of scoring
// agents by staleness and success rate and generalizing it to tools.
func (r *Registry) HealthCheck() HealthReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := HealthReport{Healthy: true}
	now := r.now()
	for name, rt := range r.tools {
		if !rt.Enabled {
			continue
		}
		if r.StaleAfter > 0 && rt.LastUsedAt > 0 {
			lastUsed := time.UnixMilli(rt.LastUsedAt)
			if now.Sub(lastUsed) > r.StaleAfter {
				report.Warnings = append(report.Warnings, fmt.Sprintf("tool %q unused for over %s", name, r.StaleAfter))
			}
		}
		if rt.HasStats() && rt.SuccessRate < 0.3 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("tool %q success rate below threshold (%.2f)", name, rt.SuccessRate))
		}
	}
	if len(report.Warnings) > 0 {
		report.Healthy = false
	}
	return report
}

// AddEventListener registers f to be called for every subsequent
// registry event.
func (r *Registry) AddEventListener(f Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, f)
}

func (r *Registry) emit(evt core.RegistryEventType, name string) {
	r.mu.RLock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.RUnlock()
	event := core.RegistryEvent{Type: evt, ToolName: name, Timestamp: r.now().UnixMilli()}
	r.log.Debug("registry event", "type", string(evt), "tool", name)
	for _, l := range listeners {
		l(event)
	}
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
