package registry

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/agentcore/orchestrator/pkg/core"
)

// CatalogEntry describes one tool entry in a YAML tool-catalog file used
// for hot reload; the catalog only carries metadata (tags, group,
// enablement) — the Tool implementation itself is supplied by the host
// application and looked up by name in the provided factory.
type CatalogEntry struct {
	Name      string   `yaml:"name"`
	Namespace string   `yaml:"namespace,omitempty"`
	Group     string   `yaml:"group,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Enabled   bool     `yaml:"enabled"`
}

// Catalog is the top-level shape of a tool-catalog YAML file.
type Catalog struct {
	Tools []CatalogEntry `yaml:"tools"`
}

// Factory resolves a catalog entry to a concrete Tool implementation
// supplied by the host application.
type Factory func(entry CatalogEntry) (core.Tool, bool)

// Watcher hot-reloads a YAML tool-catalog file: on every write, it
// diffs the new catalog against the registry's current contents and
// registers/unregisters/enables/disables to converge, the same
// register/unregister-diff idiom the teacher's config loader uses for
// its own hot-reloadable settings.
type Watcher struct {
	path     string
	registry *Registry
	factory  Factory
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching path for changes, applying diffs to reg
// via factory, which turns a catalog entry into a registerable tool.
func NewWatcher(path string, reg *Registry, factory Factory) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("registry: create watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("registry: watch %s: %w", path, err)
	}
	w := &Watcher{path: path, registry: reg, factory: factory, fsw: fsw}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				_ = w.Reload()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Reload re-reads the catalog file and converges the registry to match
// it: new entries are registered, entries no longer present are
// unregistered, and entries whose Enabled flag changed are toggled.
func (w *Watcher) Reload() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("registry: parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(catalog.Tools))
	for _, entry := range catalog.Tools {
		qualified := entry.Name
		if entry.Namespace != "" {
			qualified = entry.Namespace + "." + entry.Name
		}
		seen[qualified] = struct{}{}

		if w.registry.Has(qualified) {
			if entry.Enabled {
				_ = w.registry.Enable(qualified)
			} else {
				_ = w.registry.Disable(qualified)
			}
			continue
		}

		tool, ok := w.factory(entry)
		if !ok {
			continue
		}
		enabled := entry.Enabled
		_ = w.registry.Register(tool, RegisterOptions{
			Namespace: entry.Namespace,
			Group:     entry.Group,
			Tags:      entry.Tags,
			Enabled:   &enabled,
		})
	}

	w.registry.UnregisterWhere(func(rt *core.RegisteredTool) bool {
		_, ok := seen[rt.QualifiedName()]
		return !ok
	})
	return nil
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fsw.Close() }
