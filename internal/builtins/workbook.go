// Package builtins supplies the minimal set of concrete Tool bodies
// cmd/agentcore registers so the orchestrator has something real to
// invoke. These are a demo host's tools, not part of the core: the
// core accepts any Tool implementation and never ships one itself.
package builtins

import (
	"fmt"
	"strings"
	"sync"
)

// Workbook is an in-memory stand-in for a spreadsheet, just enough
// surface for the range/sheet/formula tools below to exercise a real
// state machine instead of always returning a canned success.
type Workbook struct {
	mu     sync.Mutex
	active string
	sheets map[string]map[string]string // sheet -> range -> rendered value
}

// NewWorkbook creates a workbook with a single "Sheet1" active sheet.
func NewWorkbook() *Workbook {
	return &Workbook{
		active: "Sheet1",
		sheets: map[string]map[string]string{"Sheet1": {}},
	}
}

func (w *Workbook) ensureSheet(name string) map[string]string {
	if w.sheets[name] == nil {
		w.sheets[name] = make(map[string]string)
	}
	return w.sheets[name]
}

func (w *Workbook) Write(sheet, rng, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if sheet == "" {
		sheet = w.active
	}
	w.ensureSheet(sheet)[rng] = value
}

func (w *Workbook) Read(sheet, rng string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if sheet == "" {
		sheet = w.active
	}
	v, ok := w.sheets[sheet][rng]
	return v, ok
}

func (w *Workbook) CreateSheet(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureSheet(name)
}

func (w *Workbook) SwitchSheet(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.sheets[name]; !ok {
		return fmt.Errorf("builtins: sheet %q does not exist", name)
	}
	w.active = name
	return nil
}

func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.sheets))
	for name := range w.sheets {
		out = append(out, name)
	}
	return out
}

func (w *Workbook) ActiveSheet() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func valuesToString(values any) string {
	switch v := values.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ",")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
