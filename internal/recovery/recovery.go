// Package recovery implements the Recovery Manager (C7): an ordered list
// of regex-pattern strategies, sorted by ascending priority, each
// yielding a RecoveryAction for a failed step. A per-step retry count
// gracefully degrades a Retry into a later Skip/Abort strategy once
// max_retries is exhausted.
package recovery

import (
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/agentcore/orchestrator/internal/backoff"
	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/agentcore/orchestrator/pkg/core"
)

// DefaultMaxRetries is the cap on per-step retry attempts before the
// search moves past any strategy that would return Retry.
const DefaultMaxRetries = 3

// Strategy is one entry in the recovery chain.
type Strategy struct {
	ID                string
	ErrorPattern      *regexp.Regexp
	ApplicableActions map[string]bool // nil means "applies to any action"
	Priority          int
	Recover           func(err error, step core.Step) (core.RecoveryAction, bool)
}

// Manager holds the ordered strategy list and per-step retry counters.
type Manager struct {
	mu         sync.Mutex
	strategies []Strategy
	retries    map[string]int
	maxRetries int
	log        *slog.Logger
}

// New builds a Manager with the eight built-in strategies, sorted by
// priority ascending (lower priority values are tried first). logger
// may be nil, in which case matched strategies are dropped instead of
// logged.
func New(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = observability.NewDiscardLogger()
	}
	m := &Manager{
		retries:    make(map[string]int),
		maxRetries: DefaultMaxRetries,
		log:        logger,
	}
	m.strategies = builtinStrategies()
	sort.SliceStable(m.strategies, func(i, j int) bool {
		return m.strategies[i].Priority < m.strategies[j].Priority
	})
	return m
}

// ResetRetryCount clears one step's counter, or every counter when
// stepID is empty. The executor calls this with no argument at the
// start of an execution.
func (m *Manager) ResetRetryCount(stepID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stepID == "" {
		m.retries = make(map[string]int)
		return
	}
	delete(m.retries, stepID)
}

// Recover walks the strategy chain in priority order and returns the
// first non-none action. A strategy that would return Retry is skipped
// once the step has already exhausted max_retries, so retry exhaustion
// gracefully degrades to whatever strategy matches next.
func (m *Manager) Recover(err error, step core.Step) (core.RecoveryAction, bool) {
	if err == nil {
		return core.RecoveryAction{}, false
	}
	msg := err.Error()

	for _, strat := range m.strategies {
		if strat.ApplicableActions != nil && !strat.ApplicableActions[step.Action] {
			continue
		}
		if !strat.ErrorPattern.MatchString(msg) {
			continue
		}
		action, ok := strat.Recover(err, step)
		if !ok {
			continue
		}
		if action.Kind == core.ActionRetry {
			m.mu.Lock()
			count := m.retries[step.ID]
			if count >= m.maxRetries {
				m.mu.Unlock()
				continue
			}
			m.retries[step.ID] = count + 1
			m.mu.Unlock()
			action.DelayMS = retryDelayMS(action.DelayMS, count+1)
		}
		m.log.Debug("recovery strategy matched", "strategy", strat.ID, "step_id", step.ID, "action", string(action.Kind))
		return action, true
	}
	return core.RecoveryAction{}, false
}

func re(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + pattern)
}

// retryDelayMS scales a strategy's base delay exponentially with the
// step's attempt number, treating baseMS as the backoff policy's
// InitialMs. No jitter: a step's Nth retry delay is deterministic given
// its base, which keeps recovery behavior reproducible in tests.
func retryDelayMS(baseMS int64, attempt int) int64 {
	policy := backoff.BackoffPolicy{
		InitialMs: float64(baseMS),
		MaxMs:     float64(baseMS) * 8,
		Factor:    2,
		Jitter:    0,
	}
	return backoff.ComputeBackoff(policy, attempt).Milliseconds()
}

func builtinStrategies() []Strategy {
	return []Strategy{
		{
			ID:           "network_error",
			Priority:     5,
			ErrorPattern: re(`network|timeout|ECONNREFUSED|fetch failed|网络|超时`),
			Recover: func(error, core.Step) (core.RecoveryAction, bool) {
				return core.Retry(2000), true
			},
		},
		{
			ID:           "transient_error",
			Priority:     5,
			ErrorPattern: re(`busy|locked|temporarily|繁忙|锁定`),
			Recover: func(error, core.Step) (core.RecoveryAction, bool) {
				return core.Retry(1000), true
			},
		},
		{
			ID:                "range_not_found",
			Priority:          10,
			ErrorPattern:      re(`range.*not found|invalid range|范围.*不存在`),
			ApplicableActions: map[string]bool{"read_range": true, "read_cell": true},
			Recover: func(error, step core.Step) (core.RecoveryAction, bool) {
				alt := step.Clone()
				alt.ID = alt.ID + "_fallback"
				alt.Action = "read_selection"
				return core.Substitute(alt), true
			},
		},
		{
			ID:           "sheet_not_exist",
			Priority:     10,
			ErrorPattern: re(`sheet.*not exist|worksheet.*not found|工作表.*不存在`),
			Recover: func(err error, step core.Step) (core.RecoveryAction, bool) {
				alt := step.Clone()
				alt.ID = alt.ID + "_fallback"
				alt.Action = "create_sheet"
				if name := extractSheetName(err.Error()); name != "" {
					params := alt.Parameters.Clone()
					if params == nil {
						params = core.Params{}
					}
					params["name"] = name
					alt.Parameters = params
				}
				return core.Substitute(alt), true
			},
		},
		{
			ID:                "formula_error",
			Priority:          10,
			ErrorPattern:      re(`formula`),
			ApplicableActions: map[string]bool{"set_formula": true, "batch_formula": true, "fill_formula": true},
			Recover: func(error, step core.Step) (core.RecoveryAction, bool) {
				return core.Skip("formula error"), true
			},
		},
		{
			ID:           "data_format_error",
			Priority:     15,
			ErrorPattern: re(`data.*format|format.*error|invalid.*data`),
			Recover: func(error, step core.Step) (core.RecoveryAction, bool) {
				if step.IsWriteOperation {
					return core.RecoveryAction{}, false
				}
				return core.Skip("data format error"), true
			},
		},
		{
			ID:           "permission_error",
			Priority:     20,
			ErrorPattern: re(`permission|denied|unauthorized|forbidden`),
			Recover: func(error, step core.Step) (core.RecoveryAction, bool) {
				if step.IsWriteOperation {
					return core.Abort("You don't have permission to make this change."), true
				}
				return core.Skip("permission error"), true
			},
		},
		{
			ID:           "default",
			Priority:     100,
			ErrorPattern: re(`.`),
			Recover: func(error, step core.Step) (core.RecoveryAction, bool) {
				if step.IsWriteOperation {
					return core.RecoveryAction{}, false
				}
				return core.Skip("unrecognized error"), true
			},
		},
	}
}

var sheetNameRe = regexp.MustCompile(`(?i)sheet\s+["']?([A-Za-z0-9 _-]+?)["']?\s+(?:does\s+)?(?:not exist|not found)`)

// extractSheetName pulls the missing sheet's name out of an error
// message like `sheet "Archive" does not exist` for the substituted
// create_sheet step.
func extractSheetName(msg string) string {
	m := sheetNameRe.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	return m[1]
}
