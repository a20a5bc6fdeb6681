// Package validator implements the Plan Validator (C5): an ordered chain
// of rules, each either blocking or merely a warning, applied to a
// compiled ExecutionPlan before the DAG Executor is allowed to run it.
package validator

import (
	"log/slog"
	"regexp"

	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/agentcore/orchestrator/internal/rangeutil"
	"github.com/agentcore/orchestrator/pkg/core"
)

// Severity is a rule's failure class.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
)

// Rule is one entry in the validator's ordered chain.
type Rule struct {
	ID       string
	Severity Severity
	Enabled  bool
	Check    func(plan *core.ExecutionPlan, wb *core.WorkbookContext) []core.ValidationIssue
}

// Result is the validator's output.
type Result struct {
	Passed      bool
	CanProceed  bool
	Errors      []core.ValidationIssue
	Warnings    []core.ValidationIssue
	Suggestions []string
}

// queryOnlyActions is the closed read-only set that lets a plan skip the
// whole rule chain.
var queryOnlyActions = map[string]bool{
	"read_range": true, "read_cell": true, "get_sheets": true,
	"get_selection": true, "get_used_range": true, "get_active_sheet": true,
	"get_workbook_info": true, "respond_to_user": true,
}

// Validator runs the rule chain, in registration order, against a plan.
type Validator struct {
	rules []Rule
	log   *slog.Logger
}

// New builds a Validator with the five default rules, registered in the
// order the contract lists them. logger may be nil, in which case
// blocking issues are dropped instead of logged.
func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = observability.NewDiscardLogger()
	}
	return &Validator{log: logger, rules: []Rule{
		{ID: "dependency_order", Severity: SeverityBlock, Enabled: true, Check: checkDependencyOrder},
		{ID: "reference_exists", Severity: SeverityBlock, Enabled: true, Check: checkReferenceExists},
		{ID: "role_violation", Severity: SeverityBlock, Enabled: true, Check: checkRoleViolation},
		{ID: "batch_behavior_missing", Severity: SeverityWarn, Enabled: true, Check: checkBatchBehaviorMissing},
		{ID: "high_risk_operation", Severity: SeverityBlock, Enabled: true, Check: checkHighRiskOperation},
	}}
}

// Rules exposes the chain so a host can disable one by id.
func (v *Validator) Rules() []Rule { return v.rules }

// Disable turns off a rule by id; unknown ids are a no-op.
func (v *Validator) Disable(id string) {
	for i := range v.rules {
		if v.rules[i].ID == id {
			v.rules[i].Enabled = false
		}
	}
}

// Validate applies the rule chain, or skips it entirely when the plan
// qualifies for the query-only shortcut.
func (v *Validator) Validate(plan *core.ExecutionPlan, wb *core.WorkbookContext) Result {
	if isQueryOnly(plan) {
		return Result{Passed: true, CanProceed: true}
	}

	var errs, warns []core.ValidationIssue
	for _, rule := range v.rules {
		if !rule.Enabled {
			continue
		}
		issues := rule.Check(plan, wb)
		for _, issue := range issues {
			issue.RuleID = rule.ID
			issue.Severity = string(rule.Severity)
			if rule.Severity == SeverityBlock {
				errs = append(errs, issue)
			} else {
				warns = append(warns, issue)
			}
		}
	}
	if len(errs) > 0 {
		v.log.Warn("plan blocked by validation", "plan_id", plan.ID, "errors", len(errs))
	}
	return Result{
		Passed:     len(errs) == 0,
		CanProceed: len(errs) == 0,
		Errors:     errs,
		Warnings:   warns,
	}
}

// isQueryOnly implements the shortcut: every step's action must belong to
// the closed read-only set, and the plan must be non-empty (which, given
// the set is entirely reads/respond, already satisfies "at least one is
// a read or respond").
func isQueryOnly(plan *core.ExecutionPlan) bool {
	if len(plan.Steps) == 0 {
		return false
	}
	for _, s := range plan.Steps {
		if !queryOnlyActions[s.Action] {
			return false
		}
	}
	return true
}

// checkDependencyOrder verifies that every depends_on id exists and
// precedes its dependent in step order, and that cross-sheet formula
// references which both get created in-plan are created in the right
// order.
func checkDependencyOrder(plan *core.ExecutionPlan, _ *core.WorkbookContext) []core.ValidationIssue {
	var issues []core.ValidationIssue
	indexOf := make(map[string]int, len(plan.Steps))
	for i, s := range plan.Steps {
		indexOf[s.ID] = i
	}

	for i, s := range plan.Steps {
		for _, dep := range s.DependsOn {
			depIdx, ok := indexOf[dep]
			if !ok {
				issues = append(issues, core.ValidationIssue{
					StepID:  s.ID,
					Message: "depends_on references an id not present in the plan: " + dep,
				})
				continue
			}
			if depIdx >= i {
				issues = append(issues, core.ValidationIssue{
					StepID:  s.ID,
					Message: "depends_on " + dep + " does not precede this step",
				})
			}
		}
	}

	sheetCreatedAt := make(map[string]int)
	for i, s := range plan.Steps {
		if s.Action == "create_sheet" {
			if name := s.Parameters.String("name", s.Parameters.String("sheet_name", "")); name != "" {
				sheetCreatedAt[name] = i
			}
		}
	}
	for _, s := range plan.Steps {
		target := s.Parameters.String("sheet", s.Parameters.String("target_sheet", ""))
		if target == "" {
			continue
		}
		for _, ref := range referencedSheets(s.Parameters) {
			if ref == target {
				continue
			}
			refIdx, refCreated := sheetCreatedAt[ref]
			targetIdx, targetCreated := sheetCreatedAt[target]
			if refCreated && targetCreated && refIdx >= targetIdx {
				issues = append(issues, core.ValidationIssue{
					StepID:  s.ID,
					Message: "sheet " + ref + " must be created before " + target + " references it",
				})
			}
		}
	}
	return issues
}

// checkReferenceExists requires every sheet referenced by a formula to
// already exist in the live workbook or be created earlier in the plan.
func checkReferenceExists(plan *core.ExecutionPlan, wb *core.WorkbookContext) []core.ValidationIssue {
	var issues []core.ValidationIssue
	createdBefore := make(map[string]bool)
	for _, s := range plan.Steps {
		for _, ref := range referencedSheets(s.Parameters) {
			if wb.HasSheet(ref) || createdBefore[ref] {
				continue
			}
			issues = append(issues, core.ValidationIssue{
				StepID:  s.ID,
				Message: "formula references unknown sheet: " + ref,
			})
		}
		if s.Action == "create_sheet" {
			if name := s.Parameters.String("name", s.Parameters.String("sheet_name", "")); name != "" {
				createdBefore[name] = true
			}
		}
	}
	return issues
}

var sheetRefRe = regexp.MustCompile(`'([^']+)'!|([A-Za-z_][A-Za-z0-9_]*)!`)

// referencedSheets scans every string-valued parameter for cross-sheet
// formula references ('Sheet Name'! or Sheet!).
func referencedSheets(params core.Params) []string {
	var out []string
	for _, v := range params {
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, m := range sheetRefRe.FindAllStringSubmatch(s, -1) {
			if m[1] != "" {
				out = append(out, m[1])
			} else if m[2] != "" {
				out = append(out, m[2])
			}
		}
	}
	return out
}

var roleTransactionRe = regexp.MustCompile(`(?i)transaction|order|sale`)
var roleSummaryRe = regexp.MustCompile(`(?i)summary|report|monthly|yearly`)

// checkRoleViolation refuses literal positive numbers in price/cost/
// amount-shaped columns on transaction-like sheets, and any literal
// positive number at all on summary-like sheets (those should be
// computed, not hand-entered).
func checkRoleViolation(plan *core.ExecutionPlan, _ *core.WorkbookContext) []core.ValidationIssue {
	var issues []core.ValidationIssue
	for _, s := range plan.Steps {
		if !s.IsWriteOperation {
			continue
		}
		sheet := s.Parameters.String("sheet", s.Parameters.String("target_sheet", ""))
		if sheet == "" {
			continue
		}
		rng := s.Parameters.String("range", "")
		bounds, hasBounds := rangeutil.ParseRange(rng)

		switch {
		case roleTransactionRe.MatchString(sheet):
			if hasBounds && !bounds.OverlapsColumnRange(4, 7) {
				continue
			}
			if hasPositiveNumberLiteral(s.Parameters) {
				issues = append(issues, core.ValidationIssue{
					StepID:  s.ID,
					Message: "literal positive number written into a price/cost/amount column on a transaction sheet: " + sheet,
				})
			}
		case roleSummaryRe.MatchString(sheet):
			if hasPositiveNumberLiteral(s.Parameters) {
				issues = append(issues, core.ValidationIssue{
					StepID:  s.ID,
					Message: "literal positive number written into a summary sheet; use a formula instead: " + sheet,
				})
			}
		}
	}
	return issues
}

func hasPositiveNumberLiteral(params core.Params) bool {
	values, ok := params["values"]
	if !ok {
		return false
	}
	return anyPositiveNumber(values)
}

func anyPositiveNumber(v any) bool {
	switch x := v.(type) {
	case float64:
		return x > 0
	case int:
		return x > 0
	case []any:
		for _, e := range x {
			if anyPositiveNumber(e) {
				return true
			}
		}
	}
	return false
}

// checkBatchBehaviorMissing flags a single-cell formula set below row 1
// with no subsequent fill/batch covering the same column, when the sheet
// has more than two data rows — likely a forgotten fill-down.
func checkBatchBehaviorMissing(plan *core.ExecutionPlan, wb *core.WorkbookContext) []core.ValidationIssue {
	var issues []core.ValidationIssue
	for i, s := range plan.Steps {
		if s.Action != "set_formula" {
			continue
		}
		cell := s.Parameters.String("cell", s.Parameters.String("range", ""))
		col, row, ok := rangeutil.SplitCell(cell)
		if !ok || row <= 1 {
			continue
		}
		sheet := s.Parameters.String("sheet", s.Parameters.String("target_sheet", ""))
		if wb.RowCount(sheet) <= 2 {
			continue
		}
		if hasLaterBatchFor(plan.Steps[i+1:], col) {
			continue
		}
		issues = append(issues, core.ValidationIssue{
			StepID:  s.ID,
			Message: "single-cell formula at " + cell + " has no subsequent fill/batch covering column " + col,
		})
	}
	return issues
}

func hasLaterBatchFor(steps []core.Step, col string) bool {
	for _, s := range steps {
		if s.Action != "fill_formula" && s.Action != "batch_formula" {
			continue
		}
		rng := s.Parameters.String("range", "")
		if bounds, ok := rangeutil.ParseRange(rng); ok {
			idx := rangeutil.ColumnToIndex(col)
			if bounds.StartCol <= idx && idx <= bounds.EndCol {
				return true
			}
		}
	}
	return false
}

const highRiskCellThreshold = 500
const wholeSheetRowThreshold = 1000

// checkHighRiskOperation blocks sheet deletion, unscoped/whole-sheet
// clears, and any write touching more than 500 cells.
func checkHighRiskOperation(plan *core.ExecutionPlan, _ *core.WorkbookContext) []core.ValidationIssue {
	var issues []core.ValidationIssue
	for _, s := range plan.Steps {
		switch {
		case s.Action == "delete_sheet":
			issues = append(issues, core.ValidationIssue{StepID: s.ID, Message: "delete_sheet is a high-risk operation"})
		case s.Action == "clear":
			rng := s.Parameters.String("range", "")
			if rng == "" || isWholeSheetRange(rng) {
				issues = append(issues, core.ValidationIssue{StepID: s.ID, Message: "clear without a bounded range is a high-risk operation"})
			}
		case s.IsWriteOperation:
			rng := s.Parameters.String("range", "")
			if bounds, ok := rangeutil.ParseRange(rng); ok && bounds.CellCount() > highRiskCellThreshold {
				issues = append(issues, core.ValidationIssue{StepID: s.ID, Message: "write exceeds 500 cells"})
			}
		}
	}
	return issues
}

func isWholeSheetRange(rng string) bool {
	if rng == "A:Z" || rng == "1:1000" {
		return true
	}
	if bounds, ok := rangeutil.ParseRange(rng); ok && bounds.EndRow >= wholeSheetRowThreshold {
		return true
	}
	return false
}
