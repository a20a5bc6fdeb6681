// Package planner implements the Spec Compiler (C4): a pure function from
// a core.IntentSpec to a typed core.ExecutionPlan. It performs no I/O and
// calls no LLM; every recipe below is a fixed linear or small-DAG
// template keyed by intent kind.
package planner

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/agentcore/orchestrator/internal/observability"
	"github.com/agentcore/orchestrator/internal/rangeutil"
	"github.com/agentcore/orchestrator/pkg/core"
)

// Compiler compiles an IntentSpec into an ExecutionPlan.
type Compiler struct {
	now     func() time.Time
	counter atomic.Int64
	log     *slog.Logger
}

// New constructs a Compiler. logger may be nil, in which case
// compile failures are dropped instead of logged.
func New(logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = observability.NewDiscardLogger()
	}
	return &Compiler{now: time.Now, log: logger}
}

// builder accumulates steps for one Compile call, assigning unique,
// monotonically ordered step ids as it goes.
type builder struct {
	c        *Compiler
	steps    []core.Step
	millis   int64
}

func (c *Compiler) newBuilder() *builder {
	return &builder{c: c, millis: c.now().UnixMilli()}
}

func (b *builder) nextID() string {
	n := b.c.counter.Add(1)
	return fmt.Sprintf("step_%d_%d", b.millis, n)
}

// add appends a step, wiring its order and dependencies, and returns the
// assigned id so subsequent steps can depend on it.
func (b *builder) add(phase core.StepPhase, action string, params core.Params, isWrite bool, dependsOn ...string) string {
	id := b.nextID()
	b.steps = append(b.steps, core.Step{
		ID:               id,
		Order:            len(b.steps),
		Phase:            phase,
		Action:           action,
		Parameters:       params,
		DependsOn:        dependsOn,
		IsWriteOperation: isWrite,
		Status:           core.StepPending,
	})
	return id
}

func (b *builder) respond(dependsOn ...string) {
	b.add(core.StepResponse, "respond_to_user", core.Params{}, false, dependsOn...)
}

// Compile is the pure IntentSpec -> ExecutionPlan function. It never
// throws across the API boundary: every failure mode is a typed error
// value returned alongside a zero ExecutionPlan.
func (c *Compiler) Compile(spec core.IntentSpec) (core.ExecutionPlan, error) {
	if spec.NeedsClarification {
		return c.compileClarification(spec), nil
	}

	b := c.newBuilder()
	recipe, ok := recipes[spec.Intent]
	if !ok {
		c.log.Warn("unsupported intent", "intent", string(spec.Intent))
		return core.ExecutionPlan{}, &core.UnsupportedIntent{Intent: spec.Intent}
	}
	if err := recipe(b, spec); err != nil {
		c.log.Warn("compile failed", "intent", string(spec.Intent), "error", err.Error())
		return core.ExecutionPlan{}, &core.CompileFailure{Reason: err.Error()}
	}

	return core.ExecutionPlan{
		ID:              fmt.Sprintf("plan_%d", b.millis),
		TaskDescription: spec.Reasoning,
		Steps:           b.steps,
		Phase:           core.PlanPlanning,
		RoutingHint:     routingHintFor(spec.CompressedIntent),
	}, nil
}

// compileClarification is the short-circuit described in §4.4: a plan
// with a single clarify_request step, no mutation, terminal.
func (c *Compiler) compileClarification(spec core.IntentSpec) core.ExecutionPlan {
	b := c.newBuilder()
	b.add(core.StepResponse, "clarify_request", core.Params{
		"question": spec.ClarificationQuestion,
		"options":  spec.ClarificationOptions,
	}, false)
	return core.ExecutionPlan{
		ID:              fmt.Sprintf("plan_%d", b.millis),
		TaskDescription: spec.Reasoning,
		Steps:           b.steps,
		Phase:           core.PlanPlanning,
	}
}

type recipeFunc func(b *builder, spec core.IntentSpec) error

var recipes = map[core.IntentKind]recipeFunc{
	core.IntentCreateTable:       compileCreateTable,
	core.IntentWriteData:         compileWriteData,
	core.IntentUpdateData:        compileWriteData,
	core.IntentDeleteData:        compileWriteData,
	core.IntentFormatRange:       compileFormatRange,
	core.IntentCreateFormula:     compileFormula,
	core.IntentBatchFormula:      compileFormula,
	core.IntentCalculateSummary:  compileFormula,
	core.IntentCreateChart:       compileCreateChart,
	core.IntentCreateSheet:       compileSingleOp,
	core.IntentSwitchSheet:       compileSingleOp,
	core.IntentSortData:          compileReadThenOp,
	core.IntentFilterData:        compileReadThenOp,
	core.IntentRemoveDuplicates:  compileReadThenOp,
	core.IntentCleanData:         compileReadThenOp,
	core.IntentQueryData:         compileReadThenRespond,
	core.IntentAnalyzeData:       compileReadThenRespond,
	core.IntentLookupValue:       compileReadThenRespond,
	core.IntentRespondOnly:       compileRespondOnly,
}

func compileCreateTable(b *builder, spec core.IntentSpec) error {
	table := spec.CreateTableSpecFrom()
	readID := b.add(core.StepSensing, "read_selection", core.Params{}, false)

	hRange, err := rangeutil.HeaderRange(table.StartCell, len(table.Columns))
	if err != nil {
		return err
	}
	headers := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		headers[i] = col.Name
	}
	writeID := b.add(core.StepExecution, "write_range", core.Params{
		"range":  hRange,
		"values": headers,
	}, true, readID)

	formatID := b.add(core.StepExecution, "format_range", core.Params{
		"range": hRange,
		"style": "header",
	}, true, writeID)

	b.add(core.StepExecution, "autofit_range", core.Params{"range": hRange}, true, formatID)
	b.respond()
	return nil
}

func compileWriteData(b *builder, spec core.IntentSpec) error {
	writeID := b.add(core.StepExecution, "write_range", spec.Spec, true)
	b.respond(writeID)
	return nil
}

func compileFormatRange(b *builder, spec core.IntentSpec) error {
	rng := spec.Spec.String("range", "")
	if rng == "" {
		rng = spec.Spec.String("current_selection", "A1")
	}
	params := spec.Spec.Clone()
	if params == nil {
		params = core.Params{}
	}
	params["range"] = rng
	id := b.add(core.StepExecution, "format_range", params, true)
	b.respond(id)
	return nil
}

func compileFormula(b *builder, spec core.IntentSpec) error {
	readID := b.add(core.StepSensing, "read_range", core.Params{
		"range": spec.Spec.String("source_range", spec.Spec.String("range", "")),
	}, false)

	params := spec.Spec.Clone()
	if params == nil {
		params = core.Params{}
	}
	if _, ok := params["custom_formula"]; !ok {
		params["custom_formula"] = synthesizeFormula(spec.Spec.String("formula_type", ""))
	}
	formulaID := b.add(core.StepExecution, "set_formula", params, true, readID)
	b.respond(formulaID)
	return nil
}

// synthesizeFormula builds a default formula body from an abstract
// formula_type when the model didn't supply a custom_formula itself.
func synthesizeFormula(formulaType string) string {
	switch formulaType {
	case "sum":
		return "=SUM({{range}})"
	case "average":
		return "=AVERAGE({{range}})"
	case "count":
		return "=COUNT({{range}})"
	default:
		return "=SUM({{range}})"
	}
}

func compileCreateChart(b *builder, spec core.IntentSpec) error {
	id := b.add(core.StepExecution, "create_chart", spec.Spec, true)
	b.respond(id)
	return nil
}

func compileSingleOp(b *builder, spec core.IntentSpec) error {
	action := map[core.IntentKind]string{
		core.IntentCreateSheet: "create_sheet",
		core.IntentSwitchSheet: "switch_sheet",
	}[spec.Intent]
	id := b.add(core.StepExecution, action, spec.Spec, spec.Intent == core.IntentCreateSheet)
	b.respond(id)
	return nil
}

func compileReadThenOp(b *builder, spec core.IntentSpec) error {
	action, isWrite := map[core.IntentKind]string{
		core.IntentSortData:         "sort_range",
		core.IntentFilterData:       "filter_range",
		core.IntentRemoveDuplicates: "dedupe_range",
		core.IntentCleanData:        "clean_range",
	}[spec.Intent], spec.Intent != core.IntentFilterData

	readID := b.add(core.StepSensing, "read_range", core.Params{
		"range": spec.Spec.String("range", ""),
	}, false)
	opID := b.add(core.StepExecution, action, spec.Spec, isWrite, readID)
	b.respond(opID)
	return nil
}

func compileReadThenRespond(b *builder, spec core.IntentSpec) error {
	var readID string
	if spec.Spec.String("target", "") == "selection" {
		readID = b.add(core.StepSensing, "read_selection", core.Params{}, false)
	} else {
		rng := spec.Spec.String("range", spec.Spec.String("selection", ""))
		readID = b.add(core.StepSensing, "read_range", core.Params{"range": rng}, false)
	}
	b.add(core.StepResponse, "respond_to_user", core.Params{
		"template": "{{ANALYZE_AND_REPLY}}",
	}, false, readID)
	return nil
}

func compileRespondOnly(b *builder, spec core.IntentSpec) error {
	b.add(core.StepResponse, "respond_to_user", spec.Spec, false)
	return nil
}
