package core

// IntentKind is the closed set of intent variants the parser may produce.
type IntentKind string

const (
	IntentCreateTable       IntentKind = "create_table"
	IntentWriteData         IntentKind = "write_data"
	IntentUpdateData        IntentKind = "update_data"
	IntentDeleteData        IntentKind = "delete_data"
	IntentFormatRange       IntentKind = "format_range"
	IntentCreateFormula     IntentKind = "create_formula"
	IntentBatchFormula      IntentKind = "batch_formula"
	IntentCalculateSummary  IntentKind = "calculate_summary"
	IntentAnalyzeData       IntentKind = "analyze_data"
	IntentCreateChart       IntentKind = "create_chart"
	IntentSortData          IntentKind = "sort_data"
	IntentFilterData        IntentKind = "filter_data"
	IntentRemoveDuplicates  IntentKind = "remove_duplicates"
	IntentCleanData         IntentKind = "clean_data"
	IntentQueryData         IntentKind = "query_data"
	IntentLookupValue       IntentKind = "lookup_value"
	IntentCreateSheet       IntentKind = "create_sheet"
	IntentSwitchSheet       IntentKind = "switch_sheet"
	IntentClarify           IntentKind = "clarify"
	IntentRespondOnly       IntentKind = "respond_only"
)

// CompressedIntent is a short qualitative routing hint, open-ended by
// design (§9 open question 3): unknown tags are preserved verbatim and
// simply ignored by the routing-hint lookup in the compiler.
type CompressedIntent string

const (
	CompressedFailure        CompressedIntent = "failure"
	CompressedAutomation     CompressedIntent = "automation"
	CompressedStructure      CompressedIntent = "structure"
	CompressedMaintainability CompressedIntent = "maintainability"
)

// ColumnType enumerates the column types CreateTableSpec accepts.
type ColumnType string

const (
	ColumnText       ColumnType = "text"
	ColumnNumber     ColumnType = "number"
	ColumnDate       ColumnType = "date"
	ColumnCurrency   ColumnType = "currency"
	ColumnPercentage ColumnType = "percentage"
	ColumnFormula    ColumnType = "formula"
)

// Column describes one column in a CreateTableSpec.
type Column struct {
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	Formula string     `json:"formula,omitempty"`
}

// CreateTableSpec is the variant-specific payload for IntentCreateTable.
type CreateTableSpec struct {
	Columns      []Column `json:"columns"`
	StartCell    string   `json:"start_cell"`
	TargetSheet  string   `json:"target_sheet,omitempty"`
	Options      Params   `json:"options,omitempty"`
}

// IntentSpec is the typed, tagged-variant output of the Intent Parser.
type IntentSpec struct {
	Intent                 IntentKind       `json:"intent"`
	Confidence             float64          `json:"confidence"`
	NeedsClarification     bool             `json:"needs_clarification"`
	ClarificationQuestion  string           `json:"clarification_question,omitempty"`
	ClarificationOptions   []string         `json:"clarification_options,omitempty"`
	Spec                   Params           `json:"spec,omitempty"`
	Reasoning              string           `json:"reasoning,omitempty"`
	CompressedIntent       CompressedIntent `json:"compressed_intent,omitempty"`

	// SemanticAtoms and the routing tag are computed independently of the
	// LLM reply, straight from the action/entity synonym tables, so
	// downstream layers can route even when the LLM answered poorly.
	SemanticAtoms []string `json:"semantic_atoms,omitempty"`
}

// CreateTableSpecFrom decodes the generic Spec payload into a typed
// CreateTableSpec for the compiler's create_table recipe.
func (s *IntentSpec) CreateTableSpecFrom() CreateTableSpec {
	out := CreateTableSpec{StartCell: "A1"}
	if s.Spec == nil {
		return out
	}
	if v, ok := s.Spec["start_cell"].(string); ok && v != "" {
		out.StartCell = v
	}
	if v, ok := s.Spec["target_sheet"].(string); ok {
		out.TargetSheet = v
	}
	if opts, ok := s.Spec["options"].(Params); ok {
		out.Options = opts
	}
	if cols, ok := s.Spec["columns"].([]any); ok {
		for _, c := range cols {
			m, ok := c.(map[string]any)
			if !ok {
				continue
			}
			col := Column{}
			if n, ok := m["name"].(string); ok {
				col.Name = n
			}
			if t, ok := m["type"].(string); ok {
				col.Type = ColumnType(t)
			}
			if f, ok := m["formula"].(string); ok {
				col.Formula = f
			}
			out.Columns = append(out.Columns, col)
		}
	}
	return out
}

// IntentAtom is the compact {action, entity} tuple used by Tool Discovery
// and by the orchestrator's observability call into it.
type IntentAtom struct {
	Action    string
	Entity    string
	Modifiers []string
	Domain    string
	RawText   string
}

// intentAtomTable maps every closed intent kind to its fixed {action,
// entity} pair, per §4.10 step 2 ("fixed mapping kind→{action, entity}").
var intentAtomTable = map[IntentKind]IntentAtom{
	IntentCreateTable:      {Action: "create", Entity: "table"},
	IntentWriteData:        {Action: "write", Entity: "range"},
	IntentUpdateData:       {Action: "update", Entity: "value"},
	IntentDeleteData:       {Action: "delete", Entity: "range"},
	IntentFormatRange:      {Action: "format", Entity: "range"},
	IntentCreateFormula:    {Action: "calculate", Entity: "formula"},
	IntentBatchFormula:     {Action: "calculate", Entity: "formula"},
	IntentCalculateSummary: {Action: "calculate", Entity: "value"},
	IntentAnalyzeData:      {Action: "analyze", Entity: "table"},
	IntentCreateChart:      {Action: "chart", Entity: "chart"},
	IntentSortData:         {Action: "sort", Entity: "range"},
	IntentFilterData:       {Action: "filter", Entity: "range"},
	IntentRemoveDuplicates: {Action: "filter", Entity: "row"},
	IntentCleanData:        {Action: "format", Entity: "range"},
	IntentQueryData:        {Action: "read", Entity: "range"},
	IntentLookupValue:      {Action: "read", Entity: "value"},
	IntentCreateSheet:      {Action: "create", Entity: "sheet"},
	IntentSwitchSheet:      {Action: "update", Entity: "sheet"},
}

// AtomFor returns the fixed {action, entity} atom for an intent kind.
// clarify and respond_only have no tool-facing atom; ok is false.
func AtomFor(kind IntentKind, rawText string) (IntentAtom, bool) {
	atom, ok := intentAtomTable[kind]
	if !ok {
		return IntentAtom{}, false
	}
	atom.RawText = rawText
	return atom, true
}
