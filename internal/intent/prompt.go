package intent

import (
	"fmt"
	"strings"
)

// maxTurnChars truncates each recalled conversational turn before it is
// folded into the user prompt, keeping prompt size bounded regardless of
// how verbose the session history is.
const maxTurnChars = 100

// maxRecentTurns is the number of most recent turns carried into context.
const maxRecentTurns = 4

var closedIntentKinds = []string{
	"create_table", "write_data", "update_data", "delete_data", "format_range",
	"create_formula", "batch_formula", "calculate_summary", "analyze_data",
	"create_chart", "sort_data", "filter_data", "remove_duplicates", "clean_data",
	"query_data", "lookup_value", "create_sheet", "switch_sheet", "clarify",
	"respond_only",
}

// Selection describes the user's current cell selection, if any.
type Selection struct {
	Address string
	Rows    int
	Cols    int
}

// Context carries everything the prompt needs beyond the raw message: the
// spreadsheet host's current state and a short conversational history.
type Context struct {
	Message         string
	Selection       *Selection
	ActiveSheet     string
	WorkbookSheets  []string
	RecentTurns     []string
}

// buildSystemPrompt never mentions a tool name; it only enumerates the
// closed set of intent kinds and the required reply shape.
func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You classify a spreadsheet user's message into exactly one of a fixed set of intents and extract its parameters. ")
	b.WriteString("You never decide which underlying operation implements the intent; you only describe what the user wants.\n\n")
	b.WriteString("Allowed intent values:\n")
	for _, k := range closedIntentKinds {
		fmt.Fprintf(&b, "- %s\n", k)
	}
	b.WriteString("\nReply with a single JSON object matching this shape:\n")
	if schema, err := ReplySchema(); err == nil {
		b.Write(schema)
	} else {
		b.WriteString(`{"intent":"...","confidence":0.0,"needs_clarification":false,"clarification_question":"","clarification_options":[],"spec":{},"reasoning":"","compressed_intent":""}`)
	}
	b.WriteString("\n\nIf you are unsure, set needs_clarification to true and ask a specific question rather than guessing a destructive intent.")
	return b.String()
}

// buildUserPrompt folds the message, host context, and a short recent
// history into the user turn.
func buildUserPrompt(ctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Message: %s\n", ctx.Message)
	if ctx.Selection != nil {
		fmt.Fprintf(&b, "Current selection: %s (%d rows x %d cols)\n", ctx.Selection.Address, ctx.Selection.Rows, ctx.Selection.Cols)
	}
	if ctx.ActiveSheet != "" {
		fmt.Fprintf(&b, "Active sheet: %s\n", ctx.ActiveSheet)
	}
	if len(ctx.WorkbookSheets) > 0 {
		fmt.Fprintf(&b, "Workbook sheets: %s\n", strings.Join(ctx.WorkbookSheets, ", "))
	}
	turns := ctx.RecentTurns
	if len(turns) > maxRecentTurns {
		turns = turns[len(turns)-maxRecentTurns:]
	}
	if len(turns) > 0 {
		b.WriteString("Recent turns:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "- %s\n", truncate(t, maxTurnChars))
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
