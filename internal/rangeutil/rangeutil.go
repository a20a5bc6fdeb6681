// Package rangeutil implements the base-26 spreadsheet column arithmetic
// and range-string parsing shared by the Spec Compiler and the Plan
// Validator, so both agree on exactly one definition of "which columns
// does this range touch."
package rangeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var cellRe = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)

// SplitCell breaks "B12" into ("B", 12, true); ok is false for anything
// that isn't a bare column-letters+row-digits cell reference.
func SplitCell(cell string) (col string, row int, ok bool) {
	m := cellRe.FindStringSubmatch(cell)
	if m == nil {
		return "", 0, false
	}
	row, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return strings.ToUpper(m[1]), row, true
}

// ColumnToIndex converts base-26 column letters (A=1, Z=26, AA=27, ...)
// to their 1-based numeric index. There is no zero digit.
func ColumnToIndex(col string) int {
	idx := 0
	for _, r := range strings.ToUpper(col) {
		idx = idx*26 + int(r-'A'+1)
	}
	return idx
}

// IndexToColumn is the inverse of ColumnToIndex.
func IndexToColumn(idx int) string {
	var b strings.Builder
	for idx > 0 {
		idx--
		b.WriteByte(byte('A' + idx%26))
		idx /= 26
	}
	letters := []byte(b.String())
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// HeaderRange computes "<col><row>:<col+n-1><row>" for n header columns
// starting at startCell.
func HeaderRange(startCell string, n int) (string, error) {
	col, row, ok := SplitCell(startCell)
	if !ok {
		return "", fmt.Errorf("rangeutil: invalid start cell %q", startCell)
	}
	if n <= 0 {
		n = 1
	}
	endCol := IndexToColumn(ColumnToIndex(col) + n - 1)
	return fmt.Sprintf("%s%d:%s%d", col, row, endCol, row), nil
}

// Bounds is a parsed "A1:C10"-style range, or a degenerate single cell
// where start == end.
type Bounds struct {
	StartCol, EndCol int
	StartRow, EndRow int
}

var rangeRe = regexp.MustCompile(`^([A-Za-z]+)(\d+):([A-Za-z]+)(\d+)$`)

// ParseRange parses either a single cell or an "A1:C10" range into its
// column/row bounds.
func ParseRange(s string) (Bounds, bool) {
	if m := rangeRe.FindStringSubmatch(s); m != nil {
		startRow, err1 := strconv.Atoi(m[2])
		endRow, err2 := strconv.Atoi(m[4])
		if err1 != nil || err2 != nil {
			return Bounds{}, false
		}
		return Bounds{
			StartCol: ColumnToIndex(m[1]),
			EndCol:   ColumnToIndex(m[3]),
			StartRow: startRow,
			EndRow:   endRow,
		}, true
	}
	if col, row, ok := SplitCell(s); ok {
		idx := ColumnToIndex(col)
		return Bounds{StartCol: idx, EndCol: idx, StartRow: row, EndRow: row}, true
	}
	return Bounds{}, false
}

// CellCount returns the number of cells a Bounds spans.
func (b Bounds) CellCount() int {
	cols := b.EndCol - b.StartCol + 1
	rows := b.EndRow - b.StartRow + 1
	if cols <= 0 || rows <= 0 {
		return 0
	}
	return cols * rows
}

// OverlapsColumnRange reports whether b touches any column in
// [fromCol, toCol] (inclusive, 1-based).
func (b Bounds) OverlapsColumnRange(fromCol, toCol int) bool {
	return b.StartCol <= toCol && b.EndCol >= fromCol
}
