package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Range is a parsed A1 range: the URL column, the link column right after
// it and the first data row.
type Range struct {
	Sheet    string
	URLCol   string
	LinkCol  string
	StartRow int
}

var cellRef = regexp.MustCompile(`^([A-Za-z]{1,3})([0-9]*)$`)

// ParseRange accepts "Sheet1!B2:C", "'My Sheet'!B2:B", "Sheet1!B2" or a
// bare "B2:C". Only the first cell matters; the link column is always the
// column after the URL column.
func ParseRange(a1 string) (Range, error) {
	a1 = strings.TrimSpace(a1)
	if a1 == "" {
		return Range{}, fmt.Errorf("empty range")
	}

	var r Range
	cells := a1
	if i := strings.LastIndex(a1, "!"); i >= 0 {
		r.Sheet = unquoteSheet(a1[:i])
		cells = a1[i+1:]
		if r.Sheet == "" {
			return Range{}, fmt.Errorf("range %q: empty sheet name", a1)
		}
	}

	first, _, _ := strings.Cut(cells, ":")
	m := cellRef.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return Range{}, fmt.Errorf("range %q: %q is not a cell reference", a1, first)
	}

	r.URLCol = strings.ToUpper(m[1])
	r.LinkCol = nextColumn(r.URLCol)
	r.StartRow = 1
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			return Range{}, fmt.Errorf("range %q: invalid row %q", a1, m[2])
		}
		r.StartRow = n
	}
	return r, nil
}

// ReadRange is the two-column region List reads, open-ended downwards.
func (r Range) ReadRange() string {
	return r.prefix() + fmt.Sprintf("%s%d:%s", r.URLCol, r.StartRow, r.LinkCol)
}

// LinkCell is the link cell of row.
func (r Range) LinkCell(row int) string {
	return r.prefix() + fmt.Sprintf("%s%d", r.LinkCol, row)
}

func (r Range) prefix() string {
	if r.Sheet == "" {
		return ""
	}
	return quoteSheet(r.Sheet) + "!"
}

var plainSheetName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func quoteSheet(name string) string {
	if plainSheetName.MatchString(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func unquoteSheet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

// nextColumn returns the column letter after col: B -> C, Z -> AA.
func nextColumn(col string) string {
	n := 0
	for _, c := range col {
		n = n*26 + int(c-'A'+1)
	}
	n++

	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('A' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}
