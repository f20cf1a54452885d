// ABOUTME: Storage-independent row predicates and ordering for item queries
// ABOUTME: Translates filters to parameterized SQL and evaluates them in memory

package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/2389/store-inventory/internal/contract"
)

// ErrInvalidFilter is returned for filters or orderings naming unknown
// columns or operators.
var ErrInvalidFilter = errors.New("invalid filter")

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "!="
	OpLt   Op = "<"
	OpLe   Op = "<="
	OpGt   Op = ">"
	OpGe   Op = ">="
	OpLike Op = "LIKE"
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLike:
		return true
	}
	return false
}

// Condition compares one column against a value.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

// Where builds a Condition.
func Where(column string, op Op, value any) Condition {
	return Condition{Column: column, Op: op, Value: value}
}

// Filter is a conjunction of conditions. An empty filter matches every row.
type Filter []Condition

// ByID returns the filter selecting a single item.
func ByID(id int64) Filter {
	return Filter{Where(contract.ColumnID, OpEq, id)}
}

// Validate checks that every condition names a known column and operator.
func (f Filter) Validate() error {
	for _, c := range f {
		if !contract.IsColumn(c.Column) {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidFilter, c.Column)
		}
		if !c.Op.valid() {
			return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, c.Op)
		}
		if c.Value == nil {
			return fmt.Errorf("%w: nil value for %q", ErrInvalidFilter, c.Column)
		}
	}
	return nil
}

// whereClause renders the filter as " WHERE ..." with bound arguments, or
// an empty string when the filter is empty.
func (f Filter) whereClause() (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	if err := f.Validate(); err != nil {
		return "", nil, err
	}

	parts := make([]string, len(f))
	args := make([]any, len(f))
	for i, c := range f {
		parts[i] = quoteIdent(c.Column) + " " + string(c.Op) + " ?"
		args[i] = c.Value
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// Match evaluates the filter against a row.
func (f Filter) Match(row Row) bool {
	for _, c := range f {
		if !c.match(row[c.Column]) {
			return false
		}
	}
	return true
}

func (c Condition) match(v any) bool {
	if c.Op == OpLike {
		return likeMatch(fmt.Sprint(c.Value), fmt.Sprint(v))
	}

	var cmp int
	if a, ok := toInt64(v); ok {
		b, ok := toInt64(c.Value)
		if !ok {
			return false
		}
		cmp = compareInt(a, b)
	} else {
		cmp = strings.Compare(fmt.Sprint(v), fmt.Sprint(c.Value))
	}

	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

// likeMatch implements SQLite LIKE: % and _ wildcards, ASCII case folding.
func likeMatch(pattern, s string) bool {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Order sorts results by a column.
type Order struct {
	Column string
	Desc   bool
}

func orderClause(orders []Order) (string, error) {
	if len(orders) == 0 {
		return " ORDER BY " + quoteIdent(contract.ColumnID) + " ASC", nil
	}
	parts := make([]string, len(orders))
	for i, o := range orders {
		if !contract.IsColumn(o.Column) {
			return "", fmt.Errorf("%w: unknown order column %q", ErrInvalidFilter, o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts[i] = quoteIdent(o.Column) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// quoteIdent quotes a column name; "desc" is an SQL keyword.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
