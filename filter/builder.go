// Package filter builds parameterized WHERE and HAVING clauses from typed
// predicates. Column names and expressions come from code; only values are
// bound as ? placeholders.
package filter

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the bound format for date predicates.
const DateLayout = "2006-01-02"

type predicate struct {
	sql  string
	args []any
}

// Builder accumulates predicates joined with AND.
type Builder struct {
	where  []predicate
	having []predicate
}

func New() *Builder {
	return &Builder{}
}

func (b *Builder) add(sql string, args ...any) *Builder {
	b.where = append(b.where, predicate{sql: sql, args: args})
	return b
}

// Eq adds col = v.
func (b *Builder) Eq(col string, v any) *Builder {
	return b.add(col+" = ?", v)
}

// Like adds a substring match on col. Empty text adds nothing.
func (b *Builder) Like(col, text string) *Builder {
	if text == "" {
		return b
	}
	return b.add(col+" LIKE ?", "%"+text+"%")
}

// AnyLike adds a substring match that succeeds when any of cols matches.
func (b *Builder) AnyLike(text string, cols ...string) *Builder {
	if text == "" || len(cols) == 0 {
		return b
	}
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		parts[i] = col + " LIKE ?"
		args[i] = "%" + text + "%"
	}
	return b.add("("+strings.Join(parts, " OR ")+")", args...)
}

func (b *Builder) Gte(col string, v any) *Builder {
	return b.add(col+" >= ?", v)
}

func (b *Builder) Lte(col string, v any) *Builder {
	return b.add(col+" <= ?", v)
}

func (b *Builder) Between(col string, lo, hi any) *Builder {
	return b.add(col+" BETWEEN ? AND ?", lo, hi)
}

// InSub adds col IN (sub), binding args inside the subquery.
func (b *Builder) InSub(col, sub string, args ...any) *Builder {
	return b.add(col+" IN ("+sub+")", args...)
}

// IDEq adds col = id when id is set.
func (b *Builder) IDEq(col string, id *int64) *Builder {
	if id == nil {
		return b
	}
	return b.Eq(col, *id)
}

// IntRange bounds col by r; both bounds render as BETWEEN.
func (b *Builder) IntRange(col string, r IntRange) *Builder {
	switch {
	case r.Min != nil && r.Max != nil:
		return b.Between(col, *r.Min, *r.Max)
	case r.Min != nil:
		return b.Gte(col, *r.Min)
	case r.Max != nil:
		return b.Lte(col, *r.Max)
	}
	return b
}

// DecimalRange bounds col by r. Both sides are rounded to cents and bind as
// float64, so SQLite REAL arithmetic cannot push an exact boundary out.
func (b *Builder) DecimalRange(col string, r DecimalRange) *Builder {
	return b.centsRange(&b.where, col, r)
}

// DateRange bounds col by r. With includeNull rows whose col is NULL also match.
func (b *Builder) DateRange(col string, r DateRange, includeNull bool) *Builder {
	var sql string
	var args []any
	switch {
	case r.From != nil && r.To != nil:
		sql = col + " BETWEEN ? AND ?"
		args = []any{r.From.Format(DateLayout), r.To.Format(DateLayout)}
	case r.From != nil:
		sql = col + " >= ?"
		args = []any{r.From.Format(DateLayout)}
	case r.To != nil:
		sql = col + " <= ?"
		args = []any{r.To.Format(DateLayout)}
	default:
		return b
	}
	if includeNull {
		sql = "(" + sql + " OR " + col + " IS NULL)"
	}
	return b.add(sql, args...)
}

// HavingRange bounds an aggregate expression by r, rounded like DecimalRange.
func (b *Builder) HavingRange(expr string, r DecimalRange) *Builder {
	return b.centsRange(&b.having, expr, r)
}

func (b *Builder) centsRange(dst *[]predicate, expr string, r DecimalRange) *Builder {
	rounded := "ROUND(" + expr + ", 2)"
	if r.Min != nil {
		*dst = append(*dst, predicate{sql: rounded + " >= ?", args: []any{r.Min.Round(2).InexactFloat64()}})
	}
	if r.Max != nil {
		*dst = append(*dst, predicate{sql: rounded + " <= ?", args: []any{r.Max.Round(2).InexactFloat64()}})
	}
	return b
}

func (b *Builder) Empty() bool {
	return len(b.where) == 0 && len(b.having) == 0
}

func join(preds []predicate) (string, []any) {
	parts := make([]string, len(preds))
	var args []any
	for i, p := range preds {
		parts[i] = p.sql
		args = append(args, p.args...)
	}
	return strings.Join(parts, " AND "), args
}

// Where renders " WHERE ..." or an empty string.
func (b *Builder) Where() (string, []any) {
	if len(b.where) == 0 {
		return "", nil
	}
	sql, args := join(b.where)
	return " WHERE " + sql, args
}

// And renders " AND ..." for appending to a query that already has a WHERE.
func (b *Builder) And() (string, []any) {
	if len(b.where) == 0 {
		return "", nil
	}
	sql, args := join(b.where)
	return " AND " + sql, args
}

// Having renders " HAVING ..." or an empty string.
func (b *Builder) Having() (string, []any) {
	if len(b.having) == 0 {
		return "", nil
	}
	sql, args := join(b.having)
	return " HAVING " + sql, args
}

// Query assembles base, WHERE, groupBy, HAVING and orderBy with arguments
// in placeholder order. groupBy and orderBy include their keywords.
func (b *Builder) Query(base, groupBy, orderBy string) (string, []any) {
	where, args := b.Where()
	having, hargs := b.Having()
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(where)
	if groupBy != "" {
		sb.WriteString(" ")
		sb.WriteString(groupBy)
	}
	sb.WriteString(having)
	if orderBy != "" {
		sb.WriteString(" ")
		sb.WriteString(orderBy)
	}
	return sb.String(), append(args, hargs...)
}

type IntRange struct {
	Min *int
	Max *int
}

type DecimalRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r IntRange) Set() bool     { return r.Min != nil || r.Max != nil }
func (r DecimalRange) Set() bool { return r.Min != nil || r.Max != nil }
func (r DateRange) Set() bool    { return r.From != nil || r.To != nil }
