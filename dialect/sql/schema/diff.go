package schema

import (
	"slices"
	"strings"
)

// Diff holds the column changes needed to bring a live table to its
// declared shape. It is computed on every synchronization.
type Diff struct {
	Table string
	// Adds holds the declared columns missing from the live table, in
	// declaration order.
	Adds []string
	// Drops holds the live columns that are no longer declared, in live
	// order. It is empty when drops are disabled.
	Drops []string
}

// Empty reports if the diff carries no change.
func (d Diff) Empty() bool {
	return len(d.Adds) == 0 && len(d.Drops) == 0
}

// String returns a short description of the diff.
func (d Diff) String() string {
	if d.Empty() {
		return d.Table + ": up to date"
	}
	var sb strings.Builder
	sb.WriteString(d.Table)
	sb.WriteString(":")
	if len(d.Adds) > 0 {
		sb.WriteString(" add(")
		sb.WriteString(strings.Join(d.Adds, ", "))
		sb.WriteString(")")
	}
	if len(d.Drops) > 0 {
		sb.WriteString(" drop(")
		sb.WriteString(strings.Join(d.Drops, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

// TableDiff computes the diff between the declared table and the names of
// its live columns. Column names are compared exactly. Drops are computed
// only if drop is true.
func TableDiff(t *Table, live []string, drop bool) Diff {
	d := Diff{Table: t.Name}
	for _, c := range t.Columns {
		if !slices.Contains(live, c.Name) {
			d.Adds = append(d.Adds, c.Name)
		}
	}
	if drop {
		for _, name := range live {
			if !t.HasColumn(name) {
				d.Drops = append(d.Drops, name)
			}
		}
	}
	return d
}
