package sql

import (
	"errors"
	"fmt"
	"strings"
)

// Fragment is an immutable piece of SQL text with its bound arguments.
// The number of placeholders in the text always equals the number of
// arguments, in left-to-right order.
type Fragment struct {
	text string
	args []Value
}

// NewFragment returns a fragment of the given text and arguments.
// The caller is responsible for the placeholder count; use Validate
// to check it.
func NewFragment(text string, args ...Value) Fragment {
	return Fragment{text: text, args: args}
}

// Text returns the SQL text of the fragment.
func (f Fragment) Text() string { return f.text }

// Args returns a copy of the bound arguments.
func (f Fragment) Args() []Value { return append([]Value(nil), f.args...) }

// Empty reports if the fragment has no text.
func (f Fragment) Empty() bool { return f.text == "" }

// String implements the fmt.Stringer interface.
func (f Fragment) String() string { return f.text }

// Append returns a fragment whose text is f.text + sep + o.text and
// whose arguments are f.args followed by o.args.
func (f Fragment) Append(sep string, o Fragment) Fragment {
	args := make([]Value, 0, len(f.args)+len(o.args))
	args = append(args, f.args...)
	args = append(args, o.args...)
	return Fragment{text: f.text + sep + o.text, args: args}
}

// JoinFragments joins the non-empty fragments with sep.
func JoinFragments(sep string, frags ...Fragment) Fragment {
	var joined Fragment
	for _, f := range frags {
		switch {
		case f.Empty():
		case joined.Empty():
			joined = Fragment{text: f.text, args: append([]Value(nil), f.args...)}
		default:
			joined = joined.Append(sep, f)
		}
	}
	return joined
}

// Validate returns ErrArgsMismatch if the placeholder count of the text
// differs from the number of arguments. Backslashes in string literals
// are not escape characters; use ValidateFor to follow a dialect.
func (f Fragment) Validate() error {
	return f.validate(false)
}

// ValidateFor is like Validate, but reads string literals the way the
// dialect does.
func (f Fragment) ValidateFor(d Dialect) error {
	return f.validate(backslashEscapes(d))
}

func (f Fragment) validate(backslash bool) error {
	if n := countPlaceholders(f.text, backslash); n != len(f.args) {
		return fmt.Errorf("%w: %d placeholders, %d arguments in %q", ErrArgsMismatch, n, len(f.args), f.text)
	}
	return nil
}

// Query validates the fragment and returns the statement text in the
// placeholder style of the dialect, along with its driver arguments.
func (f Fragment) Query(d Dialect) (string, []any, error) {
	if err := f.ValidateFor(d); err != nil {
		return "", nil, err
	}
	args := make([]any, len(f.args))
	for i, v := range f.args {
		args[i] = v.Any()
	}
	return Rebind(d, f.text), args, nil
}

// Rebind rewrites the ? placeholders of the query to the placeholder
// style of the dialect. Placeholders are renumbered in order of
// occurrence, so the argument order is preserved.
func Rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	scanPlaceholders(query, backslashEscapes(d), func(chunk string, n int) {
		b.WriteString(chunk)
		if n > 0 {
			b.WriteString(d.Placeholder(n))
		}
	})
	return b.String()
}

func backslashEscapes(d Dialect) bool {
	return d != nil && d.BackslashEscapes()
}

func countPlaceholders(query string, backslash bool) int {
	var count int
	scanPlaceholders(query, backslash, func(_ string, n int) {
		if n > 0 {
			count = n
		}
	})
	return count
}

// scanPlaceholders walks the query and calls fn with every chunk of text
// preceding a placeholder and the 1-based ordinal of that placeholder.
// The trailing chunk is reported with n == 0. Quoted strings, quoted
// identifiers and comments are skipped. With backslash set, a backslash
// escapes the next character of a string literal.
func scanPlaceholders(query string, backslash bool, fn func(chunk string, n int)) {
	var n, start int
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'' || c == '"':
			i = closingQuote(query, i, backslash)
		case c == '`':
			i = closingQuote(query, i, false)
		case c == '-' && strings.HasPrefix(query[i:], "--"):
			if j := strings.IndexByte(query[i:], '\n'); j >= 0 {
				i += j
			} else {
				i = len(query)
			}
		case c == '/' && strings.HasPrefix(query[i:], "/*"):
			if j := strings.Index(query[i+2:], "*/"); j >= 0 {
				i += j + 3
			} else {
				i = len(query)
			}
		case c == '?':
			n++
			fn(query[start:i], n)
			start = i + 1
		}
	}
	fn(query[start:], 0)
}

// closingQuote returns the index of the quote closing the literal opened
// at i, or len(query) if it is never closed. Doubled quotes are read as
// a closed literal followed by a new one.
func closingQuote(query string, i int, backslash bool) int {
	q := query[i]
	for j := i + 1; j < len(query); j++ {
		switch query[j] {
		case '\\':
			if backslash {
				j++
			}
		case q:
			return j
		}
	}
	return len(query)
}

// Builder is the low-level SQL writer used by the Grammar. Arg writes a
// placeholder and enqueues its value in the same call, so the text and
// the arguments cannot drift apart.
type Builder struct {
	sb      strings.Builder
	args    []Value
	errs    []error
	dialect Dialect
}

// NewBuilder returns a Builder that quotes identifiers for the dialect.
func NewBuilder(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// WriteString writes the raw string.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Pad writes a space.
func (b *Builder) Pad() *Builder {
	b.sb.WriteByte(' ')
	return b
}

// Comma writes a comma separator.
func (b *Builder) Comma() *Builder {
	b.sb.WriteString(", ")
	return b
}

// Wrap writes the output of fn wrapped in parentheses.
func (b *Builder) Wrap(fn func(*Builder)) *Builder {
	b.sb.WriteByte('(')
	fn(b)
	b.sb.WriteByte(')')
	return b
}

// Ident writes a quoted identifier. Dotted names are quoted per part,
// "*" is kept as is and expressions (containing parentheses or spaces)
// are written verbatim.
func (b *Builder) Ident(name string) *Builder {
	b.sb.WriteString(quoteIdent(b.dialect, name))
	return b
}

// IdentComma writes a comma separated list of quoted identifiers.
func (b *Builder) IdentComma(names ...string) *Builder {
	for i, n := range names {
		if i > 0 {
			b.Comma()
		}
		b.Ident(n)
	}
	return b
}

// Arg writes a placeholder for v and enqueues its value. Expr values
// are written verbatim.
func (b *Builder) Arg(v any) *Builder {
	if e, ok := v.(Expr); ok {
		b.sb.WriteString(string(e))
		return b
	}
	val, err := ValueOf(v)
	if err != nil {
		b.AddError(err)
		val = Null{}
	}
	b.sb.WriteByte('?')
	b.args = append(b.args, val)
	return b
}

// Args writes a comma separated list of arguments.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(v)
	}
	return b
}

// Join writes the fragment and enqueues its arguments.
func (b *Builder) Join(f Fragment) *Builder {
	b.sb.WriteString(f.text)
	b.args = append(b.args, f.args...)
	return b
}

// AddError records a build error reported by Err.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the joined build errors.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Len returns the length of the written text.
func (b *Builder) Len() int { return b.sb.Len() }

// Fragment returns the written text and arguments as a fragment.
func (b *Builder) Fragment() Fragment {
	return Fragment{text: b.sb.String(), args: append([]Value(nil), b.args...)}
}

func quoteIdent(d Dialect, name string) string {
	if name == "*" || strings.ContainsAny(name, "( ") || isQuoted(name) {
		return name
	}
	if !strings.Contains(name, ".") {
		return d.QuoteIdent(name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = d.QuoteIdent(p)
		}
	}
	return strings.Join(parts, ".")
}

func isQuoted(name string) bool {
	if len(name) < 2 {
		return false
	}
	switch c := name[0]; c {
	case '"', '`':
		return name[len(name)-1] == c
	}
	return false
}
