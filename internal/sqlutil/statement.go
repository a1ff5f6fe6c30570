package sqlutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/gocatalog/internal/types"
)

var (
	// ErrEmptyStatement is returned by Compile for text without any SQL.
	ErrEmptyStatement = errors.New("empty SQL statement")
	// ErrMultipleStatements is returned by Compile when text holds more
	// than one statement.
	ErrMultipleStatements = errors.New("more than one SQL statement")
)

// Param is a named placeholder of a statement, written
// ##name[::type][::NULL] in the SQL text.
type Param struct {
	Name     string
	Kind     types.Kind // KindNull when no type was declared
	Nullable bool
}

// Statement is a single compiled SQL statement with named placeholders.
// It is immutable and safe to share.
type Statement struct {
	text   string
	tokens []Token
	params []Param
	index  map[string]int
}

// Compile tokenizes text and records its placeholders. Text must hold
// exactly one statement; a trailing semicolon is allowed.
func Compile(text string) (*Statement, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	stmts := SplitStatements(tokens)
	switch len(stmts) {
	case 0:
		return nil, ErrEmptyStatement
	case 1:
	default:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleStatements, len(stmts))
	}

	s := &Statement{text: text, tokens: stmts[0], index: make(map[string]int)}
	for _, t := range s.tokens {
		if t.Kind != TokenPlaceholder {
			continue
		}
		p, err := parsePlaceholder(t.Text)
		if err != nil {
			return nil, err
		}
		if i, ok := s.index[p.Name]; ok {
			prev := s.params[i]
			if prev.Kind == types.KindNull {
				s.params[i].Kind = p.Kind
			} else if p.Kind != types.KindNull && p.Kind != prev.Kind {
				return nil, fmt.Errorf("placeholder %q declared as both %s and %s", p.Name, prev.Kind, p.Kind)
			}
			s.params[i].Nullable = prev.Nullable || p.Nullable
			continue
		}
		s.index[p.Name] = len(s.params)
		s.params = append(s.params, p)
	}
	return s, nil
}

// MustCompile is like Compile but panics on error. It is meant for
// statements generated from trusted descriptors.
func MustCompile(text string) *Statement {
	s, err := Compile(text)
	if err != nil {
		panic(fmt.Sprintf("sqlutil: compile %q: %v", text, err))
	}
	return s
}

func parsePlaceholder(text string) (Param, error) {
	parts := strings.Split(strings.TrimPrefix(text, "##"), "::")
	p := Param{Name: parts[0], Kind: types.KindNull}
	for _, part := range parts[1:] {
		if strings.EqualFold(part, "NULL") {
			p.Nullable = true
			continue
		}
		k, ok := types.KindFromName(part)
		if !ok {
			return Param{}, fmt.Errorf("placeholder %q: unknown type %q", p.Name, part)
		}
		p.Kind = k
	}
	return p, nil
}

// Text returns the original SQL text.
func (s *Statement) Text() string {
	return s.text
}

// Params returns the statement's placeholders in order of first use.
func (s *Statement) Params() []Param {
	return s.params
}

// Param returns the placeholder called name.
func (s *Statement) Param(name string) (Param, bool) {
	i, ok := s.index[name]
	if !ok {
		return Param{}, false
	}
	return s.params[i], true
}

// FirstKeyword returns the upper-cased first keyword of the statement, such
// as SELECT or INSERT.
func (s *Statement) FirstKeyword() string {
	for _, t := range s.tokens {
		if t.Kind == TokenIdent {
			return strings.ToUpper(t.Text)
		}
		if t.Significant() && !t.Is("(") {
			return ""
		}
	}
	return ""
}

// Missing returns the placeholders with no entry in values.
func (s *Statement) Missing(values map[string]any) []string {
	var missing []string
	for _, p := range s.params {
		if _, ok := values[p.Name]; !ok {
			missing = append(missing, p.Name)
		}
	}
	return missing
}

// Unused returns the names in values that match no placeholder.
func (s *Statement) Unused(values map[string]any) []string {
	var unused []string
	for name := range values {
		if _, ok := s.index[name]; !ok {
			unused = append(unused, name)
		}
	}
	return unused
}

// UnboundError lists placeholders that need a value but got none.
type UnboundError struct {
	Names []string
}

func (e *UnboundError) Error() string {
	return "no value bound for placeholder(s): " + strings.Join(e.Names, ", ")
}

// BindError reports a value whose kind does not fit its placeholder.
type BindError struct {
	Name  string
	Param types.Kind
	Value any
}

func (e *BindError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("placeholder %q does not accept NULL", e.Name)
	}
	k, _ := types.KindOf(e.Value)
	return fmt.Sprintf("placeholder %q expects %s, got %s value %s", e.Name, e.Param, k, types.Stringify(e.Value))
}

// Bind renders the statement with positional '?' markers and returns the
// matching argument list. Nullable placeholders without a value bind NULL.
// Inside a WHERE, ON or HAVING clause, a nullable placeholder bound to NULL
// right after '=' or '<>' renders as IS NULL or IS NOT NULL so that the
// comparison can match.
func (s *Statement) Bind(values map[string]any) (string, []any, error) {
	var (
		out     []string
		args    []any
		unbound []string
		lastOp  = -1 // index in out of the last significant token
		inCond  bool
	)
	for _, t := range s.tokens {
		if t.Kind != TokenPlaceholder {
			if t.Significant() {
				lastOp = len(out)
			}
			switch {
			case t.IsKeyword("WHERE"), t.IsKeyword("ON"), t.IsKeyword("HAVING"):
				inCond = true
			case t.IsKeyword("SET"), t.IsKeyword("VALUES"):
				inCond = false
			}
			out = append(out, t.Text)
			continue
		}

		p := s.params[s.index[placeholderName(t.Text)]]
		v, ok := values[p.Name]
		if !ok && !p.Nullable {
			unbound = append(unbound, p.Name)
			out = append(out, "?")
			continue
		}
		v = types.Normalize(v)
		if err := checkKind(p, v); err != nil {
			return "", nil, err
		}

		if v == nil && inCond && lastOp >= 0 {
			switch out[lastOp] {
			case "=", "==":
				out[lastOp] = "IS"
				lastOp = len(out)
				out = append(out, "NULL")
				continue
			case "<>", "!=":
				out[lastOp] = "IS NOT"
				lastOp = len(out)
				out = append(out, "NULL")
				continue
			}
		}
		lastOp = len(out)
		out = append(out, "?")
		args = append(args, v)
	}
	if len(unbound) > 0 {
		return "", nil, &UnboundError{Names: unbound}
	}
	return strings.Join(out, ""), args, nil
}

func placeholderName(text string) string {
	name := strings.TrimPrefix(text, "##")
	if i := strings.Index(name, "::"); i >= 0 {
		name = name[:i]
	}
	return name
}

func checkKind(p Param, v any) error {
	if v == nil {
		if !p.Nullable {
			return &BindError{Name: p.Name, Param: p.Kind}
		}
		return nil
	}
	if p.Kind == types.KindNull {
		return nil
	}
	k, ok := types.KindOf(v)
	if !ok {
		return &BindError{Name: p.Name, Param: p.Kind, Value: v}
	}
	if k == p.Kind || (k == types.KindInt && p.Kind == types.KindFloat) {
		return nil
	}
	return &BindError{Name: p.Name, Param: p.Kind, Value: v}
}
