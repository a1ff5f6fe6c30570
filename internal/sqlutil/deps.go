package sqlutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSelect is returned by SourceTables for a statement that is not a
// pure selection.
var ErrNotSelect = errors.New("statement is not a SELECT")

// clauseKeywords end a FROM list or a table alias.
var clauseKeywords = map[string]bool{
	"WHERE": true, "GROUP": true, "ORDER": true, "HAVING": true,
	"LIMIT": true, "OFFSET": true, "UNION": true, "EXCEPT": true,
	"INTERSECT": true, "JOIN": true, "INNER": true, "LEFT": true,
	"RIGHT": true, "FULL": true, "OUTER": true, "CROSS": true,
	"NATURAL": true, "ON": true, "USING": true, "WINDOW": true,
	"FROM": true, "SELECT": true,
}

// SourceTables returns the tables and views a SELECT statement reads from,
// in order of first appearance. Sub-selects and compound queries are
// followed; schema qualifiers are dropped.
func SourceTables(text string) ([]string, error) {
	stmt, err := Compile(text)
	if err != nil {
		return nil, err
	}
	if kw := stmt.FirstKeyword(); kw != "SELECT" {
		return nil, fmt.Errorf("%w: starts with %q", ErrNotSelect, kw)
	}

	s := &depScanner{toks: significant(stmt.tokens), seen: make(map[string]bool)}
	s.scan(len(s.toks), false)
	return s.out, nil
}

type depScanner struct {
	toks []Token
	pos  int
	seen map[string]bool
	out  []string
}

// scan collects the tables read between pos and end. Inside expression
// parentheses (expr is set) FROM belongs to function syntax such as
// EXTRACT(YEAR FROM col) and names no table.
func (s *depScanner) scan(end int, expr bool) {
	for s.pos < end {
		t := s.toks[s.pos]
		s.pos++
		switch {
		case t.Is("("):
			closing := s.matching(s.pos-1, end)
			s.scan(closing, !s.subSelect(closing))
			s.pos = closing + 1
		case expr:
		case t.IsKeyword("FROM"):
			s.tableList(end, true)
		case t.IsKeyword("JOIN"):
			s.tableList(end, false)
		}
	}
}

// subSelect reports whether the parenthesis just before pos opens a query.
func (s *depScanner) subSelect(closing int) bool {
	if s.pos >= closing {
		return false
	}
	t := s.toks[s.pos]
	return t.IsKeyword("SELECT") || t.IsKeyword("WITH") || t.IsKeyword("VALUES")
}

func (s *depScanner) tableList(end int, list bool) {
	for s.pos < end {
		t := s.toks[s.pos]
		switch {
		case t.Is("("):
			closing := s.matching(s.pos, end)
			s.pos++
			s.scan(closing, false)
			s.pos = closing + 1
		case t.Kind == TokenIdent && !clauseKeywords[strings.ToUpper(t.Text)], t.Kind == TokenQuotedIdent:
			name := unquoteIdentifier(t.Text)
			s.pos++
			for s.pos+1 < end && s.toks[s.pos].Is(".") && isName(s.toks[s.pos+1]) {
				name = unquoteIdentifier(s.toks[s.pos+1].Text)
				s.pos += 2
			}
			if s.pos < end && s.toks[s.pos].Is("(") {
				// table-valued function
				s.pos = s.matching(s.pos, end) + 1
			} else {
				s.add(name)
			}
		default:
			return
		}

		s.skipAlias(end)
		if !list || s.pos >= end || !s.toks[s.pos].Is(",") {
			return
		}
		s.pos++
	}
}

func (s *depScanner) skipAlias(end int) {
	if s.pos < end && s.toks[s.pos].IsKeyword("AS") {
		s.pos++
	}
	if s.pos < end && isName(s.toks[s.pos]) {
		s.pos++
	}
}

// matching returns the index of the parenthesis closing the one at open,
// or end when it is unbalanced.
func (s *depScanner) matching(open, end int) int {
	depth := 0
	for i := open; i < end; i++ {
		switch {
		case s.toks[i].Is("("):
			depth++
		case s.toks[i].Is(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return end
}

func (s *depScanner) add(name string) {
	if s.seen[name] {
		return
	}
	s.seen[name] = true
	s.out = append(s.out, name)
}

func isName(t Token) bool {
	if t.Kind == TokenQuotedIdent {
		return true
	}
	return t.Kind == TokenIdent && !clauseKeywords[strings.ToUpper(t.Text)]
}
