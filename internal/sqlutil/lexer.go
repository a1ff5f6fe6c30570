package sqlutil

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token kinds produced by Tokenize.
const (
	TokenComment     = "Comment"
	TokenWhitespace  = "Whitespace"
	TokenPlaceholder = "Placeholder"
	TokenString      = "String"
	TokenQuotedIdent = "QuotedIdent"
	TokenNumber      = "Number"
	TokenIdent       = "Ident"
	TokenOperator    = "Operator"
	TokenOther       = "Other"
)

var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: TokenComment, Pattern: `--[^\n]*|/\*[\s\S]*?\*/`},
	{Name: TokenWhitespace, Pattern: `\s+`},
	{Name: TokenPlaceholder, Pattern: `##[+-]?[A-Za-z0-9_.]+(?:::[A-Za-z0-9_]+)*`},
	{Name: TokenString, Pattern: `'(?:[^']|'')*'`},
	{Name: TokenQuotedIdent, Pattern: `"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`" + `|\[[^\]]*\]`},
	{Name: TokenNumber, Pattern: `\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},
	{Name: TokenIdent, Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: TokenOperator, Pattern: `<>|<=|>=|!=|==|\|\||::|[-+*/%=<>.,;()]`},
	{Name: TokenOther, Pattern: `[\s\S]`},
})

var tokenNames = func() map[lexer.TokenType]string {
	names := make(map[lexer.TokenType]string)
	for name, tt := range sqlLexer.Symbols() {
		names[tt] = name
	}
	return names
}()

// Token is one lexical element of a SQL text.
type Token struct {
	Kind   string
	Text   string
	Offset int
}

// Significant reports whether the token carries meaning (not whitespace or
// a comment).
func (t Token) Significant() bool {
	return t.Kind != TokenWhitespace && t.Kind != TokenComment
}

// IsKeyword reports whether the token is the given keyword, ignoring case.
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == TokenIdent && strings.EqualFold(t.Text, kw)
}

// Is reports whether the token is the given operator.
func (t Token) Is(op string) bool {
	return t.Kind == TokenOperator && t.Text == op
}

// Tokenize splits text into tokens. Concatenating every token's Text gives
// back the original text.
func Tokenize(text string) ([]Token, error) {
	lex, err := sqlLexer.LexString("", text)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize SQL: %w", err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize SQL: %w", err)
	}

	tokens := make([]Token, 0, len(raw))
	for _, tok := range raw {
		if tok.EOF() {
			break
		}
		tokens = append(tokens, Token{
			Kind:   tokenNames[tok.Type],
			Text:   tok.Value,
			Offset: tok.Pos.Offset,
		})
	}
	return tokens, nil
}

// SplitStatements groups tokens into statements separated by top-level
// semicolons. Separators are dropped, as are statements without any
// significant token.
func SplitStatements(tokens []Token) [][]Token {
	var (
		stmts   [][]Token
		current []Token
		depth   int
	)
	flush := func() {
		for _, t := range current {
			if t.Significant() {
				stmts = append(stmts, current)
				break
			}
		}
		current = nil
	}
	for _, t := range tokens {
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			if depth > 0 {
				depth--
			}
		case t.Is(";") && depth == 0:
			flush()
			continue
		}
		current = append(current, t)
	}
	flush()
	return stmts
}

// significant filters out whitespace and comments.
func significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Significant() {
			out = append(out, t)
		}
	}
	return out
}
