package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType identifies lexical tokens produced by the SQL lexer.
type TokenType int

const (
	EOF TokenType = iota
	Illegal
	Ident
	Keyword
	Number
	String
	Comma
	LParen
	RParen
	LBracket
	RBracket
	Semicolon
	Star
	Plus
	Minus
	Slash
	Percent
	Dot
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

// Token represents a lexical item. Keyword literals are upper-cased;
// identifiers keep their original spelling.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

var keywords = map[string]struct{}{
	"ALL":       {},
	"AND":       {},
	"AS":        {},
	"ASC":       {},
	"BY":        {},
	"CAST":      {},
	"CROSS":     {},
	"DATA":      {},
	"DESC":      {},
	"DESCRIBE":  {},
	"DISTINCT":  {},
	"FALSE":     {},
	"FORMATTED": {},
	"FROM":      {},
	"FULL":      {},
	"GROUP":     {},
	"HAVING":    {},
	"INNER":     {},
	"INPATH":    {},
	"INSERT":    {},
	"INTO":      {},
	"IS":        {},
	"JOIN":      {},
	"LEFT":      {},
	"LIMIT":     {},
	"LOAD":      {},
	"NOT":       {},
	"NULL":      {},
	"OFFSET":    {},
	"ON":        {},
	"OR":        {},
	"ORDER":     {},
	"OUTER":     {},
	"OVERWRITE": {},
	"PARTITION": {},
	"RIGHT":     {},
	"SELECT":    {},
	"SEMI":      {},
	"TABLE":     {},
	"TRUE":      {},
	"UNION":     {},
	"USING":     {},
	"VALUES":    {},
	"WHERE":     {},
	"WITH":      {},
}

// IsKeyword reports whether word is a reserved keyword.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}

// Lexer performs tokenisation over the input SQL string.
type Lexer struct {
	input []rune
	pos   int
}

// New initialises a lexer for the provided SQL source.
func New(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Next returns the next token from the stream.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]
	single := func(tt TokenType) Token {
		l.pos++
		return Token{Type: tt, Literal: string(ch), Pos: start}
	}
	switch ch {
	case ',':
		return single(Comma)
	case '(':
		return single(LParen)
	case ')':
		return single(RParen)
	case '[':
		return single(LBracket)
	case ']':
		return single(RBracket)
	case ';':
		return single(Semicolon)
	case '*':
		return single(Star)
	case '+':
		return single(Plus)
	case '-':
		return single(Minus)
	case '/':
		return single(Slash)
	case '%':
		return single(Percent)
	case '.':
		if l.pos+1 < len(l.input) && unicode.IsDigit(l.input[l.pos+1]) {
			return l.scanNumber()
		}
		return single(Dot)
	case '=':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return Token{Type: Equal, Literal: "=", Pos: start}
	case '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return Token{Type: NotEqual, Literal: "!=", Pos: start}
		}
	case '<':
		l.pos++
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '=':
				l.pos++
				return Token{Type: LessEqual, Literal: "<=", Pos: start}
			case '>':
				l.pos++
				return Token{Type: NotEqual, Literal: "!=", Pos: start}
			}
		}
		return Token{Type: Less, Literal: "<", Pos: start}
	case '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return Token{Type: GreaterEqual, Literal: ">=", Pos: start}
		}
		return Token{Type: Greater, Literal: ">", Pos: start}
	case '\'', '"':
		return l.scanString(ch)
	case '`':
		return l.scanQuotedIdentifier()
	}

	if unicode.IsLetter(ch) || ch == '_' {
		return l.scanIdentifier()
	}
	if unicode.IsDigit(ch) {
		return l.scanNumber()
	}

	l.pos++
	return Token{Type: Illegal, Literal: string(ch), Pos: start}
}

func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			l.pos++
			continue
		}
		break
	}
	lit := string(l.input[start:l.pos])
	upper := strings.ToUpper(lit)
	if _, ok := keywords[upper]; ok {
		return Token{Type: Keyword, Literal: upper, Pos: start}
	}
	return Token{Type: Ident, Literal: lit, Pos: start}
}

func (l *Lexer) scanQuotedIdentifier() Token {
	start := l.pos
	l.pos++
	begin := l.pos
	for l.pos < len(l.input) {
		if l.input[l.pos] == '`' {
			lit := string(l.input[begin:l.pos])
			l.pos++
			return Token{Type: Ident, Literal: lit, Pos: start}
		}
		l.pos++
	}
	return Token{Type: Illegal, Literal: "unterminated quoted identifier", Pos: start}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	seenDot := false
	seenExp := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case unicode.IsDigit(ch):
			l.pos++
		case ch == '.' && !seenDot && !seenExp:
			seenDot = true
			l.pos++
		case (ch == 'e' || ch == 'E') && !seenExp && l.exponentFollows():
			seenExp = true
			l.pos++
			if l.input[l.pos] == '+' || l.input[l.pos] == '-' {
				l.pos++
			}
		default:
			return Token{Type: Number, Literal: string(l.input[start:l.pos]), Pos: start}
		}
	}
	return Token{Type: Number, Literal: string(l.input[start:l.pos]), Pos: start}
}

func (l *Lexer) exponentFollows() bool {
	next := l.pos + 1
	if next < len(l.input) && (l.input[next] == '+' || l.input[next] == '-') {
		next++
	}
	return next < len(l.input) && unicode.IsDigit(l.input[next])
}

func (l *Lexer) scanString(quote rune) Token {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == quote {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == quote {
				sb.WriteRune(quote)
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Type: String, Literal: sb.String(), Pos: start}
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			sb.WriteRune(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		sb.WriteRune(ch)
		l.pos++
	}
	return Token{Type: Illegal, Literal: "unterminated string literal", Pos: start}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsSpace(ch) {
			l.pos++
			continue
		}
		if ch == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '-' {
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

// Tokenize returns every token up to and excluding EOF.
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.Next()
		switch tok.Type {
		case EOF:
			return tokens, nil
		case Illegal:
			return nil, fmt.Errorf("lexer: illegal token %q at offset %d", tok.Literal, tok.Pos)
		}
		tokens = append(tokens, tok)
	}
}
