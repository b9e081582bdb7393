// Package lexer scans C source text into a token stream. Scanning never
// fails: an unrecognized byte is emitted as a single token.Illegal token
// and scanning advances past it, matching spec.md §4.1 ("fails softly").
package lexer

import (
	"unicode"

	"github.com/cc4stage/cc4/pkg/token"
)

// multiCharOperators lists every operator longer than one byte, longest
// first within a shared leading byte so the scanner can try the longest
// match before falling back to the single-byte operator.
var multiCharOperators = []string{
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "<<", ">>",
}

var singleCharPunctuation = map[byte]bool{
	'(': true, ')': true, '{': true, '}': true, '[': true, ']': true,
	';': true, ',': true, '.': true,
}

var singleCharOperators = map[byte]bool{
	'+': true, '-': true, '*': true, '/': true, '%': true, '=': true,
	'<': true, '>': true, '!': true, '&': true, '|': true, '^': true,
	'~': true,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []byte
	pos  int
	line int
	col  int
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []byte(src), pos: 0, line: 1, col: 1}
}

// Lex tokenizes source text in full. It always terminates and always
// returns a non-nil slice; recovery from an unexpected internal fault
// folds into a single Illegal token rather than a panic escaping.
func Lex(source string) (tokens []token.Token) {
	defer func() {
		if r := recover(); r != nil {
			tokens = []token.Token{{
				Kind:  token.Illegal,
				Value: "lexer failed: internal error",
			}}
		}
	}()

	tokens = []token.Token{}
	l := newLexer(source)
	for {
		tok, ok := l.next()
		if ok {
			tokens = append(tokens, tok)
		}
		if l.pos >= len(l.src) {
			break
		}
	}
	return tokens
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

// next scans one token starting at the lexer's current position. The
// second return value is false for scanned-but-dropped whitespace at
// end of input, which happens only when skipWhitespace consumes the
// remaining bytes.
func (l *Lexer) next() (token.Token, bool) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return token.Token{}, false
	}

	start := l.pos
	line, col := l.line, l.col
	ch := l.peek()

	switch {
	case ch == '/' && l.peekAt(1) == '/':
		return l.scanLineComment(start, line, col), true
	case ch == '/' && l.peekAt(1) == '*':
		return l.scanBlockComment(start, line, col), true
	case ch == '#':
		return l.scanPreprocessor(start, line, col), true
	case ch == '"':
		return l.scanString(start, line, col), true
	case ch == '\'':
		return l.scanChar(start, line, col), true
	case isLetter(ch):
		return l.scanWord(start, line, col), true
	case isDigit(ch):
		return l.scanNumber(start, line, col), true
	case isOperatorStart(ch):
		return l.scanOperator(start, line, col), true
	case singleCharPunctuation[ch]:
		l.advance()
		return l.make(token.Punctuation, start, line, col), true
	default:
		l.advance()
		return l.make(token.Illegal, start, line, col), true
	}
}

func (l *Lexer) make(kind token.Kind, start, line, col int) token.Token {
	return token.Token{
		Kind:   kind,
		Value:  string(l.src[start:l.pos]),
		Start:  start,
		End:    l.pos,
		Line:   line,
		Column: col,
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch l.peek() {
		case ' ', '\t', '\n', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scanLineComment(start, line, col int) token.Token {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
	return l.make(token.Comment, start, line, col)
}

func (l *Lexer) scanBlockComment(start, line, col int) token.Token {
	l.advance() // '/'
	l.advance() // '*'
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			return l.make(token.Comment, start, line, col)
		}
		l.advance()
	}
	// Unterminated comment: consumed to EOF, still a comment token so the
	// parser sees a closed token stream.
	return l.make(token.Comment, start, line, col)
}

func (l *Lexer) scanPreprocessor(start, line, col int) token.Token {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
	return l.make(token.Preprocessor, start, line, col)
}

func (l *Lexer) scanString(start, line, col int) token.Token {
	l.advance() // opening quote
	for l.pos < len(l.src) && l.peek() != '"' {
		if l.peek() == '\\' && l.pos+1 < len(l.src) {
			l.advance()
		}
		l.advance()
	}
	if l.pos < len(l.src) {
		l.advance() // closing quote
	}
	return l.make(token.String, start, line, col)
}

func (l *Lexer) scanChar(start, line, col int) token.Token {
	l.advance() // opening quote
	for l.pos < len(l.src) && l.peek() != '\'' {
		if l.peek() == '\\' && l.pos+1 < len(l.src) {
			l.advance()
		}
		l.advance()
	}
	if l.pos < len(l.src) {
		l.advance() // closing quote
	}
	return l.make(token.Char, start, line, col)
}

func (l *Lexer) scanWord(start, line, col int) token.Token {
	for l.pos < len(l.src) && (isLetter(l.peek()) || isDigit(l.peek())) {
		l.advance()
	}
	word := string(l.src[start:l.pos])
	return token.Token{
		Kind:   token.LookupWord(word),
		Value:  word,
		Start:  start,
		End:    l.pos,
		Line:   line,
		Column: col,
	}
}

func (l *Lexer) scanNumber(start, line, col int) token.Token {
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
	}
	return l.make(token.Number, start, line, col)
}

func (l *Lexer) scanOperator(start, line, col int) token.Token {
	for _, op := range multiCharOperators {
		if l.pos+len(op) <= len(l.src) && string(l.src[l.pos:l.pos+len(op)]) == op {
			for range op {
				l.advance()
			}
			return l.make(token.Operator, start, line, col)
		}
	}
	l.advance()
	return l.make(token.Operator, start, line, col)
}

func isOperatorStart(ch byte) bool {
	return singleCharOperators[ch]
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
