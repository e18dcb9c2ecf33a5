// Package condition implements the boolean expression language used to gate
// conditional document rules. Expressions compare flat or dotted applicant
// fields against literals, e.g.
//
//	sponsorType !== 'self' && riskScore.level === 'high'
//
// Evaluation is tri-state: an atom over a field that does not resolve yields
// Unknown rather than false, and Unknown propagates through &&/||. Only a
// hard False operand can discharge an Unknown; a disjunction with any
// Unknown operand is Unknown even when another operand is True. Malformed
// expressions also evaluate to Unknown; the evaluator never returns an error
// and never panics.
package condition

import (
	"strings"
	"unicode"
)

// Result is the tri-state outcome of evaluating a condition.
type Result string

const (
	True    Result = "true"
	False   Result = "false"
	Unknown Result = "unknown"
)

// String returns the string representation of the result.
func (r Result) String() string {
	return string(r)
}

// Resolver resolves a flat or dotted field path to its string value. The
// second return is false when the path does not resolve.
type Resolver interface {
	Field(path string) (string, bool)
}

// MapResolver adapts a plain map to the Resolver interface. Used in tests
// and anywhere a full applicant context is not available.
type MapResolver map[string]string

// Field implements Resolver.
func (m MapResolver) Field(path string) (string, bool) {
	v, ok := m[path]
	return v, ok
}

// Evaluate evaluates expr against ctx. An empty or whitespace-only
// expression is vacuously True. Any syntax error yields Unknown.
func Evaluate(expr string, ctx Resolver) Result {
	if strings.TrimSpace(expr) == "" {
		return True
	}
	tokens, err := tokenize(expr)
	if err != nil {
		return Unknown
	}
	p := &parser{tokens: tokens, ctx: ctx}
	result, err := p.parseOr()
	if err != nil {
		return Unknown
	}
	if !p.atEnd() {
		// Trailing garbage after a complete expression.
		return Unknown
	}
	return result
}

// and combines two results with Kleene three-valued conjunction.
func and(a, b Result) Result {
	if a == False || b == False {
		return False
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return True
}

// or combines two results. Unlike strict Kleene disjunction, an Unknown
// operand dominates a True one: an expression that touches an unresolved
// field stays Unknown unless every operand is a hard False.
func or(a, b Result) Result {
	if a == Unknown || b == Unknown {
		return Unknown
	}
	if a == True || b == True {
		return True
	}
	return False
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenEq  // ===
	tokenNeq // !==
	tokenAnd // &&
	tokenOr  // ||
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
}

type syntaxError struct{ msg string }

func (e *syntaxError) Error() string { return e.msg }

func errSyntax(msg string) error { return &syntaxError{msg: msg} }

func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen})
			i++
		case r == '&':
			if i+1 >= len(runes) || runes[i+1] != '&' {
				return nil, errSyntax("single '&'")
			}
			tokens = append(tokens, token{kind: tokenAnd})
			i += 2
		case r == '|':
			if i+1 >= len(runes) || runes[i+1] != '|' {
				return nil, errSyntax("single '|'")
			}
			tokens = append(tokens, token{kind: tokenOr})
			i += 2
		case r == '=':
			// Only strict equality is part of the language; '=' and '=='
			// are treated as malformed, not coerced.
			if i+2 < len(runes) && runes[i+1] == '=' && runes[i+2] == '=' {
				tokens = append(tokens, token{kind: tokenEq})
				i += 3
			} else {
				return nil, errSyntax("expected '==='")
			}
		case r == '!':
			if i+2 < len(runes) && runes[i+1] == '=' && runes[i+2] == '=' {
				tokens = append(tokens, token{kind: tokenNeq})
				i += 3
			} else {
				return nil, errSyntax("expected '!=='")
			}
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, errSyntax("unterminated string")
			}
			tokens = append(tokens, token{kind: tokenString, text: string(runes[i+1 : j])})
			i = j + 1
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '.') {
				j++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[i:j])})
			i = j
		default:
			return nil, errSyntax("unexpected character " + string(r))
		}
	}
	if len(tokens) == 0 {
		return nil, errSyntax("no tokens")
	}
	return tokens, nil
}

// parser is a recursive-descent parser that evaluates as it parses.
//
//	orExpr  := andExpr ( '||' andExpr )*
//	andExpr := atom ( '&&' atom )*
//	atom    := '(' orExpr ')' | field ('===' | '!==') literal
type parser struct {
	tokens []token
	pos    int
	ctx    Resolver
}

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() (token, bool) {
	if p.atEnd() {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) parseOr() (Result, error) {
	result, err := p.parseAnd()
	if err != nil {
		return Unknown, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenOr {
			return result, nil
		}
		p.pos++
		rhs, err := p.parseAnd()
		if err != nil {
			return Unknown, err
		}
		result = or(result, rhs)
	}
}

func (p *parser) parseAnd() (Result, error) {
	result, err := p.parseAtom()
	if err != nil {
		return Unknown, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokenAnd {
			return result, nil
		}
		p.pos++
		rhs, err := p.parseAtom()
		if err != nil {
			return Unknown, err
		}
		result = and(result, rhs)
	}
}

func (p *parser) parseAtom() (Result, error) {
	t, ok := p.next()
	if !ok {
		return Unknown, errSyntax("unexpected end of expression")
	}
	if t.kind == tokenLParen {
		inner, err := p.parseOr()
		if err != nil {
			return Unknown, err
		}
		closing, ok := p.next()
		if !ok || closing.kind != tokenRParen {
			return Unknown, errSyntax("missing ')'")
		}
		return inner, nil
	}
	if t.kind != tokenIdent {
		return Unknown, errSyntax("expected field name")
	}
	op, ok := p.next()
	if !ok || (op.kind != tokenEq && op.kind != tokenNeq) {
		return Unknown, errSyntax("expected comparison operator")
	}
	lit, ok := p.next()
	if !ok || (lit.kind != tokenString && lit.kind != tokenIdent) {
		return Unknown, errSyntax("expected literal")
	}

	// A field that does not resolve makes the comparison Unknown, never a
	// confident false: equality with an absent value is not a real answer.
	value, resolved := p.ctx.Field(t.text)
	if !resolved {
		return Unknown, nil
	}
	equal := value == lit.text
	if op.kind == tokenNeq {
		equal = !equal
	}
	if equal {
		return True, nil
	}
	return False, nil
}
