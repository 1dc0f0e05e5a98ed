package hotlink

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mdlink/mdlink/internal/domain"
)

// PayloadKind says which registry a decoded envelope targets.
type PayloadKind int

const (
	PayloadStack PayloadKind = iota
	PayloadBreakpoints
)

// Payload is the decoded body of a hotlink response envelope.
type Payload struct {
	Kind   PayloadKind
	Tuples []domain.Frame
}

// DecodePayload parses a response envelope. The wire form is a parenthesized
// list of ("file" "name" line) 3-tuples, optionally preceded by the keyword
// "breakpoints" when the list describes breakpoints instead of the stack:
//
//	(("/src/f.m" "fcn" 5) ("/src/g.m" "g" -12))
//	breakpoints (("/src/f.m" "fcn" 10))
//
// The decoder is strict and fails closed: anything other than that shape is
// an error, never evaluated or guessed at.
func DecodePayload(envelope string) (*Payload, error) {
	s := strings.TrimSpace(envelope)
	kind := PayloadStack
	if rest, ok := strings.CutPrefix(s, "breakpoints"); ok {
		kind = PayloadBreakpoints
		s = strings.TrimSpace(rest)
	}
	p := &parser{input: s}
	tuples, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if p.skipSpace(); p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing data at offset %d", p.pos)
	}
	return &Payload{Kind: kind, Tuples: tuples}, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseList() ([]domain.Frame, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var tuples []domain.Frame
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, fmt.Errorf("unterminated tuple list")
		}
		if p.input[p.pos] == ')' {
			p.pos++
			return tuples, nil
		}
		tuple, err := p.parseTuple()
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, tuple)
	}
}

func (p *parser) parseTuple() (domain.Frame, error) {
	var f domain.Frame
	if err := p.expect('('); err != nil {
		return f, err
	}
	file, err := p.parseString()
	if err != nil {
		return f, fmt.Errorf("tuple file: %w", err)
	}
	name, err := p.parseString()
	if err != nil {
		return f, fmt.Errorf("tuple name: %w", err)
	}
	line, err := p.parseInt()
	if err != nil {
		return f, fmt.Errorf("tuple line: %w", err)
	}
	if err := p.expect(')'); err != nil {
		return f, err
	}
	return domain.Frame{File: file, Name: name, Line: line}, nil
}

func (p *parser) parseString() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		p.pos++
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			if p.pos >= len(p.input) {
				return "", fmt.Errorf("dangling escape at offset %d", p.pos)
			}
			sb.WriteByte(p.input[p.pos])
			p.pos++
		default:
			sb.WriteByte(c)
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *parser) parseInt() (int, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.input) && (p.input[p.pos] == '-' || p.input[p.pos] == '+') {
		p.pos++
	}
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil {
		return 0, fmt.Errorf("expected integer at offset %d", start)
	}
	return n, nil
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.input) || p.input[p.pos] != c {
		return fmt.Errorf("expected %q at offset %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}
