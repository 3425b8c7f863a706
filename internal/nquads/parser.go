// Package nquads reads N-Quads documents into quads of raw terms.
//
// Each term is stored as its canonical N-Triples form: IRIs as <iri>, blank
// nodes as _:label and literals as "value", "value"@lang or
// "value"^^<datatype>. Prefixed names and bare numbers are expanded. A quad
// without a graph belongs to the default graph.
package nquads

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/hexagraph/pkg/store"
)

const (
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDouble  = "http://www.w3.org/2001/XMLSchema#double"
)

// Parser is an N-Quads parser that extends N-Triples with an optional 4th position for graphs
// N-Quads format: <subject> <predicate> <object> [<graph>] .
// Compatible with N-Triples (3 positions) - defaults to default graph
type Parser struct {
	input    string
	pos      int
	length   int
	line     int
	prefixes map[string]string
}

// NewParser creates a new N-Quads parser
func NewParser(input string) *Parser {
	return &Parser{
		input:    input,
		pos:      0,
		length:   len(input),
		line:     1,
		prefixes: make(map[string]string),
	}
}

// Parse parses the whole document and returns its quads
func (p *Parser) Parse() ([]store.Quad, error) {
	var quads []store.Quad

	for {
		quad, ok, err := p.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return quads, nil
		}
		quads = append(quads, quad)
	}
}

// Next parses the next quad. It returns false at the end of the input.
func (p *Parser) Next() (store.Quad, bool, error) {
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			return store.Quad{}, false, nil
		}

		// PREFIX directive (optional Turtle extension)
		if p.matchKeyword("@prefix") || p.matchKeyword("PREFIX") {
			if err := p.parsePrefix(); err != nil {
				return store.Quad{}, false, p.errorf("%w", err)
			}
			continue
		}

		quad, err := p.parseQuad()
		if err != nil {
			return store.Quad{}, false, p.errorf("%w", err)
		}
		return quad, true, nil
	}
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: "+format, append([]any{p.line}, args...)...)
}

// skipWhitespaceAndComments skips whitespace and comments
func (p *Parser) skipWhitespaceAndComments() {
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == '\n' {
			p.line++
			p.pos++
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' {
			p.pos++
			continue
		}
		if ch == '#' {
			// Skip comment until end of line
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

// matchKeyword checks if the current position matches a keyword
func (p *Parser) matchKeyword(keyword string) bool {
	if p.pos+len(keyword) > p.length {
		return false
	}

	if !strings.EqualFold(p.input[p.pos:p.pos+len(keyword)], keyword) {
		return false
	}

	// Keyword must be followed by whitespace
	if p.pos+len(keyword) < p.length {
		nextCh := p.input[p.pos+len(keyword)]
		if nextCh != ' ' && nextCh != '\t' && nextCh != '\n' && nextCh != '\r' {
			return false
		}
	}

	return true
}

// parsePrefix parses a PREFIX directive
func (p *Parser) parsePrefix() error {
	// Skip "PREFIX" or "@prefix"
	for p.pos < p.length && p.input[p.pos] != ' ' && p.input[p.pos] != '\t' {
		p.pos++
	}
	p.skipWhitespaceAndComments()

	start := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' {
		p.pos++
	}
	if p.pos >= p.length {
		return fmt.Errorf("expected ':' after prefix name")
	}
	prefixName := strings.TrimSpace(p.input[start:p.pos])
	p.pos++ // skip ':'

	p.skipWhitespaceAndComments()

	iri, err := p.parseIRI()
	if err != nil {
		return fmt.Errorf("error parsing prefix IRI: %w", err)
	}
	p.prefixes[prefixName] = iri

	// Skip optional '.' at end
	p.skipWhitespaceAndComments()
	if p.pos < p.length && p.input[p.pos] == '.' {
		p.pos++
	}

	return nil
}

// parseQuad parses a quad: subject predicate object [graph] .
func (p *Parser) parseQuad() (store.Quad, error) {
	subject, err := p.parseTerm()
	if err != nil {
		return store.Quad{}, fmt.Errorf("error parsing subject: %w", err)
	}
	p.skipWhitespaceAndComments()

	predicate, err := p.parseTerm()
	if err != nil {
		return store.Quad{}, fmt.Errorf("error parsing predicate: %w", err)
	}
	p.skipWhitespaceAndComments()

	object, err := p.parseTerm()
	if err != nil {
		return store.Quad{}, fmt.Errorf("error parsing object: %w", err)
	}
	p.skipWhitespaceAndComments()

	// Optional graph (4th position)
	graph := store.DefaultGraph
	if p.pos < p.length && (p.input[p.pos] == '<' || p.input[p.pos] == '_') {
		graph, err = p.parseTerm()
		if err != nil {
			return store.Quad{}, fmt.Errorf("error parsing graph: %w", err)
		}
		p.skipWhitespaceAndComments()
	}

	if p.pos >= p.length || p.input[p.pos] != '.' {
		return store.Quad{}, fmt.Errorf("expected '.' at end of quad")
	}
	p.pos++ // skip '.'

	return store.NewQuad(subject, predicate, object, graph), nil
}

// parseTerm parses a term and returns its canonical form
func (p *Parser) parseTerm() ([]byte, error) {
	if p.pos >= p.length {
		return nil, fmt.Errorf("unexpected end of input")
	}
	ch := p.input[p.pos]

	switch ch {
	case '<':
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return iriTerm(iri), nil

	case '_':
		return p.parseBlankNode()

	case '"':
		return p.parseLiteral()

	case '-', '+', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.parseNumber()

	default:
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			return p.parsePrefixedName()
		}
		return nil, fmt.Errorf("unexpected character %q", ch)
	}
}

// parseIRI parses an IRI enclosed in < >
func (p *Parser) parseIRI() (string, error) {
	if p.pos >= p.length || p.input[p.pos] != '<' {
		return "", fmt.Errorf("expected '<' at start of IRI")
	}
	p.pos++ // skip '<'

	start := p.pos
	for p.pos < p.length && p.input[p.pos] != '>' {
		if isSpace(p.input[p.pos]) || p.input[p.pos] == '<' {
			return "", fmt.Errorf("unclosed IRI")
		}
		p.pos++
	}
	if p.pos >= p.length {
		return "", fmt.Errorf("unclosed IRI")
	}

	iri := p.input[start:p.pos]
	p.pos++ // skip '>'
	return iri, nil
}

// parseBlankNode parses a blank node
func (p *Parser) parseBlankNode() ([]byte, error) {
	if p.pos+1 >= p.length || p.input[p.pos] != '_' || p.input[p.pos+1] != ':' {
		return nil, fmt.Errorf("expected '_:' at start of blank node")
	}
	p.pos += 2 // skip '_:'

	start := p.pos
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '.' || ch == '<' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("empty blank node label")
	}

	return []byte("_:" + p.input[start:p.pos]), nil
}

// parseLiteral parses a literal with an optional language tag or datatype
func (p *Parser) parseLiteral() ([]byte, error) {
	if p.pos >= p.length || p.input[p.pos] != '"' {
		return nil, fmt.Errorf("expected '\"' at start of literal")
	}
	p.pos++ // skip opening '"'

	var value strings.Builder
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == '"' {
			break
		}
		if ch == '\\' {
			p.pos++
			if p.pos >= p.length {
				return nil, fmt.Errorf("unexpected end of input in escape sequence")
			}
			switch esc := p.input[p.pos]; esc {
			case 'n':
				value.WriteByte('\n')
			case 't':
				value.WriteByte('\t')
			case 'r':
				value.WriteByte('\r')
			default:
				value.WriteByte(esc)
			}
			p.pos++
			continue
		}
		if ch == '\n' {
			p.line++
		}
		value.WriteByte(ch)
		p.pos++
	}

	if p.pos >= p.length {
		return nil, fmt.Errorf("unclosed string literal")
	}
	p.pos++ // skip closing '"'

	if p.pos < p.length && p.input[p.pos] == '@' {
		p.pos++ // skip '@'
		start := p.pos
		for p.pos < p.length {
			ch := p.input[p.pos]
			if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '.' || ch == '<' {
				break
			}
			p.pos++
		}
		if p.pos == start {
			return nil, fmt.Errorf("empty language tag")
		}
		return literalTerm(value.String(), "@"+strings.ToLower(p.input[start:p.pos])), nil
	}

	if p.pos+1 < p.length && p.input[p.pos] == '^' && p.input[p.pos+1] == '^' {
		p.pos += 2 // skip '^^'
		datatype, err := p.parseIRI()
		if err != nil {
			return nil, fmt.Errorf("error parsing datatype: %w", err)
		}
		return literalTerm(value.String(), "^^<"+datatype+">"), nil
	}

	return literalTerm(value.String(), ""), nil
}

// parseNumber parses a bare numeric literal
func (p *Parser) parseNumber() ([]byte, error) {
	start := p.pos

	if p.input[p.pos] == '-' || p.input[p.pos] == '+' {
		p.pos++
	}

	hasDigits := false
	for p.pos < p.length && isDigit(p.input[p.pos]) {
		p.pos++
		hasDigits = true
	}

	// A '.' followed by a digit is a decimal point, otherwise it ends the quad
	isDecimal := false
	if p.pos+1 < p.length && p.input[p.pos] == '.' && isDigit(p.input[p.pos+1]) {
		isDecimal = true
		p.pos++
		for p.pos < p.length && isDigit(p.input[p.pos]) {
			p.pos++
			hasDigits = true
		}
	}

	if p.pos < p.length && (p.input[p.pos] == 'e' || p.input[p.pos] == 'E') {
		isDecimal = true
		p.pos++
		if p.pos < p.length && (p.input[p.pos] == '-' || p.input[p.pos] == '+') {
			p.pos++
		}
		for p.pos < p.length && isDigit(p.input[p.pos]) {
			p.pos++
		}
	}

	if !hasDigits {
		return nil, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}

	datatype := xsdInteger
	if isDecimal {
		datatype = xsdDouble
	}
	return literalTerm(p.input[start:p.pos], "^^<"+datatype+">"), nil
}

// parsePrefixedName parses a prefixed name (e.g., ex:foo)
func (p *Parser) parsePrefixedName() ([]byte, error) {
	start := p.pos

	for p.pos < p.length && p.input[p.pos] != ':' {
		ch := p.input[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '.' {
			return nil, fmt.Errorf("invalid character in prefixed name")
		}
		p.pos++
	}
	if p.pos >= p.length {
		return nil, fmt.Errorf("expected ':' in prefixed name")
	}

	prefix := p.input[start:p.pos]
	p.pos++ // skip ':'

	localStart := p.pos
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '<' || ch == '>' {
			break
		}
		// A trailing '.' terminates the statement
		if ch == '.' && (p.pos+1 >= p.length || isSpace(p.input[p.pos+1])) {
			break
		}
		p.pos++
	}

	baseIRI, ok := p.prefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("undefined prefix: %s", prefix)
	}
	return iriTerm(baseIRI + p.input[localStart:p.pos]), nil
}

func iriTerm(iri string) []byte {
	return []byte("<" + iri + ">")
}

// literalTerm quotes value with N-Triples escapes and appends suffix
func literalTerm(value, suffix string) []byte {
	var sb strings.Builder
	sb.Grow(len(value) + len(suffix) + 2)

	sb.WriteByte('"')
	for i := 0; i < len(value); i++ {
		switch ch := value[i]; ch {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(ch)
		}
	}
	sb.WriteByte('"')
	sb.WriteString(suffix)
	return []byte(sb.String())
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
