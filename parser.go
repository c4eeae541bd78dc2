package tauq

import (
	"strconv"
	"strings"
)

// DefaultMaxScopeDepth and DefaultMaxLineBytes implement the resource bounds
// of spec.md §5.
const (
	DefaultMaxScopeDepth = 256
	DefaultMaxLineBytes  = 16 << 20
)

// ParseOptions configures resource bounds for a single parse.
type ParseOptions struct {
	MaxScopeDepth int
	MaxLineBytes  int
}

// DefaultParseOptions returns the spec's recommended resource bounds.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxScopeDepth: DefaultMaxScopeDepth, MaxLineBytes: DefaultMaxLineBytes}
}

// Parser turns Tauq Notation text into a Value, driven by an explicit token
// cursor and a schema registry scoped to this parse only (spec.md §9).
type Parser struct {
	toks     []Token
	pos      int
	registry *Registry
	opts     ParseOptions
	depth    int
}

// NewParser tokenizes text and returns a Parser ready to produce a Value.
func NewParser(text string, opts ParseOptions) (*Parser, error) {
	toks, err := tokenizeDocument(text, opts.MaxLineBytes)
	if err != nil {
		return nil, err
	}
	return &Parser{toks: toks, registry: NewRegistry(), opts: opts}, nil
}

// Registry exposes the schema registry populated during parsing.
func (p *Parser) Registry() *Registry { return p.registry }

// tokenizeDocument scans every physical line of text into one flat token
// stream, inserting a TokSemi at the end of every non-blank line that
// didn't already end in an explicit ';' (spec.md §4.B: a logical line ends
// at ';' or newline, interchangeably).
func tokenizeDocument(text string, maxLineBytes int) ([]Token, error) {
	lines := strings.Split(text, "\n")
	var out []Token
	for i, raw := range lines {
		if len(raw) > maxLineBytes {
			return nil, &Error{Kind: ErrResource, Pos: Position{Line: i + 1, Column: 1}, Message: "line exceeds maximum length"}
		}
		lx := NewLexer(raw, i+1)
		toks, err := lx.Tokenize()
		if err != nil {
			return nil, err
		}
		toks = toks[:len(toks)-1] // drop per-line TokEOF sentinel
		if len(toks) == 0 {
			continue
		}
		out = append(out, toks...)
		if out[len(out)-1].Kind != TokSemi {
			out = append(out, Token{Kind: TokSemi, Pos: Position{Line: i + 1, Column: len(raw) + 1}})
		}
	}
	out = append(out, Token{Kind: TokEOF, Pos: Position{Line: len(lines) + 1, Column: 1}})
	return out, nil
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) advance() Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) skipSemis() {
	for p.peek().Kind == TokSemi {
		p.advance()
	}
}

func (p *Parser) pushDepth(openPos Position) error {
	p.depth++
	if p.depth > p.opts.MaxScopeDepth {
		return &Error{Kind: ErrResource, Pos: openPos, Message: "maximum nesting depth exceeded"}
	}
	return nil
}

func (p *Parser) popDepth() { p.depth-- }

// Parse parses the whole document into a Value (spec.md §4.B, document
// scope). The document scope starts undetermined: it becomes an array if
// rows are produced before any key-value pair is seen (the "implicit
// activation" form, spec.md glossary), or an object otherwise; with no
// content at all it is the empty object, matching "the root frame is an
// object-builder with no opener" (spec.md §3).
func (p *Parser) Parse() (Value, error) {
	var schema *Schema
	var elems []Value
	var fields []Field
	determined := 0 // 0=unset, 1=array, 2=object

	for {
		p.skipSemis()
		tok := p.peek()
		if tok.Kind == TokEOF {
			break
		}

		if tok.Kind == TokDirective {
			p.advance()
			if err := p.applyDirective(tok, &schema); err != nil {
				return Value{}, err
			}
			continue
		}
		if tok.Kind == TokSchemaSep {
			p.advance()
			schema = nil
			continue
		}

		if schema != nil {
			if determined == 2 {
				return Value{}, &Error{Kind: ErrSyntax, Pos: tok.Pos, Message: "row line not allowed at document scope after object fields were set"}
			}
			row, err := p.parseRow(schema)
			if err != nil {
				return Value{}, err
			}
			determined = 1
			elems = append(elems, row)
			continue
		}

		if determined == 1 {
			return Value{}, &Error{Kind: ErrSyntax, Pos: tok.Pos, Message: "key-value line not allowed at document scope after rows were produced"}
		}
		key, err := p.parseKey()
		if err != nil {
			return Value{}, err
		}
		val, err := p.parseValue(FieldDecl{})
		if err != nil {
			return Value{}, err
		}
		determined = 2
		fields = setField(fields, key, val)
		if err := p.expectEndOfLine(); err != nil {
			return Value{}, err
		}
	}

	switch determined {
	case 1:
		return Array(elems...), nil
	default:
		return Object(fields...), nil
	}
}

// expectEndOfLine requires the next token to be TokSemi or TokEOF, and
// consumes a TokSemi if present. It is the "no extra tokens" arity check
// for key-value lines.
func (p *Parser) expectEndOfLine() error {
	tok := p.peek()
	if tok.Kind == TokSemi {
		p.advance()
		return nil
	}
	if tok.Kind == TokEOF {
		return nil
	}
	return &Error{Kind: ErrSyntax, Pos: tok.Pos, Message: "unexpected extra token after value"}
}

func (p *Parser) parseKey() (string, error) {
	tok := p.advance()
	switch tok.Kind {
	case TokIdent, TokString:
		return tok.Text, nil
	default:
		return "", &Error{Kind: ErrSyntax, Pos: tok.Pos, Message: "expected field name, got " + tok.Kind.String()}
	}
}

func setField(fields []Field, name string, v Value) []Field {
	for i := range fields {
		if fields[i].Name == name {
			fields[i].Value = v
			return fields
		}
	}
	return append(fields, Field{Name: name, Value: v})
}

// applyDirective processes a schema directive against the active-schema
// slot of the enclosing scope (spec.md §4.B item 1).
func (p *Parser) applyDirective(tok Token, schemaSlot **Schema) error {
	switch tok.Text {
	case "def":
		name, fields, err := p.parseDefArgs(tok)
		if err != nil {
			return err
		}
		for _, f := range fields {
			if f.ElemType != "" && p.registry.Lookup(f.ElemType) == nil {
				return &Error{Kind: ErrSchema, Pos: tok.Pos, Message: "undefined nested schema " + f.ElemType + " referenced by " + name}
			}
		}
		s := &Schema{Name: name, Fields: fields}
		if err := p.registry.Define(s); err != nil {
			e := err.(*Error)
			e.Pos = tok.Pos
			return e
		}
		*schemaSlot = s
		return nil
	case "use":
		name := strings.TrimSpace(tok.DirArgs)
		s := p.registry.Lookup(name)
		if s == nil {
			return &Error{Kind: ErrSchema, Pos: tok.Pos, Message: "unknown schema " + name}
		}
		*schemaSlot = s
		return nil
	case "schemas":
		return nil // long-form marker; !def lines that follow register themselves
	default:
		return &Error{Kind: ErrDirective, Pos: tok.Pos, Message: "unknown directive !" + tok.Text}
	}
}

func (p *Parser) parseDefArgs(tok Token) (string, []FieldDecl, error) {
	fields := strings.Fields(tok.DirArgs)
	if len(fields) == 0 {
		return "", nil, &Error{Kind: ErrDirective, Pos: tok.Pos, Message: "!def requires a schema name"}
	}
	name := fields[0]
	decls := make([]FieldDecl, 0, len(fields)-1)
	for _, f := range fields[1:] {
		fd, err := parseFieldDecl(f)
		if err != nil {
			return "", nil, &Error{Kind: ErrDirective, Pos: tok.Pos, Message: err.Error()}
		}
		decls = append(decls, fd)
	}
	return name, decls, nil
}

// parseFieldDecl parses one !def field token: name, name:Type, name:[Type],
// or name:[] (spec.md §4.B).
func parseFieldDecl(tok string) (FieldDecl, error) {
	idx := strings.IndexByte(tok, ':')
	if idx < 0 {
		return FieldDecl{Name: tok}, nil
	}
	name, rest := tok[:idx], tok[idx+1:]
	if name == "" {
		return FieldDecl{}, &Error{Kind: ErrDirective, Message: "empty field name in " + tok}
	}
	if rest == "[]" {
		return FieldDecl{Name: name, List: true}, nil
	}
	if strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]") {
		elem := rest[1 : len(rest)-1]
		if elem == "" {
			return FieldDecl{Name: name, List: true}, nil
		}
		return FieldDecl{Name: name, List: true, ElemType: elem}, nil
	}
	if rest == "" {
		return FieldDecl{}, &Error{Kind: ErrDirective, Message: "empty type annotation in " + tok}
	}
	return FieldDecl{Name: name, ElemType: rest}, nil
}

// parseRow parses exactly len(schema.Fields) values (spec.md §3, "Row").
func (p *Parser) parseRow(schema *Schema) (Value, error) {
	fields := make([]Field, 0, len(schema.Fields))
	for _, fd := range schema.Fields {
		tok := p.peek()
		if tok.Kind == TokSemi || tok.Kind == TokEOF || tok.Kind == TokRBracket || tok.Kind == TokRBrace {
			return Value{}, &Error{Kind: ErrArity, Pos: tok.Pos, Message: "row for schema " + schema.Name + " supplies too few values: expected " + strconv.Itoa(len(schema.Fields))}
		}
		v, err := p.parseValue(fd)
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, Field{Name: fd.Name, Value: v})
	}
	tok := p.peek()
	if tok.Kind != TokSemi && tok.Kind != TokEOF && tok.Kind != TokRBracket && tok.Kind != TokRBrace {
		return Value{}, &Error{Kind: ErrArity, Pos: tok.Pos, Message: "row for schema " + schema.Name + " supplies too many values: expected " + strconv.Itoa(len(schema.Fields))}
	}
	return Object(fields...), nil
}

// parseValue parses one value, honoring hint (the enclosing schema field's
// type annotation, if any) when the value is a container.
func (p *Parser) parseValue(hint FieldDecl) (Value, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokString:
		p.advance()
		v := String(tok.Text)
		v.setPos(tok.Pos)
		return v, nil
	case TokIdent:
		p.advance()
		v := String(tok.Text)
		v.setPos(tok.Pos)
		return v, nil
	case TokNumber:
		p.advance()
		return p.numberValue(tok)
	case TokBool:
		p.advance()
		v := Bool(tok.IsBoolVal)
		v.setPos(tok.Pos)
		return v, nil
	case TokNull:
		p.advance()
		v := Null()
		v.setPos(tok.Pos)
		return v, nil
	case TokLBracket:
		return p.parseBracketValue(tok, hint)
	case TokLBrace:
		return p.parseBraceValue(tok, hint)
	default:
		return Value{}, &Error{Kind: ErrSyntax, Pos: tok.Pos, Message: "unexpected token " + tok.Kind.String()}
	}
}

func (p *Parser) numberValue(tok Token) (Value, error) {
	if strings.ContainsAny(tok.Text, ".eE") {
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return Value{}, &Error{Kind: ErrLexical, Pos: tok.Pos, Message: "invalid float literal " + tok.Text}
		}
		v := Float(f)
		v.setPos(tok.Pos)
		return v, nil
	}
	i, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return Value{}, &Error{Kind: ErrLexical, Pos: tok.Pos, Message: "invalid integer literal " + tok.Text}
	}
	v := Int(i)
	v.setPos(tok.Pos)
	return v, nil
}

func (p *Parser) parseBracketValue(open Token, hint FieldDecl) (Value, error) {
	p.advance() // consume '['
	if err := p.pushDepth(open.Pos); err != nil {
		return Value{}, err
	}
	defer p.popDepth()

	var rowSchema *Schema
	if hint.List && hint.ElemType != "" {
		rowSchema = p.registry.Lookup(hint.ElemType)
		if rowSchema == nil {
			return Value{}, &Error{Kind: ErrSchema, Pos: open.Pos, Message: "undefined schema " + hint.ElemType + " for array field"}
		}
	}
	return p.parseArrayBody(open, rowSchema)
}

// parseArrayBody parses the contents of '[' ... ']' (spec.md §4.B,
// InlineArray). schema, if non-nil, is pre-activated from a field's type
// annotation; otherwise the array starts schema-less and a '!use'/'!def' as
// the first token of an inner line may activate one (row objects mixed with
// bare values, per spec.md §4.B).
func (p *Parser) parseArrayBody(open Token, schema *Schema) (Value, error) {
	var elems []Value
	for {
		p.skipSemis()
		tok := p.peek()
		switch tok.Kind {
		case TokRBracket:
			p.advance()
			return Array(elems...), nil
		case TokEOF:
			return Value{}, &Error{Kind: ErrSyntax, Pos: open.Pos, Message: "unclosed '['"}
		case TokDirective:
			p.advance()
			if err := p.applyDirective(tok, &schema); err != nil {
				return Value{}, err
			}
			continue
		case TokSchemaSep:
			p.advance()
			schema = nil
			continue
		}

		if schema != nil {
			row, err := p.parseRow(schema)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, row)
			continue
		}

		for {
			v, err := p.parseValue(FieldDecl{})
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
			nt := p.peek()
			if nt.Kind == TokSemi {
				p.advance()
				break
			}
			if nt.Kind == TokRBracket || nt.Kind == TokEOF {
				break
			}
		}
	}
}

func (p *Parser) parseBraceValue(open Token, hint FieldDecl) (Value, error) {
	p.advance() // consume '{'
	if err := p.pushDepth(open.Pos); err != nil {
		return Value{}, err
	}
	defer p.popDepth()

	if hint.ElemType != "" && !hint.List {
		schema := p.registry.Lookup(hint.ElemType)
		if schema == nil {
			return Value{}, &Error{Kind: ErrSchema, Pos: open.Pos, Message: "undefined schema " + hint.ElemType + " for object field"}
		}
		return p.parseObjectRow(open, schema)
	}
	return p.parseFreeObjectBody(open)
}

// parseObjectRow parses '{' <N values> '}' for a field annotated with a
// nested schema (spec.md §4.B, InlineObject "with active nested schema").
func (p *Parser) parseObjectRow(open Token, schema *Schema) (Value, error) {
	p.skipSemis()
	row, err := p.parseRow(schema)
	if err != nil {
		return Value{}, err
	}
	p.skipSemis()
	tok := p.peek()
	if tok.Kind != TokRBrace {
		return Value{}, &Error{Kind: ErrSyntax, Pos: tok.Pos, Message: "expected '}' after " + schema.Name + " row"}
	}
	p.advance()
	return row, nil
}

// parseFreeObjectBody parses '{' ... '}' as key-value lines, one pair per
// logical line (spec.md §4.B, InlineObject "without active schema").
func (p *Parser) parseFreeObjectBody(open Token) (Value, error) {
	var fields []Field
	for {
		p.skipSemis()
		tok := p.peek()
		if tok.Kind == TokRBrace {
			p.advance()
			return Object(fields...), nil
		}
		if tok.Kind == TokEOF {
			return Value{}, &Error{Kind: ErrSyntax, Pos: open.Pos, Message: "unclosed '{'"}
		}
		key, err := p.parseKey()
		if err != nil {
			return Value{}, err
		}
		val, err := p.parseValue(FieldDecl{})
		if err != nil {
			return Value{}, err
		}
		fields = setField(fields, key, val)

		next := p.peek()
		if next.Kind == TokSemi {
			p.advance()
			continue
		}
		if next.Kind == TokRBrace {
			continue
		}
		return Value{}, &Error{Kind: ErrSyntax, Pos: next.Pos, Message: "unexpected extra token after value"}
	}
}
