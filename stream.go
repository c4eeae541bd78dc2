package tauq

// RecordStream is a single-pass, non-restartable pull iterator over rows in
// a Tauq rows region (spec.md §4.C). StreamRecords tokenizes the whole
// input when the stream is opened, so the token buffer grows with the
// input; memory use is not constant in the input size. Rows themselves are
// built one at a time, as Next is called. Callers cancel by simply dropping
// the stream (spec.md §5) — there is no Close method.
type RecordStream struct {
	p           *Parser
	schema      *Schema
	insideArray bool
	err         error
	done        bool
}

// StreamRecords opens a record stream over text. An empty path streams the
// document-scope rows region (spec.md §3's "implicit activation" form, as
// in S1). A non-empty single-element path names a top-level object field
// whose value is an array of rows (as in S2's "users" field); deeper paths
// are not supported.
func StreamRecords(text string, path []string) (*RecordStream, error) {
	p, err := NewParser(text, DefaultParseOptions())
	if err != nil {
		return nil, err
	}
	rs := &RecordStream{p: p}
	if len(path) == 0 {
		return rs, nil
	}
	if len(path) > 1 {
		return nil, &Error{Kind: ErrSchema, Message: "streaming only supports a single top-level field path"}
	}
	target := path[0]
	for {
		p.skipSemis()
		tok := p.peek()
		if tok.Kind == TokEOF {
			return nil, &Error{Kind: ErrSchema, Message: "field path not found: " + target}
		}
		if tok.Kind == TokDirective {
			p.advance()
			var sink *Schema
			if err := p.applyDirective(tok, &sink); err != nil {
				return nil, err
			}
			continue
		}
		if tok.Kind == TokSchemaSep {
			p.advance()
			continue
		}
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		if key == target {
			lb := p.peek()
			if lb.Kind != TokLBracket {
				return nil, &Error{Kind: ErrSchema, Pos: lb.Pos, Message: "field " + key + " is not an array"}
			}
			p.advance()
			if err := p.pushDepth(lb.Pos); err != nil {
				return nil, err
			}
			rs.insideArray = true
			return rs, nil
		}
		if _, err := p.parseValue(FieldDecl{}); err != nil {
			return nil, err
		}
		if err := p.expectEndOfLine(); err != nil {
			return nil, err
		}
	}
}

// Next produces the next record, or (zero, false) when the stream is
// exhausted or has failed; check Err to distinguish the two. After a
// failure the sequence is terminated (spec.md §4.C).
func (rs *RecordStream) Next() (Value, bool) {
	if rs.done {
		return Value{}, false
	}
	for {
		rs.p.skipSemis()
		tok := rs.p.peek()
		switch tok.Kind {
		case TokEOF:
			rs.done = true
			return Value{}, false
		case TokRBracket:
			if !rs.insideArray {
				rs.err = &Error{Kind: ErrSyntax, Pos: tok.Pos, Message: "unexpected ']' in document-scope row stream"}
				rs.done = true
				return Value{}, false
			}
			rs.p.advance()
			rs.p.popDepth()
			rs.done = true
			return Value{}, false
		case TokDirective:
			rs.p.advance()
			if err := rs.p.applyDirective(tok, &rs.schema); err != nil {
				rs.err = err
				rs.done = true
				return Value{}, false
			}
			continue
		case TokSchemaSep:
			rs.p.advance()
			rs.schema = nil
			continue
		default:
			if rs.schema == nil {
				rs.err = &Error{Kind: ErrSchema, Pos: tok.Pos, Message: "no active schema for row"}
				rs.done = true
				return Value{}, false
			}
			row, err := rs.p.parseRow(rs.schema)
			if err != nil {
				rs.err = err
				rs.done = true
				return Value{}, false
			}
			return row, true
		}
	}
}

// Err returns the terminal error, if the stream ended due to a failure.
func (rs *RecordStream) Err() error { return rs.err }
