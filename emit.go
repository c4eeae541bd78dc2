package tauq

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Mode selects the emitter's output form (spec.md §4.D).
type Mode uint8

const (
	// ModePretty writes newline-and-indent output, one key-value or row
	// per line.
	ModePretty Mode = iota
	// ModeMinified writes ';'-separated records on a single physical line.
	ModeMinified
)

var reBareword = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-/@+:]*$`)

// Emit converts v to TQN text (the emit operation, spec.md §6). Emit is
// total: it never errors, since every Value is representable.
func Emit(v Value, mode Mode) string {
	e := &emitter{mode: mode, reg: NewRegistry()}
	e.discoverSchemas(v)
	e.emitTop(v)
	return e.sb.String()
}

// nestedType records the nested schema, if any, a row schema's field is
// declared against (spec.md §4.B "name:Type" / "name:[Type]").
type nestedType struct {
	schema  string
	isArray bool
}

// emitter walks a Value tree, synthesising schemas for uniform object
// arrays (spec.md §4.D) as it goes, grounded on glyph/emit.go's emitter
// struct + functional Emit entry point.
type emitter struct {
	sb   strings.Builder
	mode Mode
	reg  *Registry

	// sig -> schema name, for deduplication across the whole document
	// (spec.md §4.D "Schema deduplication").
	sigNames map[string]string
	// every schema discovered, keyed by name.
	schemasByName map[string]*rowSchema
	// schema name -> field name -> the nested schema that field is
	// declared against, for headless row emission (spec.md §4.B, §4.D).
	fieldTypes map[string]map[string]nestedType
	// discovery order: a schema's dependencies always precede it, so
	// writing !def lines in this order never references an undefined
	// nested schema.
	order []string
}

type rowSchema struct {
	name   string
	fields []string
}

// discoverSchemas walks the tree once, registering every row-block schema
// it finds (including nested ones) so schema names and field types are
// known before anything is written.
func (e *emitter) discoverSchemas(v Value) {
	if e.sigNames == nil {
		e.sigNames = make(map[string]string)
		e.schemasByName = make(map[string]*rowSchema)
		e.fieldTypes = make(map[string]map[string]nestedType)
	}
	switch v.Kind() {
	case KindArray:
		if rs, ok := detectRowBlock(v); ok {
			e.registerSchema(rs, v.Elems(), "T")
			return
		}
		for _, el := range v.Elems() {
			e.discoverSchemas(el)
		}
	case KindObject:
		for _, f := range v.Fields() {
			if f.Value.Kind() == KindArray {
				if rs, ok := detectRowBlock(f.Value); ok {
					e.registerSchema(rs, f.Value.Elems(), singularize(f.Name))
					continue
				}
			}
			e.discoverSchemas(f.Value)
		}
	}
}

// registerSchema assigns a stable name to rs (deduplicating by field-name
// signature) and, the first time that name is seen, works out which of its
// fields are themselves uniform enough to get a nested-schema reference,
// recursing so nested schemas are registered — and so appear in e.order —
// before the schema that references them.
func (e *emitter) registerSchema(rs *rowSchema, rows []Value, preferred string) *rowSchema {
	e.nameSchema(rs, preferred)
	if existing, ok := e.schemasByName[rs.name]; ok {
		return existing
	}
	e.schemasByName[rs.name] = rs

	ft := make(map[string]nestedType)
	for _, fname := range rs.fields {
		if info, ok := e.discoverFieldNestedType(fname, rows); ok {
			ft[fname] = info
		}
	}
	e.fieldTypes[rs.name] = ft
	e.order = append(e.order, rs.name)
	return rs
}

// discoverFieldNestedType decides whether every row's value at fname is
// uniform enough to declare a nested schema for that field: either every
// row holds an object with the same field names in the same order, or
// every row holds a uniform array of such objects. A singleton nested
// object is named directly from the field (it's already singular); a
// nested array of objects is named the way a top-level row-block field
// is, by singularizing the field name.
func (e *emitter) discoverFieldNestedType(fname string, rows []Value) (nestedType, bool) {
	if len(rows) == 0 {
		return nestedType{}, false
	}
	allObj, allArr := true, true
	for _, row := range rows {
		fv, ok := row.Get(fname)
		if !ok {
			return nestedType{}, false
		}
		if fv.Kind() != KindObject {
			allObj = false
		}
		if fv.Kind() != KindArray {
			allArr = false
		}
	}

	if allObj {
		first, _ := rows[0].Get(fname)
		names := fieldNames(first)
		if len(names) == 0 {
			return nestedType{}, false
		}
		objs := make([]Value, len(rows))
		for i, row := range rows {
			fv, _ := row.Get(fname)
			if !sameFieldNames(fieldNames(fv), names) {
				return nestedType{}, false
			}
			objs[i] = fv
		}
		sub := e.registerSchema(&rowSchema{fields: names}, objs, capitalize(fname))
		return nestedType{schema: sub.name}, true
	}

	if allArr {
		var sig []string
		var elems []Value
		for i, row := range rows {
			fv, _ := row.Get(fname)
			rs2, ok := detectRowBlock(fv)
			if !ok {
				return nestedType{}, false
			}
			if i == 0 {
				sig = rs2.fields
			} else if !sameFieldNames(rs2.fields, sig) {
				return nestedType{}, false
			}
			elems = append(elems, fv.Elems()...)
		}
		if len(elems) == 0 {
			return nestedType{}, false
		}
		sub := e.registerSchema(&rowSchema{fields: sig}, elems, singularize(fname))
		return nestedType{schema: sub.name, isArray: true}, true
	}

	return nestedType{}, false
}

func fieldNames(v Value) []string {
	fs := v.Fields()
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

func sameFieldNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// nameSchema assigns a stable name to a row-block signature, applying the
// collision-suffix rule (spec.md §4.D "Schema naming").
func (e *emitter) nameSchema(rs *rowSchema, preferred string) {
	sig := strings.Join(rs.fields, ",")
	if name, ok := e.sigNames[sig]; ok {
		rs.name = name
		return
	}
	name := preferred
	n := 2
	for {
		if existingSig, taken := e.nameToSig(name); !taken || existingSig == sig {
			break
		}
		name = preferred + strconv.Itoa(n)
		n++
	}
	e.sigNames[sig] = name
	rs.name = name
}

func (e *emitter) nameToSig(name string) (string, bool) {
	for sig, n := range e.sigNames {
		if n == name {
			return sig, true
		}
	}
	return "", false
}

// singularize derives a schema name from a plural field name (spec.md
// §4.D): drop a trailing "es" or "s", then capitalise the first letter.
func singularize(field string) string {
	s := field
	switch {
	case strings.HasSuffix(s, "es") && len(s) > 2:
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "s") && len(s) > 1:
		s = s[:len(s)-1]
	}
	if s == "" {
		return "T"
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// capitalize names a schema after a singleton (non-list) field: the field
// name itself, capitalized, with no pluralization heuristics applied.
func capitalize(field string) string {
	if field == "" {
		return "T"
	}
	r := []rune(field)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// detectRowBlock reports whether v qualifies as a row block: every element
// an object, all sharing the same field-name set in the same order, none
// varying in which positions hold nested containers (spec.md §4.D).
func detectRowBlock(v Value) (*rowSchema, bool) {
	elems := v.Elems()
	if len(elems) == 0 {
		return nil, false
	}
	for _, el := range elems {
		if el.Kind() != KindObject {
			return nil, false
		}
	}
	first := elems[0].Fields()
	names := make([]string, len(first))
	kinds := make([]Kind, len(first))
	for i, f := range first {
		names[i] = f.Name
		kinds[i] = f.Value.Kind()
	}
	for _, el := range elems[1:] {
		fs := el.Fields()
		if len(fs) != len(names) {
			return nil, false
		}
		for i, f := range fs {
			if f.Name != names[i] {
				return nil, false
			}
			if (f.Value.Kind() == KindArray || f.Value.Kind() == KindObject) != (kinds[i] == KindArray || kinds[i] == KindObject) {
				return nil, false
			}
		}
	}
	return &rowSchema{fields: names}, true
}

func (e *emitter) sep() string {
	if e.mode == ModeMinified {
		return "; "
	}
	return "\n"
}

// emitTop handles the document-level schema-block rule: every schema
// discovered anywhere in the tree is defined upfront, in dependency order,
// before the body (spec.md §4.D "Schema block").
func (e *emitter) emitTop(v Value) {
	if v.Kind() == KindArray {
		if rs, ok := detectRowBlock(v); ok {
			name := e.sigNames[strings.Join(rs.fields, ",")]
			full := e.schemasByName[name]
			e.writeAllDefs()
			for _, row := range v.Elems() {
				e.writeRow(full, row)
			}
			return
		}
	}
	if v.Kind() == KindObject {
		// The document root has no opener (spec.md §3): its fields are
		// written as bare key-value lines, never wrapped in '{' '}'.
		if len(e.order) > 0 {
			e.writeAllDefs()
			e.sb.WriteString("---")
			e.sb.WriteString(e.sep())
		}
		for _, f := range v.Fields() {
			e.emitScalar(String(f.Name))
			e.sb.WriteByte(' ')
			e.emitValue(f.Value, 0)
			e.sb.WriteString(e.sep())
		}
		return
	}
	e.emitValue(v, 0)
}

func (e *emitter) writeAllDefs() {
	for _, name := range e.order {
		e.writeDef(e.schemasByName[name])
	}
}

func (e *emitter) writeDef(rs *rowSchema) {
	e.sb.WriteString("!def ")
	e.sb.WriteString(rs.name)
	for _, fn := range rs.fields {
		e.sb.WriteByte(' ')
		e.sb.WriteString(e.fieldDeclText(rs.name, fn))
	}
	e.sb.WriteString(e.sep())
}

// fieldDeclText renders one !def field token: a bare name, or name:Type /
// name:[Type] when field has a registered nested schema (spec.md §4.B).
func (e *emitter) fieldDeclText(schemaName, field string) string {
	if nt, ok := e.fieldTypes[schemaName][field]; ok {
		if nt.isArray {
			return field + ":[" + nt.schema + "]"
		}
		return field + ":" + nt.schema
	}
	return field
}

func (e *emitter) writeRow(rs *rowSchema, row Value) {
	fields := row.Fields()
	for i, f := range fields {
		if i > 0 {
			e.sb.WriteByte(' ')
		}
		e.emitRowField(rs, f.Name, f.Value)
	}
	e.sb.WriteString(e.sep())
}

// emitRowField writes one field's value within a row. When rs declares a
// nested schema for this field, the value is written headless (values
// only, per parseObjectRow/the pre-activated array-schema path in
// parser.go); otherwise containers are written with explicit keys or as
// plain arrays, since nothing pre-activates a schema for them on reparse.
func (e *emitter) emitRowField(rs *rowSchema, name string, v Value) {
	var nt nestedType
	if rs != nil {
		nt = e.fieldTypes[rs.name][name]
	}
	switch v.Kind() {
	case KindObject:
		if nt.schema != "" && !nt.isArray {
			e.writeHeadlessObjectRow(nt.schema, v)
			return
		}
		e.emitKeyedRowObject(v)
	case KindArray:
		if nt.schema != "" && nt.isArray {
			e.writeHeadlessArrayRows(nt.schema, v)
			return
		}
		e.emitPlainInlineArray(v)
	default:
		e.emitScalar(v)
	}
}

// writeHeadlessObjectRow writes '{' <N values> '}' for a field declared
// name:SchemaName (spec.md §4.B, InlineObject "with active nested
// schema").
func (e *emitter) writeHeadlessObjectRow(schemaName string, row Value) {
	sub := e.schemasByName[schemaName]
	e.sb.WriteString("{ ")
	for i, f := range row.Fields() {
		if i > 0 {
			e.sb.WriteByte(' ')
		}
		e.emitRowField(sub, f.Name, f.Value)
	}
	e.sb.WriteString(" }")
}

// writeHeadlessArrayRows writes '[' <rows, one per line> ']' for a field
// declared name:[SchemaName]: the schema is pre-activated from the field's
// own declaration, so no inline '!use' is needed (spec.md §4.B).
func (e *emitter) writeHeadlessArrayRows(schemaName string, v Value) {
	sub := e.schemasByName[schemaName]
	e.sb.WriteString("[")
	e.sb.WriteString(e.sep())
	for _, row := range v.Elems() {
		e.writeRow(sub, row)
	}
	e.sb.WriteString("]")
}

// emitKeyedRowObject writes a headless-free object as explicit key-value
// pairs, for row fields with no declared nested schema.
func (e *emitter) emitKeyedRowObject(v Value) {
	fields := v.Fields()
	if len(fields) == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteString("{ ")
	for i, f := range fields {
		if i > 0 {
			e.sb.WriteString("; ")
		}
		e.emitScalar(String(f.Name))
		e.sb.WriteByte(' ')
		e.emitScalarOrInline(f.Value)
	}
	e.sb.WriteString(" }")
}

func (e *emitter) emitScalarOrInline(v Value) {
	switch v.Kind() {
	case KindArray:
		e.emitPlainInlineArray(v)
	case KindObject:
		e.emitKeyedRowObject(v)
	default:
		e.emitScalar(v)
	}
}

func (e *emitter) emitPlainInlineArray(v Value) {
	e.sb.WriteString("[ ")
	for i, el := range v.Elems() {
		if i > 0 {
			e.sb.WriteByte(' ')
		}
		e.emitScalarOrInline(el)
	}
	e.sb.WriteString(" ]")
}

// emitValue writes a value in free (non-row) position: key-value objects
// and plain or schema-backed arrays. By the time this runs every schema
// has already been defined up front (writeAllDefs), so a row-block array
// here always refers to its schema with a '!use' line as the first line
// inside its brackets.
func (e *emitter) emitValue(v Value, depth int) {
	switch v.Kind() {
	case KindArray:
		if rs, ok := detectRowBlock(v); ok {
			name := e.sigNames[strings.Join(rs.fields, ",")]
			full := e.schemasByName[name]
			e.sb.WriteString("[")
			e.sb.WriteString(e.sep())
			e.writeIndent(depth + 1)
			e.sb.WriteString("!use ")
			e.sb.WriteString(name)
			e.sb.WriteString(e.sep())
			for _, row := range v.Elems() {
				e.writeIndent(depth + 1)
				e.writeRow(full, row)
			}
			e.writeIndent(depth)
			e.sb.WriteString("]")
			return
		}
		e.emitPlainArray(v, depth)
	case KindObject:
		e.emitFreeObject(v, depth)
	default:
		e.emitScalar(v)
	}
}

func (e *emitter) emitPlainArray(v Value, depth int) {
	elems := v.Elems()
	if len(elems) == 0 {
		e.sb.WriteString("[]")
		return
	}
	e.sb.WriteString("[")
	if e.mode == ModePretty {
		e.sb.WriteString("\n")
	}
	for _, el := range elems {
		if e.mode == ModePretty {
			e.writeIndent(depth + 1)
		}
		e.emitScalarOrInline(el)
		if e.mode == ModeMinified {
			e.sb.WriteByte(' ')
		} else {
			e.sb.WriteString("\n")
		}
	}
	if e.mode == ModePretty {
		e.writeIndent(depth)
	}
	e.sb.WriteString("]")
}

func (e *emitter) emitFreeObject(v Value, depth int) {
	fields := v.Fields()
	if len(fields) == 0 {
		e.sb.WriteString("{}")
		return
	}
	e.sb.WriteString("{")
	if e.mode == ModePretty {
		e.sb.WriteString("\n")
	}
	for _, f := range fields {
		if e.mode == ModePretty {
			e.writeIndent(depth + 1)
		}
		e.emitScalar(String(f.Name))
		e.sb.WriteByte(' ')
		e.emitValue(f.Value, depth+1)
		if e.mode == ModeMinified {
			e.sb.WriteString("; ")
		} else {
			e.sb.WriteString("\n")
		}
	}
	if e.mode == ModePretty {
		e.writeIndent(depth)
	}
	e.sb.WriteString("}")
}

func (e *emitter) writeIndent(depth int) {
	if e.mode != ModePretty {
		return
	}
	for i := 0; i < depth; i++ {
		e.sb.WriteString("  ")
	}
}

func (e *emitter) emitScalar(v Value) {
	switch v.Kind() {
	case KindNull:
		e.sb.WriteString("null")
	case KindBool:
		b, _ := v.Bool()
		if b {
			e.sb.WriteString("true")
		} else {
			e.sb.WriteString("false")
		}
	case KindInt:
		i, _ := v.Int()
		e.sb.WriteString(strconv.FormatInt(i, 10))
	case KindFloat:
		f, _ := v.Float()
		e.sb.WriteString(formatFloat(f))
	case KindString:
		s, _ := v.Str()
		e.emitString(s)
	default:
		e.sb.WriteString("null")
	}
}

// formatFloat writes the shortest decimal that round-trips, matching
// glyph/emit.go's emitFloat.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if len(s) > 24 {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (e *emitter) emitString(s string) {
	if isBareword(s) {
		e.sb.WriteString(s)
		return
	}
	e.sb.WriteByte('"')
	e.sb.WriteString(escapeTauqString(s))
	e.sb.WriteByte('"')
}

// isBareword reports whether s can be emitted unquoted (spec.md §4.D
// "Scalar rendering").
func isBareword(s string) bool {
	if s == "" || s == "true" || s == "false" || s == "null" {
		return false
	}
	if !reBareword.MatchString(s) {
		return false
	}
	if reInteger.MatchString(s) || reFloat.MatchString(s) {
		return false
	}
	return true
}

func escapeTauqString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
