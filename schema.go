package tauq

// FieldDecl is one field of a Schema (spec.md §3).
type FieldDecl struct {
	Name string

	// ElemType, if non-empty, names a nested schema: the field's value must
	// be an object of that schema (or, if List is true, an array of them).
	ElemType string

	// List marks the field as an array. If ElemType is empty the array
	// holds bare values; otherwise each element is an object of ElemType.
	List bool
}

// Schema is a named, ordered list of field declarations (spec.md §3).
type Schema struct {
	Name   string
	Fields []FieldDecl
}

// FieldIndex returns the index of the named field, or -1.
func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Registry maps schema names to Schemas for a single parse (spec.md §3,
// "Schema registry"). Its lifetime is exactly one parse or emit call; it is
// never a package-level singleton (spec.md §9).
type Registry struct {
	byName map[string]*Schema
	order  []string
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Schema)}
}

// Define registers a new schema. It is an error to redefine an existing
// name (spec.md §3, "schema names are unique within a parse").
func (r *Registry) Define(s *Schema) error {
	if _, exists := r.byName[s.Name]; exists {
		return &Error{Kind: ErrSchema, Message: "schema " + s.Name + " already defined"}
	}
	r.byName[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Lookup returns the named schema, or nil if undefined.
func (r *Registry) Lookup(name string) *Schema {
	return r.byName[name]
}

// Names returns registered schema names in definition order.
func (r *Registry) Names() []string {
	return r.order
}
