package tauq

import (
	"encoding/json"
	"strings"
)

// ToJSONInterface converts a Value to plain Go values that encoding/json can
// marshal: nil, bool, int64, float64, string and []any. Objects become an
// orderedMap so their field order survives the JSON round-trip (spec.md §3:
// "insertion order preserved on emit").
func ToJSONInterface(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.boolVal
	case KindInt:
		return v.intVal
	case KindFloat:
		return v.floatVal
	case KindString:
		return v.strVal
	case KindArray:
		out := make([]any, len(v.arrVal))
		for i, e := range v.arrVal {
			out[i] = ToJSONInterface(e)
		}
		return out
	case KindObject:
		om := orderedMap{keys: make([]string, 0, len(v.objVal)), values: make(map[string]any, len(v.objVal))}
		for _, f := range v.objVal {
			om.keys = append(om.keys, f.Name)
			om.values[f.Name] = ToJSONInterface(f.Value)
		}
		return om
	default:
		return nil
	}
}

// orderedMap implements json.Marshaler so Tauq's field insertion order
// survives marshaling, where a plain map[string]any would randomize it.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ToJSONText renders v as JSON text (the parse_to_json_text operation,
// spec.md §6).
func ToJSONText(v Value) (string, error) {
	b, err := json.Marshal(ToJSONInterface(v))
	if err != nil {
		return "", &Error{Kind: ErrIO, Message: "JSON encode: " + err.Error()}
	}
	return string(b), nil
}

// FromJSONText parses JSON text into a Value, preserving object field order
// and distinguishing integers from floats (spec.md §8 property 5) by
// decoding token-by-token rather than through map[string]any.
func FromJSONText(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, &Error{Kind: ErrIO, Message: "JSON decode: " + err.Error()}
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var elems []Value
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return Array(elems...), nil
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, _ := keyTok.(string)
				val, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Name: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return Object(fields...), nil
		}
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return Int(i), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	return Value{}, &Error{Kind: ErrIO, Message: "unsupported JSON token"}
}
