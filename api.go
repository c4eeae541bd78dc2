package tauq

// ParseToValue parses TQN text into a Value (the parse_to_value operation).
func ParseToValue(text string) (Value, error) {
	p, err := NewParser(text, DefaultParseOptions())
	if err != nil {
		return Value{}, err
	}
	return p.Parse()
}

// ParseToJSONText parses TQN text and renders it as JSON
// (parse_to_json_text).
func ParseToJSONText(text string) (string, error) {
	v, err := ParseToValue(text)
	if err != nil {
		return "", err
	}
	return ToJSONText(v)
}

// Validate parses text and discards the result, reusing exactly the same
// parser as ParseToValue so it detects exactly the same errors (spec.md
// §7's fix for "validate accepts malformed input").
func Validate(text string) error {
	_, err := ParseToValue(text)
	return err
}

// Minify parses TQN text and re-emits it in minified form. Minify fails
// only when the input does not parse (any error ParseToValue reports);
// emission itself is total.
func Minify(text string) (string, error) {
	v, err := ParseToValue(text)
	if err != nil {
		return "", err
	}
	return Emit(v, ModeMinified), nil
}
