package tauq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundTripPretty asserts spec.md §8 property 1 for a representative
// table of values built from the value grammar.
func TestRoundTripPretty(t *testing.T) {
	for _, v := range roundTripSamples() {
		text := Emit(v, ModePretty)
		got, err := ParseToValue(text)
		require.NoError(t, err, "pretty emission:\n%s", text)
		assert.True(t, Equal(v, got), "pretty round-trip mismatch for %#v:\n%s", v, text)
	}
}

// TestRoundTripMinified asserts spec.md §8 property 2.
func TestRoundTripMinified(t *testing.T) {
	for _, v := range roundTripSamples() {
		text := Emit(v, ModeMinified)
		got, err := ParseToValue(text)
		require.NoError(t, err, "minified emission:\n%s", text)
		assert.True(t, Equal(v, got), "minified round-trip mismatch for %#v:\n%s", v, text)
	}
}

func roundTripSamples() []Value {
	return []Value{
		Object(),
		Object(Field{Name: "a", Value: Int(1)}, Field{Name: "b", Value: String("x")}),
		Object(
			Field{Name: "name", Value: String("Ann")},
			Field{Name: "tags", Value: Array(String("x"), String("5g"), Int(3))},
		),
		Array(
			Object(Field{Name: "id", Value: Int(1)}, Field{Name: "name", Value: String("Alice")}),
			Object(Field{Name: "id", Value: Int(2)}, Field{Name: "name", Value: String("Bob")}),
		),
		Object(
			Field{Name: "users", Value: Array(
				Object(Field{Name: "id", Value: Int(1)}, Field{Name: "role", Value: String("admin")}),
				Object(Field{Name: "id", Value: Int(2)}, Field{Name: "role", Value: String("user")}),
			)},
			Field{Name: "settings", Value: Object(Field{Name: "timeout", Value: Int(30)})},
		),
		Object(Field{Name: "pi", Value: Float(3.5)}, Field{Name: "ok", Value: Bool(true)}, Field{Name: "nil", Value: Null()}),
		// A row field that is itself a uniform object across every row:
		// should round-trip through a synthesized nested schema.
		Array(
			Object(
				Field{Name: "id", Value: Int(1)},
				Field{Name: "address", Value: Object(Field{Name: "street", Value: String("Elm")}, Field{Name: "city", Value: String("Springfield")})},
			),
			Object(
				Field{Name: "id", Value: Int(2)},
				Field{Name: "address", Value: Object(Field{Name: "street", Value: String("Oak")}, Field{Name: "city", Value: String("Shelbyville")})},
			),
		),
		// A row field that is itself a uniform array of objects across
		// every row: should round-trip through a nested array schema.
		Array(
			Object(
				Field{Name: "id", Value: Int(1)},
				Field{Name: "items", Value: Array(
					Object(Field{Name: "text", Value: String("a")}),
					Object(Field{Name: "text", Value: String("b")}),
				)},
			),
			Object(
				Field{Name: "id", Value: Int(2)},
				Field{Name: "items", Value: Array(
					Object(Field{Name: "text", Value: String("c")}),
				)},
			),
		),
		// A row field whose object shape varies between rows: no nested
		// schema applies, so it must round-trip as a keyed free object.
		Array(
			Object(Field{Name: "id", Value: Int(1)}, Field{Name: "meta", Value: Object(Field{Name: "a", Value: Int(1)})}),
			Object(Field{Name: "id", Value: Int(2)}, Field{Name: "meta", Value: Object(Field{Name: "b", Value: Int(2)})}),
		),
		// Two levels of uniform nesting: a nested schema whose own field
		// is itself a nested schema.
		Array(
			Object(
				Field{Name: "id", Value: Int(1)},
				Field{Name: "child", Value: Object(
					Field{Name: "name", Value: String("A")},
					Field{Name: "info", Value: Object(Field{Name: "x", Value: Int(1)})},
				)},
			),
			Object(
				Field{Name: "id", Value: Int(2)},
				Field{Name: "child", Value: Object(
					Field{Name: "name", Value: String("B")},
					Field{Name: "info", Value: Object(Field{Name: "x", Value: Int(2)})},
				)},
			),
		),
	}
}

// TestMinifyIdempotence asserts spec.md §8 property 3.
func TestMinifyIdempotence(t *testing.T) {
	text := "!def User id name role\n---\nusers [\n  !use User\n  1 Alice admin\n  2 Bob user\n]\nsettings { timeout 30 }\n"
	once, err := Minify(text)
	require.NoError(t, err)
	twice, err := Minify(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

// TestSemanticIdempotence asserts spec.md §8 property 4.
func TestSemanticIdempotence(t *testing.T) {
	text := "!def User id name\n1 Alice\n2 Bob\n"
	minified, err := Minify(text)
	require.NoError(t, err)

	want, err := ParseToValue(text)
	require.NoError(t, err)
	got, err := ParseToValue(minified)
	require.NoError(t, err)
	assert.True(t, Equal(want, got))
}

// TestScenarioS6MinifiedSchemaName asserts the parsing half of spec
// scenario S6: the minified input with single-letter schema name U parses
// to the same value as the multi-line S1 document.
func TestScenarioS6MinifiedSchemaName(t *testing.T) {
	v, err := ParseToValue("!def U id name; 1 Alice; 2 Bob")
	require.NoError(t, err)

	s1, err := ParseToValue("!def User id name\n1 Alice\n2 Bob\n")
	require.NoError(t, err)
	assert.True(t, Equal(s1, v))
}

func TestEmitTotalNeverErrors(t *testing.T) {
	for _, v := range roundTripSamples() {
		assert.NotPanics(t, func() { Emit(v, ModePretty) })
		assert.NotPanics(t, func() { Emit(v, ModeMinified) })
	}
}

// TestScenarioS3NestedRowFieldEmission asserts spec scenario S3: a row
// field that is uniformly an object across every row is declared with a
// nested-schema annotation and written headless, not as a bare field with
// a headless, keyless object that would be misread on reparse.
func TestScenarioS3NestedRowFieldEmission(t *testing.T) {
	v := Array(
		Object(Field{Name: "id", Value: Int(1)}, Field{Name: "address", Value: Object(
			Field{Name: "street", Value: String("Elm")}, Field{Name: "city", Value: String("Springfield")},
		)}),
		Object(Field{Name: "id", Value: Int(2)}, Field{Name: "address", Value: Object(
			Field{Name: "street", Value: String("Oak")}, Field{Name: "city", Value: String("Shelbyville")},
		)}),
	)
	text := Emit(v, ModePretty)
	assert.Contains(t, text, "address:Address")
	assert.Contains(t, text, "!def Address street city")

	defIdx := strings.Index(text, "!def Address")
	outerIdx := strings.Index(text, "!def T")
	require.True(t, defIdx >= 0 && outerIdx >= 0)
	assert.Less(t, defIdx, outerIdx, "nested schema must be defined before the schema that references it")

	got, err := ParseToValue(text)
	require.NoError(t, err)
	assert.True(t, Equal(v, got))
}

// TestNestedArrayRowFieldEmission asserts the array-field counterpart: a
// row field that is uniformly an array of objects gets a name:[Schema]
// declaration, not a comma-joined field list.
func TestNestedArrayRowFieldEmission(t *testing.T) {
	v := Array(
		Object(Field{Name: "id", Value: Int(1)}, Field{Name: "items", Value: Array(
			Object(Field{Name: "text", Value: String("a")}),
		)}),
		Object(Field{Name: "id", Value: Int(2)}, Field{Name: "items", Value: Array(
			Object(Field{Name: "text", Value: String("b")}),
			Object(Field{Name: "text", Value: String("c")}),
		)}),
	)
	text := Emit(v, ModePretty)
	assert.Contains(t, text, "items:[Item]")
	assert.NotContains(t, text, "items:[text]")

	got, err := ParseToValue(text)
	require.NoError(t, err)
	assert.True(t, Equal(v, got))
}

func TestSchemaNameSingularization(t *testing.T) {
	v := Object(Field{Name: "users", Value: Array(
		Object(Field{Name: "id", Value: Int(1)}),
		Object(Field{Name: "id", Value: Int(2)}),
	)})
	text := Emit(v, ModePretty)
	assert.Contains(t, text, "!def User id")
}
