package matcher

import (
	"testing"

	"github.com/abdul-hamid-achik/rester/packages/core/env"
	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(s))
	require.NoError(t, err)
	return v
}

func TestEquals(t *testing.T) {
	m := Equals(value.Int(200))

	assert.Equal(t, Result{Valid: true}, m.Validate(value.Int(200)))

	r := m.Validate(value.Int(404))
	assert.False(t, r.Valid)
	assert.Equal(t, "(404) is not equal to (200)", r.Reason)

	r = m.Validate(value.String("200"))
	assert.False(t, r.Valid, "no coercion between kinds")
}

func TestDoesNotEqual(t *testing.T) {
	m, err := New(value.String(".doesNotEqual(500)"))
	require.NoError(t, err)
	assert.Equal(t, KindDoesNotEqual, m.Kind())
	assert.Equal(t, value.Int(500), m.Expected())

	assert.True(t, m.Validate(value.Int(200)).Valid)
	assert.True(t, m.Validate(value.String("500")).Valid)

	r := m.Validate(value.Int(500))
	assert.False(t, r.Valid)
	assert.Equal(t, "(500) is equal to (500)", r.Reason)
}

func TestRegex(t *testing.T) {
	m, err := New(value.String(`.regex(\d+)`))
	require.NoError(t, err)
	assert.Equal(t, KindRegex, m.Kind())

	assert.True(t, m.Validate(value.Int(15698703)).Valid)
	assert.True(t, m.Validate(value.String("id-42")).Valid)

	r := m.Validate(value.String("abc"))
	assert.False(t, r.Valid)
	assert.Equal(t, `(abc) does not match (\d+)`, r.Reason)

	_, err = New(value.String(".regex([)"))
	assert.ErrorIs(t, err, errs.ErrDecoding)

	_, err = Regex("[")
	assert.ErrorIs(t, err, errs.ErrDecoding)
}

func TestFoldKeys(t *testing.T) {
	m := MustNew(value.Dict(value.DictionaryOf("Content-Type", ".regex(json)")))
	actual := value.Dict(value.DictionaryOf("content-type", "application/json"))

	assert.False(t, m.Validate(actual).Valid)
	assert.True(t, m.FoldKeys().Validate(actual).Valid)

	eq := Equals(value.Int(1))
	assert.Same(t, eq, eq.FoldKeys())
}

func TestContains_Dictionary(t *testing.T) {
	m := MustNew(value.Dict(value.DictionaryOf("foo", "bar")))
	assert.Equal(t, KindContains, m.Kind())

	assert.True(t, m.Validate(mustJSON(t, `{"foo":"bar","extra":"x"}`)).Valid, "extra keys are ignored")

	r := m.Validate(mustJSON(t, `{"other":1}`))
	assert.Equal(t, "key 'foo' not found", r.Reason)

	r = m.Validate(mustJSON(t, `{"foo":"baz"}`))
	assert.Equal(t, "key 'foo' validation error: (baz) is not equal to (bar)", r.Reason)
}

func TestContains_ShortCircuits(t *testing.T) {
	m := MustNew(value.Dict(value.DictionaryOf("a", 1, "b", 2)))

	r := m.Validate(mustJSON(t, `{"a":0,"b":0}`))
	assert.Equal(t, "key 'a' validation error: (0) is not equal to (1)", r.Reason)
}

func TestContains_Array(t *testing.T) {
	nested := Contains(Entry{Key: "0", Matcher: Contains(Entry{Key: "foo", Matcher: Equals(value.String("bar"))})})

	r := nested.Validate(mustJSON(t, `[{"nope":"-"}]`))
	assert.False(t, r.Valid)
	assert.Equal(t, "index '0' validation error: key 'foo' not found", r.Reason)

	r = nested.Validate(mustJSON(t, `[]`))
	assert.False(t, r.Valid)
	assert.Equal(t, "index '0' out of bounds", r.Reason)

	assert.True(t, nested.Validate(mustJSON(t, `[{"foo":"bar"}]`)).Valid)
}

func TestContains_NegativeIndex(t *testing.T) {
	m := MustNew(value.Dict(value.DictionaryOf("-1", 30)))
	assert.True(t, m.Validate(mustJSON(t, `[10,20,30]`)).Valid)

	r := MustNew(value.Dict(value.DictionaryOf("-4", 30))).Validate(mustJSON(t, `[10,20,30]`))
	assert.Equal(t, "index '-4' out of bounds", r.Reason)

	r = MustNew(value.Dict(value.DictionaryOf("first", 10))).Validate(mustJSON(t, `[10]`))
	assert.Equal(t, "index 'first' is not an integer", r.Reason)
}

func TestContains_TypeMismatch(t *testing.T) {
	m := MustNew(value.Dict(value.DictionaryOf("foo", "bar")))

	r := m.Validate(value.String("foo"))
	assert.False(t, r.Valid)
	assert.Contains(t, r.Reason, "expected a dictionary or an array")

	r = m.Validate(value.Null())
	assert.False(t, r.Valid)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		input value.Value
		kind  Kind
	}{
		{"int", value.Int(1), KindEquals},
		{"null", value.Null(), KindEquals},
		{"array", value.Array(value.Int(1)), KindEquals},
		{"plain string", value.String("hello"), KindEquals},
		{"regex", value.String(".regex(^a)"), KindRegex},
		{"does not equal", value.String(".doesNotEqual(x)"), KindDoesNotEqual},
		{"dictionary", value.Dict(value.DictionaryOf("a", 1)), KindContains},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, m.Kind())
		})
	}
}

func TestNew_NestedKeepsOrder(t *testing.T) {
	m := MustNew(value.Dict(value.DictionaryOf("z", 1, "a", map[string]any{"b": ".regex(x)"})))

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "z", entries[0].Key)
	assert.Equal(t, "a", entries[1].Key)
	assert.Equal(t, KindRegex, entries[1].Matcher.Entries()[0].Matcher.Kind())
	assert.Equal(t, "{z: 1, a: {b: .regex(x)}}", m.String())
}

type scope struct{ root value.Value }

func (s scope) Resolve(path value.KeyPath) (value.Value, error) {
	return s.root.Resolve(path)
}

func TestSubstitute(t *testing.T) {
	vars := scope{root: value.Dict(value.DictionaryOf("name", "widget", "id", 7))}
	r := env.NewResolver(nil)

	m := MustNew(value.Dict(value.DictionaryOf(
		"name", "${name}",
		"id", "${id}",
		"label", "item-${id}",
		"other", ".doesNotEqual(${name})",
	)))

	sub, err := m.Substitute(r, vars)
	require.NoError(t, err)

	actual := mustJSON(t, `{"name":"widget","id":7,"label":"item-7","other":"gadget"}`)
	assert.Equal(t, Result{Valid: true}, sub.Validate(actual))

	assert.False(t, m.Validate(actual).Valid, "the original matcher is unchanged")

	pattern, err := Regex("${id}")
	require.NoError(t, err)
	re, err := pattern.Substitute(r, vars)
	require.NoError(t, err)
	assert.Equal(t, "${id}", re.Pattern(), "regex patterns are not substituted")

	_, err = Equals(value.String("${missing}")).Substitute(r, vars)
	assert.ErrorIs(t, err, errs.ErrUndefinedVariable)
}

func TestValidateSchema(t *testing.T) {
	schema := []byte(`{
		"type": "object",
		"required": ["id"],
		"properties": {"id": {"type": "integer"}}
	}`)

	assert.True(t, ValidateSchema(schema, mustJSON(t, `{"id": 1}`)).Valid)

	r := ValidateSchema(schema, mustJSON(t, `{"id": "x"}`))
	assert.False(t, r.Valid)
	assert.Contains(t, r.Reason, "schema validation failed")

	r = ValidateSchema([]byte(`not a schema`), mustJSON(t, `{}`))
	assert.False(t, r.Valid)
}
