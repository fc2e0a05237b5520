package env

import (
	"testing"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScope struct {
	root value.Value
}

func (s testScope) Resolve(path value.KeyPath) (value.Value, error) {
	return s.root.Resolve(path)
}

func scopeOf(pairs ...any) testScope {
	return testScope{root: value.Dict(value.DictionaryOf(pairs...))}
}

func TestSubstitute(t *testing.T) {
	first, err := value.FromJSON([]byte(`{"json":{"values":["a",42,"c"]}}`))
	require.NoError(t, err)

	scope := scopeOf("A", "x", "B", "y", "n", 3, "ratio", 0.25, "first", first, "list", []any{1, "two"})
	environment := Environment{"HOST": "localhost", "A": "from-env"}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no templates", "hello world", "hello world"},
		{"two variables", "${A}/${B}", "x/y"},
		{"repeated variable", "${A}/${A}", "x/x"},
		{"int", "page=${n}", "page=3"},
		{"double", "${ratio}", "0.25"},
		{"key path", "https://api/${first.json.values[1]}", "https://api/42"},
		{"legacy key path", "${first.json.values.1}", "42"},
		{"negative index", "${first.json.values[-1]}", "c"},
		{"whitespace inside span", "${ A }", "x"},
		{"scope wins over environment", "${A}", "x"},
		{"environment fallback", "http://${HOST}:8080", "http://localhost:8080"},
		{"array inlined as json", "${list}", `[1,"two"]`},
		{"dollar without braces", "$A costs $5", "$A costs $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Substitute(tt.input, scope, environment)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSubstitute_SinglePass(t *testing.T) {
	scope := scopeOf("A", "${B}", "B", "y")

	got, err := Substitute("${A}", scope, nil)
	require.NoError(t, err)
	assert.Equal(t, "${B}", got)
}

func TestSubstitute_Undefined(t *testing.T) {
	scope := scopeOf("A", "x", "list", []any{})

	tests := []struct {
		name     string
		input    string
		residual string
	}{
		{"missing name", "${A}/${missing}", "${missing}"},
		{"first residual is named", "${nope}/${other}", "${nope}"},
		{"empty array index", "${list[0]}", "${list[0]}"},
		{"path into scalar", "${A.b}", "${A.b}"},
		{"environment has no paths", "${HOME.dir}", "${HOME.dir}"},
		{"empty span", "${}", "${}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Substitute(tt.input, scope, Environment{"HOME": "/root"})
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrUndefinedVariable)
			assert.Contains(t, err.Error(), tt.residual)
		})
	}
}

func TestSubstitute_NilScope(t *testing.T) {
	got, err := Substitute("${USER}", nil, Environment{"USER": "rester"})
	require.NoError(t, err)
	assert.Equal(t, "rester", got)
}

func TestSubstituteValue(t *testing.T) {
	scope := scopeOf("id", 7, "name", "widget", "tags", []any{"a", "b"})
	r := NewResolver(nil)

	t.Run("exact span keeps kind", func(t *testing.T) {
		got, err := r.SubstituteValue(value.String("${id}"), scope)
		require.NoError(t, err)
		assert.Equal(t, value.Int(7), got)

		got, err = r.SubstituteValue(value.String("${tags}"), scope)
		require.NoError(t, err)
		assert.True(t, value.Equal(value.Array(value.String("a"), value.String("b")), got))
	})

	t.Run("embedded span yields string", func(t *testing.T) {
		got, err := r.SubstituteValue(value.String("item-${id}"), scope)
		require.NoError(t, err)
		assert.Equal(t, value.String("item-7"), got)
	})

	t.Run("nested containers keep order", func(t *testing.T) {
		input := value.Dict(value.DictionaryOf(
			"z", "${name}",
			"a", []any{"${id}", true},
			"m", map[string]any{"k": "x-${name}"},
		))
		got, err := r.SubstituteValue(input, scope)
		require.NoError(t, err)

		d, ok := got.AsDictionary()
		require.True(t, ok)
		assert.Equal(t, []string{"z", "a", "m"}, d.Keys())

		data, err := got.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `{"z":"widget","a":[7,true],"m":{"k":"x-widget"}}`, string(data))
	})

	t.Run("non strings untouched", func(t *testing.T) {
		got, err := r.SubstituteValue(value.Double(1.5), scope)
		require.NoError(t, err)
		assert.Equal(t, value.Double(1.5), got)
	})

	t.Run("undefined", func(t *testing.T) {
		_, err := r.SubstituteValue(value.Array(value.String("${nope}")), scope)
		assert.ErrorIs(t, err, errs.ErrUndefinedVariable)
	})
}

func TestResolverWarnFunc(t *testing.T) {
	var warnings []string
	r := NewResolver(nil)
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, format)
	})

	_, err := r.Substitute("${list[3]}", scopeOf("list", []any{1}))
	require.Error(t, err)
	assert.Len(t, warnings, 1)
}

func TestHasTemplates(t *testing.T) {
	assert.True(t, HasTemplates("a ${b} c"))
	assert.False(t, HasTemplates("a $b {c}"))
}

func TestEnvironment(t *testing.T) {
	e := FromPairs([]string{"A=1", "B=x=y", "broken", "=nokey"})
	assert.Equal(t, Environment{"A": "1", "B": "x=y"}, e)

	merged := e.WithDefaults(map[string]string{"A": "dotenv", "C": "3"})
	assert.Equal(t, Environment{"A": "1", "B": "x=y", "C": "3"}, merged)

	var empty Environment
	_, ok := empty.Lookup("A")
	assert.False(t, ok)
}
