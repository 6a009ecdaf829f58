package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/combine/doc"
)

const fixture = `{
	"type": "object",
	"reduce": {"strategy": "merge"},
	"properties": {
		"key": {"type": "string"},
		"n":   {"type": "integer", "minimum": 0, "maximum": 10, "reduce": {"strategy": "sum"}},
		"v":   {"type": "array", "maxItems": 3, "items": {"type": "string"}, "reduce": {"strategy": "append"}}
	},
	"required": ["key"]
}`

func TestParseJSON(t *testing.T) {
	s, err := ParseJSON([]byte(fixture))
	require.NoError(t, err)

	assert.Equal(t, []string{"object"}, s.Type)
	assert.Equal(t, Merge, s.Strategy())
	assert.Equal(t, Append, s.Property("v").Strategy())
	assert.Equal(t, LastWriteWins, s.Property("key").Strategy())
	assert.Equal(t, []string{"string"}, s.Property("v").ItemSchema().Type)
	assert.Nil(t, s.Property("nope"))
	require.NotNil(t, s.Property("n").Maximum)
	assert.Equal(t, 10.0, *s.Property("n").Maximum)
}

func TestParseYAML(t *testing.T) {
	s, err := ParseYAML([]byte(`
type: object
reduce: {strategy: merge}
properties:
  key: {type: string}
  v:
    type: array
    reduce: {strategy: append}
required: [key]
`))
	require.NoError(t, err)
	assert.Equal(t, Merge, s.Strategy())
	assert.Equal(t, Append, s.Property("v").Strategy())
	assert.Equal(t, []string{"key"}, s.Required)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"unknown type", `{"type":"date"}`},
		{"unknown strategy", `{"properties":{"a":{"reduce":{"strategy":"multiply"}}}}`},
		{"bad properties", `{"properties":[]}`},
		{"bad reduce", `{"reduce":"append"}`},
		{"not an object", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.schema))
			var se *SchemaError
			assert.ErrorAs(t, err, &se)
		})
	}
}

func TestValidate(t *testing.T) {
	s := MustParseJSON(fixture)

	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"valid", `{"key":"a","n":3,"v":["x"]}`, true},
		{"missing key", `{"n":3}`, false},
		{"wrong type", `{"key":1}`, false},
		{"above maximum", `{"key":"a","n":11}`, false},
		{"below minimum", `{"key":"a","n":-1}`, false},
		{"too many items", `{"key":"a","v":["1","2","3","4"]}`, false},
		{"bad item", `{"key":"a","v":[1]}`, false},
		{"integral float is integer", `{"key":"a","n":2.0}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Standard{}.Validate(s, doc.MustParseJSON(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, out.Valid(), out.String())
		})
	}
}

func TestValidateNilSchema(t *testing.T) {
	out, err := Standard{}.Validate(nil, doc.Int(1))
	require.NoError(t, err)
	assert.True(t, out.Valid())
}

func TestValidateUncheckedSchema(t *testing.T) {
	s := &Schema{Properties: map[string]*Schema{"a": {Type: []string{"uuid"}}}}
	_, err := Standard{}.Validate(s, doc.Object())
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/a", se.Location)
}

func TestMarshalJSON(t *testing.T) {
	s := MustParseJSON(fixture)
	b, err := s.MarshalJSON()
	require.NoError(t, err)

	back, err := ParseJSON(b)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}
