package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/effective-security/mcpagent/schema"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SearchType string

const (
	Web   SearchType = "web"
	Image SearchType = "image"
)

type Search struct {
	Topic string     `json:"topic,omitempty" jsonschema:"title=Topic,description=Topic of the search"`
	Query string     `json:"query" jsonschema:"title=Query,description=Query to search for relevant content"`
	Type  SearchType `json:"type" jsonschema:"title=Type,description=Type of search,default=web,enum=web,enum=image"`
}

func Test_Schema(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(Search{}))
	require.NoError(t, err)
	require.NotNil(t, s.Parameters)

	params, ok := s.Parameters.(*jsonschema.Schema)
	require.True(t, ok)
	assert.Equal(t, "object", params.Type)
	assert.Equal(t, []string{"query", "type"}, params.Required)

	prop, ok := params.Properties.Get("query")
	require.True(t, ok)
	assert.Equal(t, "string", prop.Type)
	assert.Equal(t, "Query to search for relevant content", prop.Description)

	// the flattened parameters are self-contained, no $defs or $ref
	js, err := json.Marshal(params)
	require.NoError(t, err)
	assert.NotContains(t, string(js), "$ref")
	assert.NotContains(t, string(js), "$defs")

	// the String form is the indented parameters JSON
	assert.Contains(t, s.String(), `"query"`)
}

func Test_Schema_Cached(t *testing.T) {
	s1, err := schema.New(reflect.TypeOf(Search{}))
	require.NoError(t, err)
	s2, err := schema.New(reflect.TypeOf(Search{}))
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

type Inner struct {
	Value string `json:"value"`
}

type Outer struct {
	Name  string  `json:"name"`
	Inner Inner   `json:"inner"`
	List  []Inner `json:"list,omitempty"`
}

func Test_Schema_Nested(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(Outer{}))
	require.NoError(t, err)

	params, ok := s.Parameters.(*jsonschema.Schema)
	require.True(t, ok)

	inner, ok := params.Properties.Get("inner")
	require.True(t, ok)
	assert.Empty(t, inner.Ref)
	_, ok = inner.Properties.Get("value")
	assert.True(t, ok)

	list, ok := params.Properties.Get("list")
	require.True(t, ok)
	require.NotNil(t, list.Items)
	assert.Empty(t, list.Items.Ref)
}

func Test_Schema_NameFromRef(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(Search{}))
	require.NoError(t, err)
	assert.Contains(t, s.NameFromRef(), "Search@")
}
