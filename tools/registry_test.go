package tools_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mcpagent/mocks/mocktools"
	"github.com/effective-security/mcpagent/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMockTool(ctrl *gomock.Controller, name, description string) *mocktools.MockITool {
	tool := mocktools.NewMockITool(ctrl)
	tool.EXPECT().Name().Return(name).AnyTimes()
	tool.EXPECT().Description().Return(description).AnyTimes()
	tool.EXPECT().Parameters().Return(map[string]any{"type": "object"}).AnyTimes()
	return tool
}

func Test_Registry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := tools.NewRegistry()
	assert.Equal(t, 0, reg.Len())

	tool1 := newMockTool(ctrl, "search", "Search the web.")
	tool2 := newMockTool(ctrl, "calculate", "Do math.")

	require.NoError(t, reg.Register(tool1, tool2))
	assert.Equal(t, 2, reg.Len())

	// registration order is preserved
	assert.Equal(t, []string{"search", "calculate"}, reg.Names())

	got, err := reg.Get("calculate")
	require.NoError(t, err)
	assert.Equal(t, "calculate", got.Name())

	list := reg.Tools()
	require.Len(t, list, 2)
	assert.Equal(t, "search", list[0].Name())
	assert.Equal(t, "calculate", list[1].Name())
}

func Test_Registry_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(newMockTool(ctrl, "search", "Search the web.")))

	err := reg.Register(newMockTool(ctrl, "search", "Another search."))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrDuplicateTool))
	assert.EqualError(t, err, "tool: search: tool with this name is already registered")

	// the registry still holds the original
	assert.Equal(t, 1, reg.Len())
	got, err := reg.Get("search")
	require.NoError(t, err)
	assert.Equal(t, "Search the web.", got.Description())
}

func Test_Registry_Unknown(t *testing.T) {
	reg := tools.NewRegistry()
	_, err := reg.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrUnknownTool))
	assert.EqualError(t, err, "tool: missing: tool not found")
}

func Test_Registry_Definitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(
		newMockTool(ctrl, "search", "Search the web."),
		newMockTool(ctrl, "calculate", "Do math."),
	))

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "search", defs[0].Function.Name)
	assert.Equal(t, "Search the web.", defs[0].Function.Description)
	assert.NotNil(t, defs[0].Function.Parameters)
	assert.Equal(t, "calculate", defs[1].Function.Name)
}

func Test_GetDescriptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	out := tools.GetDescriptions(newMockTool(ctrl, "search", "Search the web."))
	assert.Contains(t, out, `"Name": "search"`)
	assert.Contains(t, out, `"Description": "Search the web."`)
}
