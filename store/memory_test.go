package store_test

import (
	"context"
	"testing"

	"github.com/effective-security/mcpagent/chatmodel"
	"github.com/effective-security/mcpagent/pkg/llms"
	"github.com/effective-security/mcpagent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryStore(t *testing.T) {
	st := store.NewMemoryStore()

	msg1 := llms.MessageFromTextParts(llms.RoleHuman, "Hello")
	msg2 := llms.MessageFromTextParts(llms.RoleAI, "Hi there!")

	ctx := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext("chat1"))
	assert.Empty(t, st.Messages(ctx))

	require.NoError(t, st.Add(ctx, msg1))
	require.NoError(t, st.Add(ctx, msg2))

	messages := st.Messages(ctx)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hello\n", messages[0].GetContent())
	assert.Equal(t, "Hi there!\n", messages[1].GetContent())

	// another chat has its own history
	ctx2 := chatmodel.WithChatContext(context.Background(), chatmodel.NewChatContext("chat2"))
	assert.Empty(t, st.Messages(ctx2))
	require.NoError(t, st.Add(ctx2, msg1))
	assert.Len(t, st.Messages(ctx2), 1)
	assert.Len(t, st.Messages(ctx), 2)

	require.NoError(t, st.Reset(ctx))
	assert.Empty(t, st.Messages(ctx))
	assert.Len(t, st.Messages(ctx2), 1)
}

func Test_MemoryStore_NoChatContext(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	// without a chat context, messages go to the empty key
	assert.Empty(t, st.Messages(ctx))
	require.NoError(t, st.Add(ctx, llms.MessageFromTextParts(llms.RoleHuman, "Hello")))
	assert.Len(t, st.Messages(ctx), 1)
	require.NoError(t, st.Reset(ctx))
	assert.Empty(t, st.Messages(ctx))
}
