package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedModel(t *testing.T) {
	m := NewScriptedModel(
		Message{Role: RoleAI, Content: "first"},
		Message{Role: RoleAI, Content: "second"},
	)
	ctx := context.Background()

	input := []Message{{Role: RoleHuman, Content: "hi"}}
	reply, err := m.Complete(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "first", reply.Content)
	assert.Equal(t, 1, m.Remaining())

	// Recorded conversations are copies.
	input[0].Content = "changed"
	assert.Equal(t, "hi", m.Calls()[0][0].Content)

	reply, err = m.Complete(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", reply.Content)

	_, err = m.Complete(ctx, nil)
	assert.ErrorIs(t, err, ErrScriptExhausted)
	assert.Len(t, m.Calls(), 3)
}

func TestScriptedModel_Cancelled(t *testing.T) {
	m := NewScriptedModel(Message{Content: "unused"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Complete(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, m.Remaining())
	assert.Empty(t, m.Calls())
}

func TestFuncAdapters(t *testing.T) {
	var model ChatModel = ModelFunc(func(_ context.Context, msgs []Message) (Message, error) {
		return Message{Content: msgs[0].Content + "!"}, nil
	})
	reply, err := model.Complete(context.Background(), []Message{{Content: "hey"}})
	require.NoError(t, err)
	assert.Equal(t, "hey!", reply.Content)

	var retriever Retriever = RetrieverFunc(func(_ context.Context, q string, k int) ([]Document, error) {
		return []Document{{ID: q}}, nil
	})
	docs, err := retriever.Retrieve(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, "q", docs[0].ID)
}
