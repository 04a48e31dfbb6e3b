// Package rag builds an agentic retrieval-augmented generation workflow on
// stategraph.
//
// The workflow checks that a question is in scope, lets an agent decide
// whether to retrieve documents, grades what was retrieved, and either
// generates an answer or rewrites the question and tries again:
//
//	START -> check_question -(yes)-> agent -(tool call)-> retrieve -> grade -(yes)-> generate -> END
//	                        -(no)--> refuse -> END      -(no tool)-> END      -(no)--> rewrite -> agent
//
// Language models and retrievers are injected through Deps; nothing in this
// package constructs a live client.
package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Role identifies who produced a message.
type Role string

// Message roles.
const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
)

// ToolCall is a model's request to run a tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Message is one entry in the conversation history.
type Message struct {
	Role    Role
	Content string
	// Name tags messages produced by a specific node or tool.
	Name      string
	ToolCalls []ToolCall
}

// Document is a retrieved passage.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
	// Score is the retrieval relevance in [0, 1].
	Score float64
}

// ChatModel completes a conversation.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (Message, error)
}

// ModelFunc adapts a function to ChatModel.
type ModelFunc func(ctx context.Context, messages []Message) (Message, error)

// Complete calls f.
func (f ModelFunc) Complete(ctx context.Context, messages []Message) (Message, error) {
	return f(ctx, messages)
}

// Retriever finds the k documents most relevant to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
}

// RetrieverFunc adapts a function to Retriever.
type RetrieverFunc func(ctx context.Context, query string, k int) ([]Document, error)

// Retrieve calls f.
func (f RetrieverFunc) Retrieve(ctx context.Context, query string, k int) ([]Document, error) {
	return f(ctx, query, k)
}

// ErrScriptExhausted is returned by ScriptedModel when no replies remain.
var ErrScriptExhausted = errors.New("scripted model: no replies left")

// ScriptedModel is a deterministic ChatModel that returns canned replies
// in order and records every conversation it was given. It is safe for
// concurrent use.
type ScriptedModel struct {
	mu      sync.Mutex
	replies []Message
	calls   [][]Message
}

// NewScriptedModel returns a model that replies with replies in order.
func NewScriptedModel(replies ...Message) *ScriptedModel {
	return &ScriptedModel{replies: replies}
}

// Complete returns the next scripted reply.
func (m *ScriptedModel) Complete(ctx context.Context, messages []Message) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]Message, len(messages))
	copy(recorded, messages)
	m.calls = append(m.calls, recorded)

	if len(m.replies) == 0 {
		return Message{}, fmt.Errorf("%w (call %d)", ErrScriptExhausted, len(m.calls))
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

// Calls returns the conversations received so far.
func (m *ScriptedModel) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// Remaining reports how many scripted replies are left.
func (m *ScriptedModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replies)
}
