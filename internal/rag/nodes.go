package rag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/randalmurphal/stategraph/pkg/stategraph"
)

// State field names.
const (
	FieldMessages  = "messages"
	FieldQuestion  = "question"
	FieldDocuments = "documents"
	FieldScore     = "score"
	FieldRelevant  = "relevant"
	FieldError     = "error"
)

// Node names.
const (
	NodeCheckQuestion = "check_question"
	NodeRefuse        = "refuse"
	NodeAgent         = "agent"
	NodeRetrieve      = "retrieve"
	NodeGrade         = "grade"
	NodeRewrite       = "rewrite"
	NodeGenerate      = "generate"
)

// ToolRetrieve is the tool name the agent calls to request retrieval.
const ToolRetrieve = "retrieve_documents"

// gradeName tags grading messages so the agent can skip them.
const gradeName = "grade"

// Relevance is a binary grading outcome.
type Relevance string

// Relevance values.
const (
	Relevant   Relevance = "yes"
	Irrelevant Relevance = "no"
)

// NewSchema returns the workflow's state schema.
func NewSchema() (*stategraph.Schema, error) {
	return stategraph.NewSchema(
		stategraph.Sequence(FieldMessages),
		stategraph.Scalar(FieldQuestion),
		stategraph.Scalar(FieldDocuments),
		stategraph.Scalar(FieldScore),
		stategraph.Scalar(FieldRelevant),
		stategraph.Sequence(FieldError),
	)
}

// workflow holds the injected services the nodes close over.
type workflow struct {
	model     ChatModel
	grader    ChatModel
	retriever Retriever
	opts      options
}

// checkQuestion prefixes the default location when the question names
// none, then asks the grader whether the question is in scope.
func (w *workflow) checkQuestion(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
	question, _ := stategraph.Get[string](s, FieldQuestion)
	if question == "" {
		if first, ok := firstHuman(s); ok {
			question = first.Content
		}
	}
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("check question: state has no question")
	}

	if w.opts.location != "" && !strings.Contains(question, w.opts.location) {
		ctx.Logger().Debug("question names no location, using default", "location", w.opts.location)
		question = w.opts.location + " " + question
	}

	reply, err := w.grader.Complete(ctx, []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(questionPrompt, w.opts.topic)},
		{Role: RoleHuman, Content: question},
	})
	if err != nil {
		return nil, fmt.Errorf("check question relevance: %w", err)
	}

	update := stategraph.Update{
		FieldQuestion: question,
		FieldRelevant: string(binary(reply.Content)),
	}
	if msgs := stategraph.Items[Message](s, FieldMessages); len(msgs) == 0 {
		update[FieldMessages] = Message{Role: RoleHuman, Content: question}
	}
	return update, nil
}

// refuse answers out-of-scope questions.
func (w *workflow) refuse(_ stategraph.Context, _ stategraph.State) (stategraph.Update, error) {
	return stategraph.Update{
		FieldMessages: Message{Role: RoleAI, Content: w.opts.refusal},
	}, nil
}

// agent asks the model to answer or to call the retrieval tool.
// Grading messages are hidden from the model.
func (w *workflow) agent(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
	history := stategraph.Items[Message](s, FieldMessages)
	conversation := make([]Message, 0, len(history)+1)
	conversation = append(conversation, Message{Role: RoleSystem, Content: fmt.Sprintf(agentPrompt, ToolRetrieve)})
	for _, msg := range history {
		if msg.Name == gradeName {
			continue
		}
		conversation = append(conversation, msg)
	}

	reply, err := w.model.Complete(ctx, conversation)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	if reply.Role == "" {
		reply.Role = RoleAI
	}
	return stategraph.Update{FieldMessages: reply}, nil
}

// retrieve runs the agent's tool call against the retriever.
func (w *workflow) retrieve(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
	query, _ := stategraph.Get[string](s, FieldQuestion)
	if last, ok := stategraph.Last[Message](s, FieldMessages); ok {
		for _, call := range last.ToolCalls {
			if call.Name != ToolRetrieve {
				continue
			}
			if q, ok := call.Args["query"].(string); ok && q != "" {
				query = q
			}
		}
	}

	docs, err := w.retriever.Retrieve(ctx, query, w.opts.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve %q: %w", query, err)
	}
	ctx.Logger().Debug("retrieved documents", "query", query, "count", len(docs))

	return stategraph.Update{
		FieldDocuments: docs,
		FieldMessages:  Message{Role: RoleTool, Name: ToolRetrieve, Content: FormatDocuments(docs)},
	}, nil
}

// grade scores whether the retrieved documents answer the question.
func (w *workflow) grade(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
	question, _ := stategraph.Get[string](s, FieldQuestion)
	docs, _ := stategraph.Get[[]Document](s, FieldDocuments)

	score := Irrelevant
	if len(docs) == 0 {
		ctx.Logger().Debug("no documents to grade")
	} else {
		reply, err := w.grader.Complete(ctx, []Message{
			{Role: RoleSystem, Content: gradePrompt},
			{Role: RoleHuman, Content: fmt.Sprintf("Documents:\n%s\n\nQuestion: %s", FormatDocuments(docs), question)},
		})
		if err != nil {
			return nil, fmt.Errorf("grade documents: %w", err)
		}
		score = binary(reply.Content)
	}

	return stategraph.Update{
		FieldScore:    string(score),
		FieldMessages: Message{Role: RoleAI, Name: gradeName, Content: string(score)},
	}, nil
}

// rewrite asks the model for a clearer version of the question.
func (w *workflow) rewrite(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
	question, _ := stategraph.Get[string](s, FieldQuestion)

	reply, err := w.model.Complete(ctx, []Message{
		{Role: RoleSystem, Content: rewritePrompt},
		{Role: RoleHuman, Content: question},
	})
	if err != nil {
		return nil, fmt.Errorf("rewrite question: %w", err)
	}
	improved := strings.TrimSpace(reply.Content)
	if improved == "" {
		improved = question
	}

	return stategraph.Update{
		FieldQuestion: improved,
		FieldMessages: Message{Role: RoleHuman, Content: improved},
	}, nil
}

// generate answers the question from the most recent tool output.
func (w *workflow) generate(ctx stategraph.Context, s stategraph.State) (stategraph.Update, error) {
	question, _ := stategraph.Get[string](s, FieldQuestion)

	var toolOutput string
	found := false
	history := stategraph.Items[Message](s, FieldMessages)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleTool {
			toolOutput = history[i].Content
			found = true
			break
		}
	}
	if !found {
		return nil, errors.New("generate: no tool message in conversation history")
	}

	reply, err := w.model.Complete(ctx, []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(generatePrompt, toolOutput)},
		{Role: RoleHuman, Content: question},
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	reply.Role = RoleAI
	return stategraph.Update{FieldMessages: reply}, nil
}

// decideQuestion routes on the question check.
func decideQuestion(_ stategraph.Context, s stategraph.State) Relevance {
	if relevant, _ := stategraph.Get[string](s, FieldRelevant); relevant == string(Relevant) {
		return Relevant
	}
	return Irrelevant
}

// shouldRetrieve continues to retrieval when the agent called a tool and
// finishes otherwise.
func shouldRetrieve(ctx stategraph.Context, s stategraph.State) string {
	last, ok := stategraph.Last[Message](s, FieldMessages)
	if ok && len(last.ToolCalls) > 0 {
		return NodeRetrieve
	}
	ctx.Logger().Debug("agent answered without tools")
	return stategraph.END
}

// checkRelevance routes on the document grade.
func checkRelevance(_ stategraph.Context, s stategraph.State) Relevance {
	if score, _ := stategraph.Get[string](s, FieldScore); score == string(Relevant) {
		return Relevant
	}
	return Irrelevant
}

// binary normalizes a model's yes/no answer. Anything but yes is no.
func binary(answer string) Relevance {
	if strings.EqualFold(strings.Trim(strings.TrimSpace(answer), ".!\"'"), "yes") {
		return Relevant
	}
	return Irrelevant
}

func firstHuman(s stategraph.State) (Message, bool) {
	for _, msg := range stategraph.Items[Message](s, FieldMessages) {
		if msg.Role == RoleHuman {
			return msg, true
		}
	}
	return Message{}, false
}

// Answer returns the content of the last AI message that is not a grade.
func Answer(s stategraph.State) string {
	history := stategraph.Items[Message](s, FieldMessages)
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAI && history[i].Name != gradeName {
			return history[i].Content
		}
	}
	return ""
}

// FormatDocuments renders documents with their metadata for prompts.
// Well-known metadata keys (name, category, location, url) are shown first;
// remaining keys follow in sorted order.
func FormatDocuments(docs []Document) string {
	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		name := doc.Metadata["name"]
		if name == "" {
			name = fmt.Sprintf("Document %d", i+1)
		}
		lines := []string{fmt.Sprintf("%d. %s", i+1, name)}
		for _, key := range []string{"category", "location", "url"} {
			if v := doc.Metadata[key]; v != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", key, v))
			}
		}
		for _, key := range extraKeys(doc.Metadata) {
			lines = append(lines, fmt.Sprintf("%s: %s", key, doc.Metadata[key]))
		}
		if doc.Content != "" {
			lines = append(lines, "content:", doc.Content)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

var shownKeys = map[string]bool{"name": true, "category": true, "location": true, "url": true}

func extraKeys(meta map[string]string) []string {
	keys := make([]string, 0, len(meta))
	for k, v := range meta {
		if !shownKeys[k] && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
