package rag

import (
	"errors"

	"github.com/randalmurphal/stategraph/pkg/stategraph"
	"github.com/randalmurphal/stategraph/pkg/stategraph/config"
	"github.com/randalmurphal/stategraph/pkg/stategraph/retry"
)

// Deps are the services the workflow calls.
type Deps struct {
	// Model drives the agent, rewrite and generate steps. Required.
	Model ChatModel
	// Grader answers the yes/no checks. Defaults to Model.
	Grader ChatModel
	// Retriever serves the retrieval tool. Required.
	Retriever Retriever
}

type options struct {
	graphName   string
	location    string
	topic       string
	topK        int
	refusal     string
	rewriteNode bool
	retry       *retry.Config
}

func defaultOptions() options {
	return options{
		graphName:   "agentic-rag",
		topic:       "food and restaurant recommendations",
		topK:        4,
		refusal:     "Sorry, I can only answer questions about restaurant recommendations.",
		rewriteNode: true,
	}
}

// Option configures Build.
type Option func(*options)

// WithGraphName names the compiled graph.
func WithGraphName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.graphName = name
		}
	}
}

// WithLocation sets the location prefixed to questions that name none.
// Empty disables the prefix.
func WithLocation(location string) Option {
	return func(o *options) {
		o.location = location
	}
}

// WithTopic sets the subject questions must be about.
func WithTopic(topic string) Option {
	return func(o *options) {
		if topic != "" {
			o.topic = topic
		}
	}
}

// WithTopK sets how many documents a retrieval returns.
func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithRefusal sets the reply to out-of-scope questions.
func WithRefusal(text string) Option {
	return func(o *options) {
		if text != "" {
			o.refusal = text
		}
	}
}

// WithRewriteNode controls the rewrite step between a failed grade and the
// next agent turn. It is on by default; when disabled a failed grade goes
// straight back to the agent.
func WithRewriteNode(enabled bool) Option {
	return func(o *options) {
		o.rewriteNode = enabled
	}
}

// WithRetry retries service calls made by every node. Failures that are
// still transient after the last attempt are recorded in the error field
// instead of aborting the run.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) {
		o.retry = &cfg
	}
}

// OptionsFromConfig reads workflow options from a node settings section:
// location, topic, top_k, refusal and rewrite_node.
func OptionsFromConfig(v config.Values) []Option {
	d := defaultOptions()
	return []Option{
		WithLocation(v.String("location", "")),
		WithTopic(v.String("topic", d.topic)),
		WithTopK(v.Int("top_k", d.topK)),
		WithRefusal(v.String("refusal", d.refusal)),
		WithRewriteNode(v.Bool("rewrite_node", d.rewriteNode)),
	}
}

// Build assembles and compiles the workflow.
func Build(deps Deps, opts ...Option) (*stategraph.CompiledGraph, error) {
	if deps.Model == nil {
		return nil, errors.New("rag: model is required")
	}
	if deps.Retriever == nil {
		return nil, errors.New("rag: retriever is required")
	}
	if deps.Grader == nil {
		deps.Grader = deps.Model
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	schema, err := NewSchema()
	if err != nil {
		return nil, err
	}

	w := &workflow{model: deps.Model, grader: deps.Grader, retriever: deps.Retriever, opts: o}
	node := func(fn stategraph.NodeFunc) stategraph.NodeFunc {
		if o.retry == nil {
			return fn
		}
		return retry.Node(fn, *o.retry)
	}

	onIrrelevant := NodeAgent
	if o.rewriteNode {
		onIrrelevant = NodeRewrite
	}

	g := stategraph.NewGraph(schema).
		SetName(o.graphName).
		SetErrorField(FieldError).
		AddNode(NodeCheckQuestion, node(w.checkQuestion)).
		AddNode(NodeRefuse, w.refuse).
		AddNode(NodeAgent, node(w.agent)).
		AddNode(NodeRetrieve, node(w.retrieve)).
		AddNode(NodeGrade, node(w.grade)).
		AddNode(NodeGenerate, node(w.generate)).
		AddEdge(stategraph.START, NodeCheckQuestion).
		AddConditionalEdge(NodeCheckQuestion,
			stategraph.TypedRouter(decideQuestion),
			stategraph.RoutesOf(map[Relevance]string{Relevant: NodeAgent, Irrelevant: NodeRefuse})).
		AddEdge(NodeRefuse, stategraph.END).
		AddConditionalEdge(NodeAgent, shouldRetrieve, nil).
		AddEdge(NodeRetrieve, NodeGrade).
		AddConditionalEdge(NodeGrade,
			stategraph.TypedRouter(checkRelevance),
			stategraph.RoutesOf(map[Relevance]string{Relevant: NodeGenerate, Irrelevant: onIrrelevant})).
		AddEdge(NodeGenerate, stategraph.END).
		// A retrieval that keeps failing ends the run with the error recorded.
		SetFallback(NodeRetrieve, stategraph.END)

	if o.rewriteNode {
		g.AddNode(NodeRewrite, node(w.rewrite)).
			AddEdge(NodeRewrite, NodeAgent)
	}

	return g.Compile()
}

// Input builds the initial state overrides for a question.
func Input(question string) map[string]any {
	return map[string]any{FieldQuestion: question}
}
