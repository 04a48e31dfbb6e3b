/*
Package config loads stategraph run settings and state schemas from YAML or
JSON documents.

# Overview

A document has three sections:

	run:
	  graph_name: agentic-rag
	  max_steps: 50
	  concurrency: 4
	  log_level: debug
	  metrics: true
	  tracing: false
	  timeout: 30s

	state:
	  - name: messages
	    kind: sequence
	  - name: question
	  - name: score
	    kind: scalar
	    reducer: replace
	    default: "no"

	nodes:
	  retrieve:
	    top_k: 3

The run section maps onto stategraph run options through
stategraph.RunOptionsFromConfig, and the state section onto a schema
through stategraph.SchemaFromConfig. Node sections are free-form; read
them with Config.Node, which returns a Values accessor.

# Loading

	cfg, err := config.FromFile("graph.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

Documents are parsed into a generic map and then decoded with mapstructure.
Decoding is weakly typed ("50" is accepted for max_steps), durations accept
Go duration strings, and unknown keys are rejected so typos surface early.
Every loader validates the result before returning it.

# Values

Values wraps a map[string]any and returns defaults when a key is missing or
holds the wrong type:

	retrieve := cfg.Node("retrieve")
	topK := retrieve.Int("top_k", 4)
	timeout := retrieve.Duration("timeout", 10*time.Second)

The engine never reads the environment; callers decide where documents
come from.
*/
package config
