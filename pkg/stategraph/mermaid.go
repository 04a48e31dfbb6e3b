package stategraph

import (
	"fmt"
	"strings"
)

// Mermaid renders the graph as a Mermaid flowchart.
//
// START and END are drawn as circles, fallbacks as dotted arrows and
// conditional edges with their route keys as labels. A conditional edge
// without a route map is drawn as a dotted arrow to a "?" placeholder
// because its destinations are only known at run time.
func (cg *CompiledGraph) Mermaid() string {
	ids := mermaidIDs(cg.nodeOrder)
	id := func(name string) string { return ids[name] }

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	fmt.Fprintf(&sb, "    %s((\"start\"))\n", id(START))
	for _, name := range cg.nodeOrder {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id(name), mermaidLabel(name))
	}
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", id(END))

	sources := append([]string{START}, cg.nodeOrder...)
	for _, from := range sources {
		if to, ok := cg.edges[from]; ok {
			fmt.Fprintf(&sb, "    %s --> %s\n", id(from), id(to))
		}

		if cond, ok := cg.conditionals[from]; ok {
			if cond.routes == nil {
				fmt.Fprintf(&sb, "    %s -.-> %s_router{\"?\"}\n", id(from), id(from))
			}
			for _, key := range cg.routeKeys(from) {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id(from), mermaidLabel(key), id(cond.routes[key]))
			}
		}

		if fallback, ok := cg.fallbacks[from]; ok {
			fmt.Fprintf(&sb, "    %s -. \"error\" .-> %s\n", id(from), id(fallback))
		}
	}

	return sb.String()
}

var mermaidReplacer = strings.NewReplacer(
	".", "_", "-", "_", "/", "_", "\\", "_",
	" ", "_", "\t", "_", "\n", "_", "\r", "_",
	"\"", "_", "[", "_", "]", "_", "(", "_", ")", "_", "{", "_", "}", "_",
)

// mermaidIDs assigns every node a distinct Mermaid identifier. Keywords get
// a "_node" suffix; names that sanitize to an identifier already taken get a
// numeric suffix in registration order.
func mermaidIDs(nodes []string) map[string]string {
	ids := map[string]string{START: "__start", END: "__end"}
	taken := map[string]bool{"__start": true, "__end": true}

	for _, name := range nodes {
		base := mermaidReplacer.Replace(name)
		switch strings.ToLower(base) {
		case "end", "graph", "subgraph", "class", "style", "click":
			base += "_node"
		}
		candidate := base
		for n := 2; taken[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		taken[candidate] = true
		ids[name] = candidate
	}
	return ids
}

// mermaidLabel makes text safe inside a quoted Mermaid label.
func mermaidLabel(text string) string {
	return strings.ReplaceAll(text, "\"", "#quot;")
}
