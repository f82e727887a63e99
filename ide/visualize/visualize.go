// Package visualize renders a solved exploded supergraph (the edges
// PathEdgeRecorder collected) to graphviz dot, and optionally to an image
// format graphviz supports, for manual inspection of a run.
//
// It folds the teacher's utils/dot node/edge/attrs builder directly into
// this package rather than reviving it as its own shared package: this is
// the only client of that dot-building shape in this repository.
package visualize

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/goccy/go-graphviz"

	"github.com/cs-au-dk/ide-solver/ide"
)

// nodeID is how a (N, D) pair becomes a graphviz node ID:
// stable and unique enough to dedupe the same pair seen from multiple
// edges, but otherwise opaque past what Problem's ToString methods supply.
func nodeID(nodeStr, factStr string) string {
	return nodeStr + " | " + factStr
}

// attrs is a minimal stand-in for the teacher's dot.DotAttrs: an ordered-
// output map of graphviz attribute key/value pairs.
type attrs map[string]string

func (a attrs) String() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, a[k]))
	}
	return strings.Join(parts, " ")
}

type dotNode struct {
	ID    string
	Attrs attrs
}

type dotEdge struct {
	From, To string
	Attrs    attrs
	Color    string
}

type dotGraph struct {
	Title string
	Nodes []dotNode
	Edges []dotEdge
}

const dotTemplate = `digraph ExplodedSupergraph {
	label={{printf "%q" .Title}};
	labelloc="t";
	rankdir="LR";
	node [shape="box" style="filled" fontname="Consolas" fillcolor="honeydew"];
	{{range .Nodes}}
	{{printf "%q" .ID}} [{{.Attrs}}];
	{{- end}}
	{{range .Edges}}
	{{printf "%q -> %q" .From .To}} [color="{{.Color}}"];
	{{- end}}
}
`

func (g *dotGraph) writeDot(w io.Writer) error {
	t, err := template.New("dot").Parse(dotTemplate)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, g); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// Stringer is the subset of Problem's formatting capability visualize
// needs: turning a node and a fact into their display strings.
type Stringer[N, D any] interface {
	NodeToString(n N) string
	FactToString(d D) string
}

// Dot renders a PathEdgeRecorder's recorded intra- and inter-procedural
// edges as a graphviz dot document, intra-procedural edges in black and
// inter-procedural (call/return) edges in blue, the same color convention
// the teacher's goroutine-topology grapher uses to distinguish spawn edges
// from ordinary call edges.
func Dot[N, D, M any](problem Stringer[N, D], rec *ide.PathEdgeRecorder[N, D, M], w io.Writer) error {
	seen := map[string]bool{}
	g := &dotGraph{Title: "Exploded supergraph"}

	addNode := func(n N, d D) string {
		id := nodeID(problem.NodeToString(n), problem.FactToString(d))
		if !seen[id] {
			seen[id] = true
			g.Nodes = append(g.Nodes, dotNode{ID: id, Attrs: attrs{"label": id}})
		}
		return id
	}

	rec.Intra.ForEach(func(nSrc, nDst N, dSrc, dDst D) {
		from := addNode(nSrc, dSrc)
		to := addNode(nDst, dDst)
		g.Edges = append(g.Edges, dotEdge{From: from, To: to, Color: "black"})
	})
	rec.Inter.ForEach(func(nSrc, nDst N, dSrc, dDst D) {
		from := addNode(nSrc, dSrc)
		to := addNode(nDst, dDst)
		g.Edges = append(g.Edges, dotEdge{From: from, To: to, Color: "blue"})
	})

	return g.writeDot(w)
}

// Render converts a dot document (e.g. one Dot wrote out) to an image in
// the given graphviz format ("svg", "png", ...) and writes it to w. It uses
// go-graphviz's native renderer rather than shelling out to a `dot`
// executable.
func Render(dot []byte, format graphviz.Format, w io.Writer) error {
	g := graphviz.New()
	defer g.Close()

	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return err
	}
	defer graph.Close()

	return g.Render(graph, format, w)
}
