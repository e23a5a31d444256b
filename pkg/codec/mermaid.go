package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// Node shapes by kind; text is the default.
var mermaidShapes = map[graph.Kind][2]string{
	graph.KindFile: {"{{", "}}"},
	graph.KindLink: {"(", ")"},
}

func encodeMermaid(d graph.Data, _ ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("graph TD\n")

	ids := mermaidIDs(d.Nodes)
	ref := func(id string) string {
		if m, ok := ids[id]; ok {
			return m
		}
		return mermaidID(id)
	}

	for i := range d.Nodes {
		n := &d.Nodes[i]
		open, closing := "[", "]"
		if s, ok := mermaidShapes[n.Kind]; ok {
			open, closing = s[0], s[1]
		}
		fmt.Fprintf(&buf, "    %s%s%s%s\n", ref(n.ID), open, mermaidText(n.Label()), closing)
	}
	for i := range d.Edges {
		e := &d.Edges[i]
		link := "---"
		if e.Arrow {
			link = "-->"
		}
		if e.Label != "" {
			link += "|" + mermaidText(e.Label) + "|"
		}
		fmt.Fprintf(&buf, "    %s %s %s\n", ref(e.From), link, ref(e.To))
	}
	for i := range d.Nodes {
		n := &d.Nodes[i]
		var parts []string
		if n.Style.BackgroundColor != "" {
			parts = append(parts, "fill:"+cssColor(n.Style.BackgroundColor, "#ffffff"))
		}
		if n.Style.Color != "" {
			parts = append(parts, "color:"+cssColor(n.Style.Color, "#000000"))
		}
		if n.Style.BorderColor != "" {
			parts = append(parts, "stroke:"+cssColor(n.Style.BorderColor, "#000000"))
		}
		if len(parts) > 0 {
			fmt.Fprintf(&buf, "    style %s %s\n", ref(n.ID), strings.Join(parts, ","))
		}
	}
	return buf.Bytes(), nil
}

var mermaidIDReplacer = regexp.MustCompile(`[^A-Za-z0-9_]`)

// mermaidID maps an id to the identifier charset the reader accepts.
func mermaidID(id string) string {
	return mermaidIDReplacer.ReplaceAllString(id, "_")
}

// mermaidIDs assigns every node a distinct identifier. Ids that map to
// the same identifier get a numeric suffix in node order.
func mermaidIDs(nodes []graph.Node) map[string]string {
	ids := make(map[string]string, len(nodes))
	used := make(map[string]bool, len(nodes))
	for i := range nodes {
		id := nodes[i].ID
		if _, ok := ids[id]; ok {
			continue
		}
		base := mermaidID(id)
		m := base
		for n := 2; used[m]; n++ {
			m = fmt.Sprintf("%s_%d", base, n)
		}
		used[m] = true
		ids[id] = m
	}
	return ids
}

// mermaidText quotes labels that contain shape delimiters.
func mermaidText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if !strings.ContainsAny(s, `[]{}()|"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}

const (
	mermaidRef   = `([A-Za-z0-9_]+(?:[.-][A-Za-z0-9_]+)*)\s*(\{\{.*?\}\}|\[.*?\]|\(.*?\))?`
	mermaidLinks = `(-->|---|--)`
)

var (
	mermaidHeaderRe = regexp.MustCompile(`^(graph|flowchart)(\s+\w+)?\s*;?$`)
	mermaidKeyword  = regexp.MustCompile(`^(subgraph|end|classDef|class|click|linkStyle|direction)\b`)
	mermaidStyleRe  = regexp.MustCompile(`^style\s+(\S+)\s+(.+?)\s*;?$`)
	mermaidEdgeRe   = regexp.MustCompile(`^` + mermaidRef + `\s*` + mermaidLinks + `\s*(?:\|([^|]*)\|)?\s*` + mermaidRef + `\s*;?$`)
	mermaidNodeRe   = regexp.MustCompile(`^` + mermaidRef + `\s*;?$`)
)

// decodeMermaid reads node declarations, edges and style lines; every other
// line is ignored. Nodes only named by edges are declared with their id as
// text.
func decodeMermaid(b []byte, opts ImportOptions, w *warnings) (graph.Data, bool, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	d := graph.New()
	index := make(map[string]int)
	declare := func(id, shape string) {
		kind, text := parseShape(shape)
		if i, ok := index[id]; ok {
			if shape != "" {
				d.Nodes[i].Kind, d.Nodes[i].Text = kind, text
			}
			return
		}
		if text == "" {
			text = id
		}
		index[id] = len(d.Nodes)
		d.Nodes = append(d.Nodes, graph.Node{
			ID:   id,
			Kind: kind,
			Text: text,
			Position: graph.Vec{
				X: 50 + rng.Float64()*(graph.CanvasWidth-100),
				Y: 50 + rng.Float64()*(graph.CanvasHeight-100),
			},
			Size: graph.Size{Width: graph.DefaultNodeWidth, Height: graph.DefaultNodeHeight},
		})
	}

	var styles [][2]string
	sc := bufio.NewScanner(bytes.NewReader(b))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", strings.HasPrefix(line, "%%"), mermaidHeaderRe.MatchString(line):
		case mermaidKeyword.MatchString(line):
			w.add("line %d ignored: unsupported statement %q", lineNo, line)
		case mermaidStyleRe.MatchString(line):
			m := mermaidStyleRe.FindStringSubmatch(line)
			styles = append(styles, [2]string{m[1], m[2]})
		case mermaidEdgeRe.MatchString(line):
			m := mermaidEdgeRe.FindStringSubmatch(line)
			declare(m[1], m[2])
			declare(m[5], m[6])
			d.Edges = append(d.Edges, graph.Edge{
				ID:    fmt.Sprintf("e%d", len(d.Edges)+1),
				From:  m[1],
				To:    m[5],
				Arrow: m[3] == "-->",
				Label: unquote(m[4]),
			})
		case mermaidNodeRe.MatchString(line):
			m := mermaidNodeRe.FindStringSubmatch(line)
			declare(m[1], m[2])
		default:
			w.add("line %d ignored: %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return graph.Data{}, false, fmt.Errorf("read mermaid: %w", err)
	}

	for _, s := range styles {
		i, ok := index[s[0]]
		if !ok {
			w.add("style for unknown node %q ignored", s[0])
			continue
		}
		applyMermaidStyle(&d.Nodes[i].Style, s[1])
	}
	return d, false, nil
}

func parseShape(shape string) (graph.Kind, string) {
	switch {
	case strings.HasPrefix(shape, "{{"):
		return graph.KindFile, unquote(shape[2 : len(shape)-2])
	case strings.HasPrefix(shape, "("):
		return graph.KindLink, unquote(shape[1 : len(shape)-1])
	case strings.HasPrefix(shape, "["):
		return graph.KindText, unquote(shape[1 : len(shape)-1])
	}
	return graph.KindText, ""
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "#quot;", `"`)
}

func applyMermaidStyle(st *graph.NodeStyle, spec string) {
	for _, kv := range strings.Split(spec, ",") {
		k, v, ok := strings.Cut(kv, ":")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "fill":
			st.BackgroundColor = v
		case "color":
			st.Color = v
		case "stroke":
			st.BorderColor = v
		}
	}
}
