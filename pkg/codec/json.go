package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	errs "github.com/matzehuels/nodecanvas/pkg/errors"
	"github.com/matzehuels/nodecanvas/pkg/graph"
)

// DocumentFormat identifies nodecanvas JSON documents in their metadata.
const DocumentFormat = "nodecanvas"

// SchemaVersion is the JSON document version written by this package.
const SchemaVersion = 1

type jsonDocument struct {
	Nodes    []graph.Node    `json:"nodes"`
	Edges    []graph.Edge    `json:"edges"`
	Viewport *graph.Viewport `json:"viewport,omitempty"`
	Metadata *jsonMetadata   `json:"metadata,omitempty"`
}

type jsonMetadata struct {
	Format  string       `json:"format"`
	Version int          `json:"version"`
	Nodes   int          `json:"nodeCount"`
	Edges   int          `json:"edgeCount"`
	Bounds  graph.Bounds `json:"bounds"`
}

func encodeJSON(d graph.Data, opts ExportOptions) ([]byte, error) {
	out := d.Clone()
	doc := jsonDocument{Nodes: out.Nodes, Edges: out.Edges, Viewport: &out.Viewport}
	if opts.IncludeMetadata {
		doc.Metadata = &jsonMetadata{
			Format:  DocumentFormat,
			Version: SchemaVersion,
			Nodes:   len(out.Nodes),
			Edges:   len(out.Edges),
			Bounds:  out.Bounds(),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeJSON validates the document shape on a generic decode before the
// typed decode, so shape errors name the offending element.
//
// The input must be an object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "a", "position": {"x": 0, "y": 0}}],
//	  "edges": [{"id": "e1", "from": "a", "to": "a"}],
//	  "viewport": {"x": 0, "y": 0, "zoom": 1}
//	}
func decodeJSON(b []byte, _ ImportOptions, _ *warnings) (graph.Data, bool, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return graph.Data{}, false, errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse json")
	}
	if err := checkJSONShape(raw); err != nil {
		return graph.Data{}, false, err
	}

	var doc jsonDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return graph.Data{}, false, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode json")
	}
	d := graph.Data{Nodes: doc.Nodes, Edges: doc.Edges, Viewport: graph.DefaultViewport()}
	if doc.Viewport != nil {
		d.Viewport = *doc.Viewport
	}
	return d, true, nil
}

func checkJSONShape(raw any) error {
	root, ok := raw.(map[string]any)
	if !ok {
		return errs.Validation("", -1, "", "", "document must be an object")
	}
	nodes, ok := root["nodes"].([]any)
	if !ok {
		return errs.Validation("nodes", -1, "", "", "nodes must be an array")
	}
	edges, ok := root["edges"].([]any)
	if !ok {
		return errs.Validation("edges", -1, "", "", "edges must be an array")
	}
	if vp, present := root["viewport"]; present && vp != nil {
		m, ok := vp.(map[string]any)
		if !ok {
			return errs.Validation("viewport", -1, "", "", "viewport must be an object")
		}
		for _, k := range []string{"x", "y", "zoom"} {
			if v, present := m[k]; present && !isNumber(v) {
				return errs.Validation("viewport", -1, "", k, "must be a number")
			}
		}
	}

	for i, v := range nodes {
		n, ok := v.(map[string]any)
		if !ok {
			return errs.Validation("nodes", i, "", "", "node must be an object")
		}
		id, ok := n["id"].(string)
		if !ok || id == "" {
			return errs.Validation("nodes", i, "", "id", "must be a non-empty string")
		}
		pos, ok := n["position"].(map[string]any)
		if !ok {
			return errs.Validation("nodes", i, id, "position", "missing position")
		}
		for _, k := range []string{"x", "y"} {
			if !isNumber(pos[k]) {
				return errs.Validation("nodes", i, id, "position."+k, "must be a number")
			}
		}
		if z, present := pos["z"]; present && z != nil && !isNumber(z) {
			return errs.Validation("nodes", i, id, "position.z", "must be a number")
		}
	}

	for i, v := range edges {
		e, ok := v.(map[string]any)
		if !ok {
			return errs.Validation("edges", i, "", "", "edge must be an object")
		}
		id, _ := e["id"].(string)
		for _, k := range []string{"id", "from", "to"} {
			if s, ok := e[k].(string); !ok || s == "" {
				return errs.Validation("edges", i, id, k, "must be a non-empty string")
			}
		}
	}
	return nil
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}
