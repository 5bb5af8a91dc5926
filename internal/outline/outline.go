// Package outline models the pre-content hierarchical plan for a notes
// document: an ordered mapping from section title to either a leaf
// description or a nested sub-outline.
package outline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ParseError indicates outline JSON that does not match the wire format
// (a UTF-8 JSON object whose values are strings or nested objects).
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "outline parse: " + e.Msg
}

// Node is one entry in the outline tree: either a leaf holding a section
// description, or a branch holding ordered children. Recursive walks
// dispatch on IsLeaf rather than on runtime types.
type Node struct {
	leaf     bool
	desc     string
	titles   []string
	children map[string]*Node
}

// Leaf creates a leaf node with a section description.
func Leaf(desc string) *Node {
	return &Node{leaf: true, desc: desc}
}

// Branch creates an empty branch node.
func Branch() *Node {
	return &Node{children: make(map[string]*Node)}
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return n.leaf }

// Description returns the leaf description ("" for branches).
func (n *Node) Description() string { return n.desc }

// Titles returns child titles in insertion order.
func (n *Node) Titles() []string { return n.titles }

// Child returns the child node for a title, or nil.
func (n *Node) Child(title string) *Node {
	if n.children == nil {
		return nil
	}
	return n.children[title]
}

// Add appends a child entry, preserving insertion order. Adding to a leaf
// converts it to a branch; a repeated title overwrites in place.
func (n *Node) Add(title string, child *Node) {
	if n.children == nil {
		n.children = make(map[string]*Node)
		n.leaf = false
	}
	if _, exists := n.children[title]; !exists {
		n.titles = append(n.titles, title)
	}
	n.children[title] = child
}

// Len returns the number of direct children.
func (n *Node) Len() int { return len(n.titles) }

// Walk visits every (title, node) entry beneath n in pre-order: each title
// first, then its subtree. path holds the ancestor titles of the current
// entry, so len(path) is the nesting depth. This single fold backs
// flattening, rendering and merging alike.
func (n *Node) Walk(visit func(path []string, title string, node *Node)) {
	n.walk(nil, visit)
}

func (n *Node) walk(path []string, visit func(path []string, title string, node *Node)) {
	for _, title := range n.titles {
		child := n.children[title]
		visit(path, title, child)
		if !child.IsLeaf() {
			// Each subtree gets its own path slice: append into a shared
			// backing array would let one sibling's walk clobber ancestor
			// titles seen by another, or by a visitor that retains path.
			childPath := append(append([]string(nil), path...), title)
			child.walk(childPath, visit)
		}
	}
}

// Flatten returns every title in the tree, depth-first pre-order.
func (n *Node) Flatten() []string {
	var titles []string
	n.Walk(func(_ []string, title string, _ *Node) {
		titles = append(titles, title)
	})
	return titles
}

// Parse decodes the outline wire format. The input must be a JSON object;
// values must be strings (leaf descriptions) or nested objects. Arrays are
// invalid at every level.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, &ParseError{Msg: fmt.Sprintf("expected object, got %v", tok)}
	}

	node, err := parseObject(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Msg: "trailing data after outline object"}
	}
	return node, nil
}

// parseObject consumes object members up to and including the closing
// brace, preserving key order.
func parseObject(dec *json.Decoder) (*Node, error) {
	node := Branch()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Msg: err.Error()}
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, &ParseError{Msg: fmt.Sprintf("expected string key, got %v", keyTok)}
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Msg: err.Error()}
		}
		switch v := valTok.(type) {
		case string:
			node.Add(key, Leaf(v))
		case json.Delim:
			if v != '{' {
				return nil, &ParseError{Msg: fmt.Sprintf("section %q: arrays are not valid in outlines", key)}
			}
			child, err := parseObject(dec)
			if err != nil {
				return nil, err
			}
			node.Add(key, child)
		default:
			return nil, &ParseError{Msg: fmt.Sprintf("section %q: value must be a string or object", key)}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	return node, nil
}
