// Package grammar loads tree-sitter node-type metadata and parsers for the
// languages the semantic strategy understands.
package grammar

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// TypeRef names a node kind referenced from a field or supertype
type TypeRef struct {
	Type  string `json:"type"`
	Named bool   `json:"named"`
}

// FieldInfo describes the kinds a field or the positional children may hold
type FieldInfo struct {
	Multiple bool      `json:"multiple"`
	Required bool      `json:"required"`
	Types    []TypeRef `json:"types"`
}

// TypeNames returns the kinds permitted in the field
func (f *FieldInfo) TypeNames() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		names = append(names, t.Type)
	}
	return names
}

// rawNode mirrors one entry of a node-types.json document
type rawNode struct {
	Type     string               `json:"type"`
	Named    bool                 `json:"named"`
	Extra    bool                 `json:"extra"`
	Subtypes []TypeRef            `json:"subtypes"`
	Fields   map[string]FieldInfo `json:"fields"`
	Children *FieldInfo           `json:"children"`
}

// NodeInfo is the grammar metadata for a single node kind
type NodeInfo struct {
	Kind       string
	Named      bool
	IsAbstract bool
	Subtypes   []string

	// AbstractCategories lists the supertypes this kind is a member of
	AbstractCategories []string

	Fields   map[string]FieldInfo
	Children *FieldInfo
	IsExtra  bool
}

// AbstractCategory returns the first supertype of the kind, or "".
func (n *NodeInfo) AbstractCategory() string {
	if len(n.AbstractCategories) == 0 {
		return ""
	}
	return n.AbstractCategories[0]
}

// FieldNames returns the declared field names in sorted order
func (n *NodeInfo) FieldNames() []string {
	names := make([]string, 0, len(n.Fields))
	for name := range n.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasField reports whether the kind declares the field
func (n *NodeInfo) HasField(name string) bool {
	_, ok := n.Fields[name]
	return ok
}

// NodeTypes is the parsed node-type metadata of one language keyed by kind
type NodeTypes struct {
	Language string
	nodes    map[string]*NodeInfo
	kinds    []string
}

// ParseNodeTypes builds NodeTypes from a node-types.json document
func ParseNodeTypes(language string, data []byte) (*NodeTypes, error) {
	var raw []rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode node types for %s: %w", language, err)
	}

	nt := &NodeTypes{
		Language: language,
		nodes:    make(map[string]*NodeInfo, len(raw)),
	}

	for _, r := range raw {
		if !r.Named || r.Type == "" {
			continue
		}
		info := &NodeInfo{
			Kind:       r.Type,
			Named:      r.Named,
			IsAbstract: len(r.Subtypes) > 0,
			Fields:     r.Fields,
			Children:   r.Children,
			IsExtra:    r.Extra,
		}
		if info.Fields == nil {
			info.Fields = map[string]FieldInfo{}
		}
		for _, s := range r.Subtypes {
			info.Subtypes = append(info.Subtypes, s.Type)
		}
		nt.nodes[r.Type] = info
	}

	// Invert supertype membership. Abstract kinds may nest (a supertype listed
	// as a subtype of another), and membership is recorded one level deep.
	supertypes := make([]string, 0)
	for kind, info := range nt.nodes {
		if info.IsAbstract {
			supertypes = append(supertypes, kind)
		}
	}
	sort.Strings(supertypes)
	for _, super := range supertypes {
		for _, sub := range nt.nodes[super].Subtypes {
			member, ok := nt.nodes[sub]
			if !ok {
				member = &NodeInfo{Kind: sub, Named: true, Fields: map[string]FieldInfo{}}
				nt.nodes[sub] = member
			}
			member.AbstractCategories = append(member.AbstractCategories, super)
		}
	}

	for kind := range nt.nodes {
		nt.kinds = append(nt.kinds, kind)
	}
	sort.Strings(nt.kinds)

	return nt, nil
}

// Lookup returns the metadata for a kind
func (nt *NodeTypes) Lookup(kind string) (*NodeInfo, bool) {
	info, ok := nt.nodes[kind]
	return info, ok
}

// Kinds returns every named kind in sorted order
func (nt *NodeTypes) Kinds() []string {
	return nt.kinds
}

// NormalizeSupertype strips the leading underscores tree-sitter uses for hidden rules
func NormalizeSupertype(name string) string {
	return strings.TrimLeft(name, "_")
}
