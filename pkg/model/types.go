package model

import (
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// Entity is one node of the input document: a named thing with an optional
// description, an optional navigation URL, and an ordered list of children.
// Leaves simply omit (or carry an empty) children array.
type Entity struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Children    []*Entity `json:"children,omitempty"`
}

// Decode parses a JSON document into an Entity tree. Unknown fields are
// ignored so that annotated exports from other tools still load.
func Decode(data []byte) (*Entity, error) {
	var root Entity
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &root, nil
}

// Encode serializes an Entity tree back to indented JSON.
func Encode(root *Entity) ([]byte, error) {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Validate checks the tree for logical problems. Optional fields may be
// empty; a present URL must at least parse. Nil children entries are
// rejected because they would otherwise surface as blank diagram nodes.
func (e *Entity) Validate() error {
	if e == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("entity name cannot be empty")
	}
	if e.URL != "" {
		if _, err := url.Parse(e.URL); err != nil {
			return fmt.Errorf("entity %q: invalid url: %w", e.Name, err)
		}
	}
	for i, child := range e.Children {
		if child == nil {
			return fmt.Errorf("entity %q: child %d is null", e.Name, i)
		}
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone creates a deep copy of the entity tree.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Children != nil {
		clone.Children = make([]*Entity, len(e.Children))
		for i, child := range e.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return &clone
}

// Count returns the total number of entities in the tree, including e.
func (e *Entity) Count() int {
	if e == nil {
		return 0
	}
	n := 1
	for _, child := range e.Children {
		n += child.Count()
	}
	return n
}

// MaxDepth returns the depth of the deepest entity, with the root at 0.
func (e *Entity) MaxDepth() int {
	if e == nil {
		return -1
	}
	deepest := 0
	for _, child := range e.Children {
		if d := child.MaxDepth() + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// IsLeaf reports whether the entity has no children.
func (e *Entity) IsLeaf() bool {
	return len(e.Children) == 0
}
