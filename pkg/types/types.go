package types

import (
	"encoding/json"
)

// =============================================================================
// NODE CATALOG TYPES
// =============================================================================

// NodeDescriptor describes one type of workflow automation step.
//
// The JSON form follows the n8n node-type shape, where categories and
// aliases live under "codex". Descriptors are immutable once loaded into a
// catalog snapshot.
type NodeDescriptor struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	Description string         `json:"description"`
	Version     float64        `json:"version,omitempty"`
	Group       []string       `json:"group,omitempty"`
	Categories  []string       `json:"-"`
	Aliases     []string       `json:"-"`
	Properties  []NodeProperty `json:"properties,omitempty"`
}

// codex is the n8n metadata block carrying categories and aliases.
type codex struct {
	Categories    []string            `json:"categories,omitempty"`
	Subcategories map[string][]string `json:"subcategories,omitempty"`
	Alias         []string            `json:"alias,omitempty"`
}

type nodeDescriptorJSON struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	Description string         `json:"description"`
	Version     float64        `json:"version,omitempty"`
	Group       []string       `json:"group,omitempty"`
	Properties  []NodeProperty `json:"properties,omitempty"`
	Codex       *codex         `json:"codex,omitempty"`
}

// UnmarshalJSON decodes the n8n node-type shape.
func (n *NodeDescriptor) UnmarshalJSON(data []byte) error {
	var raw nodeDescriptorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = NodeDescriptor{
		Name:        raw.Name,
		DisplayName: raw.DisplayName,
		Description: raw.Description,
		Version:     raw.Version,
		Group:       raw.Group,
		Properties:  raw.Properties,
	}
	if raw.Codex != nil {
		n.Categories = raw.Codex.Categories
		n.Aliases = raw.Codex.Alias
	}
	return nil
}

// MarshalJSON encodes the descriptor back into the n8n node-type shape so
// cached catalogs stay readable by other n8n tooling.
func (n NodeDescriptor) MarshalJSON() ([]byte, error) {
	raw := nodeDescriptorJSON{
		Name:        n.Name,
		DisplayName: n.DisplayName,
		Description: n.Description,
		Version:     n.Version,
		Group:       n.Group,
		Properties:  n.Properties,
	}
	if len(n.Categories) > 0 || len(n.Aliases) > 0 {
		raw.Codex = &codex{Categories: n.Categories, Alias: n.Aliases}
	}
	return json.Marshal(raw)
}

// PropertyCount is the number of configurable parameters of the node.
func (n *NodeDescriptor) PropertyCount() int {
	return len(n.Properties)
}

// HasCategory reports whether the node is tagged with the given category.
func (n *NodeDescriptor) HasCategory(category string) bool {
	for _, c := range n.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// PropertyType enumerates the parameter kinds a node can expose
type PropertyType string

const (
	PropertyString          PropertyType = "string"
	PropertyNumber          PropertyType = "number"
	PropertyBoolean         PropertyType = "boolean"
	PropertyCollection      PropertyType = "collection"
	PropertyFixedCollection PropertyType = "fixedCollection"
	PropertyOptions         PropertyType = "options"
	PropertyMultiOptions    PropertyType = "multiOptions"
	PropertyDateTime        PropertyType = "dateTime"
	PropertyColor           PropertyType = "color"
	PropertyJSON            PropertyType = "json"
	PropertyNotice          PropertyType = "notice"
	PropertyHidden          PropertyType = "hidden"
)

// NodeProperty is one configurable parameter of a node type
type NodeProperty struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName,omitempty"`
	Type        PropertyType     `json:"type"`
	Required    bool             `json:"required,omitempty"`
	Default     PropertyValue    `json:"default,omitempty"`
	Description string           `json:"description,omitempty"`
	Options     []PropertyOption `json:"options,omitempty"`
}

// PropertyOption is a selectable value of an options/multiOptions property
type PropertyOption struct {
	Name        string        `json:"name"`
	Value       PropertyValue `json:"value"`
	Description string        `json:"description,omitempty"`
}

// =============================================================================
// RECOMMENDATION TYPES
// =============================================================================

// Complexity buckets a node by its number of configurable parameters.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Matches reports whether a node with propertyCount parameters falls into
// the bucket. Unknown or empty complexities match everything.
func (c Complexity) Matches(propertyCount int) bool {
	switch c {
	case ComplexitySimple:
		return propertyCount <= 3
	case ComplexityMedium:
		return propertyCount > 3 && propertyCount <= 8
	case ComplexityComplex:
		return propertyCount > 8
	default:
		return true
	}
}

// Valid reports whether c is one of the known buckets
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return true
	}
	return false
}

// RecommendationContext carries optional hints about the workflow being built
type RecommendationContext struct {
	CurrentNodes []string   `json:"currentNodes,omitempty"`
	WorkflowType string     `json:"workflowType,omitempty"`
	Industry     string     `json:"industry,omitempty"`
	UseCase      string     `json:"useCase,omitempty"`
	Complexity   Complexity `json:"complexity,omitempty"`
}

// Category labels which kind of evidence produced a recommendation
type Category string

const (
	CategoryExactMatch    Category = "exact_match"
	CategorySimilar       Category = "similar"
	CategoryComplementary Category = "complementary"
	CategoryPopular       Category = "popular"
)

// Recommendation is one ranked node suggestion
type Recommendation struct {
	Node          NodeDescriptor `json:"node"`
	Score         float64        `json:"score"`
	Reason        string         `json:"reason"`
	Category      Category       `json:"category"`
	UsageExamples []string       `json:"usageExamples,omitempty"`
}

// UsageCount pairs a node name with its global usage counter
type UsageCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
