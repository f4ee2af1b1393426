package types

// =============================================================================
// WORKFLOW DOCUMENT TYPES
// =============================================================================

// Workflow is the subset of an n8n workflow document needed to derive usage
// statistics. Connections and settings are ignored.
type Workflow struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Active   bool           `json:"active,omitempty"`
	Nodes    []WorkflowNode `json:"nodes"`
	Tags     []string       `json:"tags,omitempty"`
	Category string         `json:"category,omitempty"`
}

// WorkflowNode is one placed node inside a workflow
type WorkflowNode struct {
	ID          string                   `json:"id,omitempty"`
	Name        string                   `json:"name"`
	Type        string                   `json:"type"`
	TypeVersion float64                  `json:"typeVersion,omitempty"`
	Parameters  map[string]PropertyValue `json:"parameters,omitempty"`
	Disabled    bool                     `json:"disabled,omitempty"`
}

// NodeTypes returns the distinct enabled node types of the workflow in
// first-appearance order.
func (w *Workflow) NodeTypes() []string {
	seen := make(map[string]bool, len(w.Nodes))
	var out []string
	for _, n := range w.Nodes {
		if n.Type == "" || n.Disabled || seen[n.Type] {
			continue
		}
		seen[n.Type] = true
		out = append(out, n.Type)
	}
	return out
}
