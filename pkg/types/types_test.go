package types

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// NODE DESCRIPTOR TESTS
// =============================================================================

const httpRequestJSON = `{
	"name": "HttpRequest",
	"displayName": "HTTP Request",
	"description": "Makes an HTTP request and returns the response data",
	"version": 3,
	"group": ["output"],
	"properties": [
		{"name": "url", "type": "string", "required": true, "default": ""},
		{"name": "method", "type": "options", "default": "GET",
		 "options": [{"name": "GET", "value": "GET"}, {"name": "POST", "value": "POST"}]},
		{"name": "timeout", "type": "number", "default": 10000},
		{"name": "sendBody", "type": "boolean", "default": false},
		{"name": "headers", "type": "fixedCollection", "default": {"values": [{"name": "a"}]}}
	],
	"codex": {
		"categories": ["Development", "Core Nodes"],
		"alias": ["API", "Request", "URL", "curl"]
	}
}`

func TestNodeDescriptorDecodesCodex(t *testing.T) {
	var n NodeDescriptor
	if err := json.Unmarshal([]byte(httpRequestJSON), &n); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if n.Name != "HttpRequest" || n.DisplayName != "HTTP Request" {
		t.Errorf("unexpected identity: %q / %q", n.Name, n.DisplayName)
	}
	if len(n.Categories) != 2 || n.Categories[0] != "Development" {
		t.Errorf("expected categories from codex, got %v", n.Categories)
	}
	if len(n.Aliases) != 4 || n.Aliases[3] != "curl" {
		t.Errorf("expected aliases from codex, got %v", n.Aliases)
	}
	if n.PropertyCount() != 5 {
		t.Errorf("expected 5 properties, got %d", n.PropertyCount())
	}
	if !n.HasCategory("Core Nodes") || n.HasCategory("core nodes") {
		t.Error("HasCategory should be an exact match")
	}
}

func TestNodeDescriptorRoundTripKeepsCodex(t *testing.T) {
	var n NodeDescriptor
	if err := json.Unmarshal([]byte(httpRequestJSON), &n); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal generic failed: %v", err)
	}
	cx, ok := generic["codex"].(map[string]any)
	if !ok {
		t.Fatalf("expected codex object in %s", data)
	}
	if aliases, _ := cx["alias"].([]any); len(aliases) != 4 {
		t.Errorf("expected 4 aliases in codex, got %v", cx["alias"])
	}
}

// =============================================================================
// PROPERTY VALUE TESTS
// =============================================================================

func TestPropertyValueKinds(t *testing.T) {
	var n NodeDescriptor
	if err := json.Unmarshal([]byte(httpRequestJSON), &n); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := []ValueKind{KindString, KindString, KindNumber, KindBool, KindObject}
	for i, p := range n.Properties {
		if p.Default.Kind != want[i] {
			t.Errorf("property %s: expected kind %s, got %s", p.Name, want[i], p.Default.Kind)
		}
	}

	headers := n.Properties[4].Default
	values := headers.Object["values"]
	if values.Kind != KindList || len(values.List) != 1 {
		t.Errorf("expected nested list, got %+v", values)
	}
	if n.Properties[1].Options[1].Value.Str != "POST" {
		t.Errorf("expected option value POST, got %+v", n.Properties[1].Options[1].Value)
	}
}

func TestPropertyValueNullAndMarshal(t *testing.T) {
	var v PropertyValue
	if err := json.Unmarshal([]byte(`null`), &v); err != nil {
		t.Fatalf("Unmarshal null failed: %v", err)
	}
	if !v.IsNull() {
		t.Errorf("expected null kind, got %s", v.Kind)
	}

	out, err := json.Marshal([]PropertyValue{StringValue("x"), NumberValue(1.5), BoolValue(true), {}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(out) != `["x",1.5,true,null]` {
		t.Errorf("unexpected encoding %s", out)
	}
}

// =============================================================================
// CONTEXT / WORKFLOW TESTS
// =============================================================================

func TestComplexityMatches(t *testing.T) {
	tests := []struct {
		c     Complexity
		count int
		want  bool
	}{
		{ComplexitySimple, 0, true},
		{ComplexitySimple, 3, true},
		{ComplexitySimple, 4, false},
		{ComplexityMedium, 3, false},
		{ComplexityMedium, 4, true},
		{ComplexityMedium, 8, true},
		{ComplexityMedium, 9, false},
		{ComplexityComplex, 8, false},
		{ComplexityComplex, 9, true},
		{Complexity(""), 42, true},
	}
	for _, tt := range tests {
		if got := tt.c.Matches(tt.count); got != tt.want {
			t.Errorf("%q.Matches(%d) = %v, want %v", tt.c, tt.count, got, tt.want)
		}
	}
	if Complexity("huge").Valid() {
		t.Error("unknown complexity should not be valid")
	}
}

func TestWorkflowNodeTypes(t *testing.T) {
	wf := Workflow{
		Name: "lead intake",
		Nodes: []WorkflowNode{
			{Name: "Hook", Type: "Webhook"},
			{Name: "Notify", Type: "Slack"},
			{Name: "Notify 2", Type: "Slack"},
			{Name: "Old", Type: "EmailSend", Disabled: true},
			{Name: "Blank"},
		},
	}
	got := wf.NodeTypes()
	if len(got) != 2 || got[0] != "Webhook" || got[1] != "Slack" {
		t.Errorf("unexpected node types %v", got)
	}
}
