package schemas

import "strings"

// -- Wireframe & Data-Flow Schemas --

// ComponentType enumerates the UI component kinds a wireframe may contain.
type ComponentType string

const (
	ComponentInput  ComponentType = "input"
	ComponentButton ComponentType = "button"
	ComponentText   ComponentType = "text"
	ComponentList   ComponentType = "list"
	ComponentTable  ComponentType = "table"
)

// WireframeComponent is a single element on a wireframe.
type WireframeComponent struct {
	Type  ComponentType `json:"type"`
	Name  string        `json:"name"`
	Label string        `json:"label,omitempty"`
}

// Wireframe is a UI sketch associated with a state-change or state-view slice.
type Wireframe struct {
	Name       string               `json:"name"`
	Slice      string               `json:"slice"`
	Type       string               `json:"type,omitempty"`
	Components []WireframeComponent `json:"components,omitempty"`
	ReadModels []string             `json:"read_models,omitempty"`
}

// FlowRef is a tagged reference into the model, in the form
// "Kind:Entity.field", e.g. "UI:CheckoutScreen.email" or
// "Event:OrderPlaced.order_id". The field part is optional.
type FlowRef string

// Flow reference kinds.
const (
	FlowKindUI        = "UI"
	FlowKindCommand   = "Command"
	FlowKindEvent     = "Event"
	FlowKindReadModel = "ReadModel"
)

// Kind returns the tag before the first colon, or "" when untagged.
func (r FlowRef) Kind() string {
	if i := strings.Index(string(r), ":"); i >= 0 {
		return string(r)[:i]
	}
	return ""
}

// Entity returns the entity name between the colon and the first dot.
func (r FlowRef) Entity() string {
	s := string(r)
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}
	return s
}

// Field returns the part after the first dot following the entity, or "".
func (r FlowRef) Field() string {
	s := string(r)
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, "."); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// DataFlowEdge traces one hop of the lineage graph
// (UI -> command -> event -> read model -> UI).
type DataFlowEdge struct {
	From        FlowRef `json:"from"`
	To          FlowRef `json:"to"`
	Description string  `json:"description,omitempty"`
}
