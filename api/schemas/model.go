package schemas

import "time"

// -- Model Aggregate --

// EventModel is the full cross-referenced model assembled by the pipeline and
// the shape persisted for downstream consumers. Collections are never nil
// after NewEventModel; stages replace whole collections rather than mutating
// individual entries.
type EventModel struct {
	Events           []DomainEvent     `json:"events"`
	Commands         []Command         `json:"commands"`
	ReadModels       []ReadModel       `json:"read_models"`
	UserInteractions []UserInteraction `json:"user_interactions"`
	Automations      []Automation      `json:"automations"`
	Swimlanes        []Swimlane        `json:"swimlanes"`
	Chapters         []Chapter         `json:"chapters"`
	Wireframes       []Wireframe       `json:"wireframes"`
	DataFlow         []DataFlowEdge    `json:"data_flow"`
}

// NewEventModel returns an empty model with all collections allocated, so the
// serialized form always carries every key.
func NewEventModel() *EventModel {
	return &EventModel{
		Events:           []DomainEvent{},
		Commands:         []Command{},
		ReadModels:       []ReadModel{},
		UserInteractions: []UserInteraction{},
		Automations:      []Automation{},
		Swimlanes:        []Swimlane{},
		Chapters:         []Chapter{},
		Wireframes:       []Wireframe{},
		DataFlow:         []DataFlowEdge{},
	}
}

// ModelCounts is a snapshot of collection sizes, emitted after each stage.
type ModelCounts struct {
	Events           int `json:"events"`
	Commands         int `json:"commands"`
	ReadModels       int `json:"read_models"`
	UserInteractions int `json:"user_interactions"`
	Automations      int `json:"automations"`
	Swimlanes        int `json:"swimlanes"`
	Chapters         int `json:"chapters"`
	Wireframes       int `json:"wireframes"`
	DataFlowEdges    int `json:"data_flow_edges"`
}

// Counts snapshots the current collection sizes.
func (m *EventModel) Counts() ModelCounts {
	return ModelCounts{
		Events:           len(m.Events),
		Commands:         len(m.Commands),
		ReadModels:       len(m.ReadModels),
		UserInteractions: len(m.UserInteractions),
		Automations:      len(m.Automations),
		Swimlanes:        len(m.Swimlanes),
		Chapters:         len(m.Chapters),
		Wireframes:       len(m.Wireframes),
		DataFlowEdges:    len(m.DataFlow),
	}
}

// EventNames returns the set of event names for reference checks.
func (m *EventModel) EventNames() map[string]bool {
	set := make(map[string]bool, len(m.Events))
	for _, e := range m.Events {
		set[e.Name] = true
	}
	return set
}

// CommandNames returns the set of command names.
func (m *EventModel) CommandNames() map[string]bool {
	set := make(map[string]bool, len(m.Commands))
	for _, c := range m.Commands {
		set[c.Name] = true
	}
	return set
}

// ReadModelNames returns the set of read model names.
func (m *EventModel) ReadModelNames() map[string]bool {
	set := make(map[string]bool, len(m.ReadModels))
	for _, rm := range m.ReadModels {
		set[rm.Name] = true
	}
	return set
}

// AutomationNames returns the set of automation names.
func (m *EventModel) AutomationNames() map[string]bool {
	set := make(map[string]bool, len(m.Automations))
	for _, a := range m.Automations {
		set[a.Name] = true
	}
	return set
}

// ModelRun is a finished pipeline run as persisted by the run store.
type ModelRun struct {
	ID         string           `json:"id"`
	ProjectID  string           `json:"project_id,omitempty"`
	Model      *EventModel      `json:"model"`
	Validation ValidationResult `json:"validation"`
	CreatedAt  time.Time        `json:"created_at"`
}
