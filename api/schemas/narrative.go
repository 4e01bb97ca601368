package schemas

// -- Narrative Schemas --
//
// Swimlanes partition the model by business capability; chapters arrange
// slices into workflows and attach Given/When/Then scenarios to them.

// Swimlane groups entities by business capability. Every referenced name must
// exist in the corresponding global collection.
type Swimlane struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Events      []string `json:"events,omitempty"`
	Commands    []string `json:"commands,omitempty"`
	ReadModels  []string `json:"read_models,omitempty"`
	Automations []string `json:"automations,omitempty"`
}

// SliceType identifies which of the three slice shapes a slice carries.
type SliceType string

const (
	SliceStateChange SliceType = "state_change" // Command producing events.
	SliceStateView   SliceType = "state_view"   // Events projected into a read model.
	SliceAutomation  SliceType = "automation"   // Event-to-event automation.
)

// Scenario is a Given/When/Then (or Given/Then) specification attached to a
// slice. When is empty for state-view scenarios.
type Scenario struct {
	Name  string   `json:"name,omitempty"`
	Given []string `json:"given"`
	When  string   `json:"when,omitempty"`
	Then  []string `json:"then"`
}

// Slice is one independently implementable unit of behavior. Exactly one of
// the three shapes is populated, selected by Type.
type Slice struct {
	Type         SliceType  `json:"type"`
	Name         string     `json:"name,omitempty"`
	Command      string     `json:"command,omitempty"`
	Events       []string   `json:"events,omitempty"`
	ReadModel    string     `json:"read_model,omitempty"`
	SourceEvents []string   `json:"source_events,omitempty"`
	Automation   string     `json:"automation,omitempty"`
	Scenarios    []Scenario `json:"gwt_scenarios,omitempty"`
}

// Chapter is a narrative grouping of slices representing one workflow.
type Chapter struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Slices      []Slice `json:"slices"`
}
