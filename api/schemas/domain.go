package schemas

// -- Domain Model Schemas --
//
// These types form the five core collections produced by the extraction
// pipeline. Entities are identified by their `name` field; there is no
// identity across separate runs except by name matching during dedup.

// EventKind classifies a domain event by how it enters the system.
type EventKind string

const (
	EventKindUserAction  EventKind = "user_action"  // Direct result of a user decision.
	EventKindSystem      EventKind = "system_event" // Raised internally by the system.
	EventKindIntegration EventKind = "integration"  // Originates from an external system.
	EventKindStateChange EventKind = "state_change" // Pure state transition of an entity.
)

// DomainEvent is a past-tense fact about the domain (e.g., "OrderShipped").
type DomainEvent struct {
	Name           string                 `json:"name"`
	Kind           EventKind              `json:"kind"`
	Description    string                 `json:"description,omitempty"`
	Actor          string                 `json:"actor,omitempty"`
	AffectedEntity string                 `json:"affected_entity,omitempty"`
	SourceTaskID   string                 `json:"source_task_id,omitempty"`
	Triggers       []string               `json:"triggers,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Command is an imperative request that, when accepted, produces one or more
// domain events. Every command must trigger at least one event.
type Command struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Parameters      []string `json:"parameters,omitempty"`
	TriggersEvents  []string `json:"triggers_events"`
	AffectsEntities []string `json:"affects_entities,omitempty"`
	SourceTaskID    string   `json:"source_task_id,omitempty"`
}

// ReadModel is a query-side projection answering a specific display need.
type ReadModel struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Fields      []string `json:"fields,omitempty"`
	DataSource  []string `json:"data_source,omitempty"`
}

// UserInteraction links a user-facing action to the command it issues and,
// optionally, the read model the user was looking at.
type UserInteraction struct {
	Action          string `json:"action"`
	TriggersCommand string `json:"triggers_command"`
	ViewedReadModel string `json:"viewed_read_model,omitempty"`
}

// Automation reacts to one event and produces further events without user
// input. ResultEvents must be non-empty and each referenced event must exist.
type Automation struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	TriggerEvent string   `json:"trigger_event"`
	ResultEvents []string `json:"result_events"`
}
