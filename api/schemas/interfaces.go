package schemas

import "context"

// -- Oracle Client Schemas & Interface --

// Role tags a chat message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one role-tagged message in a generation request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ModelTier selects a model by a speed-versus-capability preference.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Cheaper, faster model for enrichment passes.
	TierPowerful ModelTier = "powerful" // Most capable model for extraction and repair.
)

// GenerationOptions controls the generation parameters of an oracle call.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`                 // Controls randomness. Lower is more deterministic.
	MaxTokens       int     `json:"max_tokens,omitempty"`        // Output size limit. 0 uses the provider default.
	ForceJSONFormat bool    `json:"force_json_format,omitempty"` // Request a JSON response format when supported.
}

// GenerationRequest encapsulates a complete request to the oracle: the
// ordered conversation, the desired tier, and generation options.
type GenerationRequest struct {
	Messages []ChatMessage     `json:"messages"`
	Tier     ModelTier         `json:"tier"`
	Options  GenerationOptions `json:"options"`
}

// OracleClient is the single call contract to the external text-generation
// service. Implementations normalize provider response shapes (structured
// envelope or raw string) into the returned text; the caller applies its own
// parsing fallbacks on the result.
type OracleClient interface {
	// Generate produces a text completion for the request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// -- Collaborator Interfaces --

// TaskSource is the read-only collaborator supplying the task descriptions
// that seed extraction.
type TaskSource interface {
	// ProjectContext returns the overall project description (the root task).
	ProjectContext(ctx context.Context) (string, error)
	// Tasks returns the ordered list of non-root task nodes.
	Tasks(ctx context.Context) ([]TaskNode, error)
}

// Stage names emitted to the progress sink, in pipeline order.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageConsolidation Stage = "consolidation"
	StageSwimlanes     Stage = "swimlanes"
	StageChapters      Stage = "chapters"
	StageWireframes    Stage = "wireframes"
	StageValidation    Stage = "validation"
	StageRepair        Stage = "repair"
)

// ProgressSink is the write-only collaborator receiving phase-completion
// counters. Implementations must never let emission failures surface into
// the pipeline; the interface therefore returns nothing.
type ProgressSink interface {
	StageCompleted(ctx context.Context, stage Stage, counts ModelCounts)
}

// RunStore persists finished pipeline runs for downstream consumers.
type RunStore interface {
	SaveRun(ctx context.Context, run *ModelRun) error
}
