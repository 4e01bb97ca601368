// Package wireframe infers UI-level artifacts for a finished model: one
// wireframe per state-change/state-view slice and a data-flow lineage graph
// tracing fields from UI inputs through commands and events into read models
// and back onto screens. The stage is best-effort: any failure returns empty
// collections and never blocks downstream stages.
package wireframe

import (
	"context"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/llmutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const systemPrompt = `You are a UX designer working from an Event Modeling diagram.
For the given model and chapters, produce wireframes and the full data-flow
lineage graph.

Return ONLY a JSON object of this shape:

{
  "wireframes": [
    {
      "name": "CheckoutScreen",
      "slice": "PlaceOrder",
      "type": "form",
      "components": [
        {"type": "input", "name": "payment_method", "label": "Payment method"},
        {"type": "button", "name": "place_order", "label": "Place order"},
        {"type": "table", "name": "cart_items"}
      ],
      "read_models": ["CartView"]
    }
  ],
  "data_flow": [
    {"from": "UI:CheckoutScreen.payment_method", "to": "Command:PlaceOrder.payment_method"},
    {"from": "Command:PlaceOrder.payment_method", "to": "Event:OrderPlaced.payment_method"},
    {"from": "Event:OrderPlaced.total", "to": "ReadModel:OrderSummary.total"},
    {"from": "ReadModel:OrderSummary.total", "to": "UI:OrderScreen.total"}
  ]
}

Rules:
- One wireframe per state_change and state_view slice.
- Component types are: input, button, text, list, table.
- Trace every command parameter back to a UI input or a system source, and
  every read model field back to a producing event.
- References use the form Kind:Entity.field with Kind one of UI, Command,
  Event, ReadModel.`

// result is the JSON shape of one generation call.
type result struct {
	Wireframes []schemas.Wireframe    `json:"wireframes"`
	DataFlow   []schemas.DataFlowEdge `json:"data_flow"`
}

// Generator runs the wireframe and data-flow inference.
type Generator struct {
	oracle schemas.OracleClient
	logger *zap.Logger
}

// NewGenerator creates a generator over the given oracle client.
func NewGenerator(oracle schemas.OracleClient, logger *zap.Logger) *Generator {
	return &Generator{
		oracle: oracle,
		logger: logger.Named("wireframe_generator"),
	}
}

// Generate issues one oracle call for the whole model. On any failure it
// returns empty collections.
func (g *Generator) Generate(ctx context.Context, model *schemas.EventModel) ([]schemas.Wireframe, []schemas.DataFlowEdge) {
	response, err := g.oracle.Generate(ctx, schemas.GenerationRequest{
		Messages: []schemas.ChatMessage{
			{Role: schemas.RoleSystem, Content: systemPrompt},
			{Role: schemas.RoleUser, Content: buildPrompt(model)},
		},
		Tier:    schemas.TierPowerful,
		Options: schemas.GenerationOptions{Temperature: 0.3, ForceJSONFormat: true},
	})
	if err != nil {
		g.logger.Warn("Wireframe oracle call failed; continuing without UI artifacts", zap.Error(err))
		return nil, nil
	}

	parsed, err := llmutil.Parse[result](response)
	if err != nil {
		g.logger.Warn("Failed to parse wireframe response; continuing without UI artifacts", zap.Error(err))
		return nil, nil
	}

	g.logger.Info("Wireframe generation complete",
		zap.Int("wireframes", len(parsed.Wireframes)),
		zap.Int("data_flow_edges", len(parsed.DataFlow)))
	return parsed.Wireframes, parsed.DataFlow
}

// buildPrompt embeds the full current model plus the chapter list.
func buildPrompt(model *schemas.EventModel) string {
	var b strings.Builder
	b.WriteString("Current model (including chapters):\n")
	payload, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	b.Write(payload)
	b.WriteString("\n\nProduce the wireframes and the data-flow graph.")
	return b.String()
}
