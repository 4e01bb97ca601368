package reporting

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter writes the model as the canonical nine-collection JSON
// document consumed by downstream tools, followed by the validation result
// under a "validation" key.
type JSONReporter struct {
	writer io.WriteCloser
}

// jsonReport is the serialized report shape. Embedding the model keeps its
// nine collection keys at the top level.
type jsonReport struct {
	Events           interface{} `json:"events"`
	Commands         interface{} `json:"commands"`
	ReadModels       interface{} `json:"read_models"`
	UserInteractions interface{} `json:"user_interactions"`
	Automations      interface{} `json:"automations"`
	Swimlanes        interface{} `json:"swimlanes"`
	Chapters         interface{} `json:"chapters"`
	Wireframes       interface{} `json:"wireframes"`
	DataFlow         interface{} `json:"data_flow"`
	Validation       interface{} `json:"validation"`
}

// NewJSONReporter creates a reporter that takes ownership of the writer.
func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: writer}
}

// Write renders the run as indented JSON.
func (r *JSONReporter) Write(run *schemas.ModelRun) error {
	report := jsonReport{
		Events:           run.Model.Events,
		Commands:         run.Model.Commands,
		ReadModels:       run.Model.ReadModels,
		UserInteractions: run.Model.UserInteractions,
		Automations:      run.Model.Automations,
		Swimlanes:        run.Model.Swimlanes,
		Chapters:         run.Model.Chapters,
		Wireframes:       run.Model.Wireframes,
		DataFlow:         run.Model.DataFlow,
		Validation:       run.Validation,
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := r.writer.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Close closes the underlying writer.
func (r *JSONReporter) Close() error {
	return r.writer.Close()
}
