package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// MarkdownReporter renders a run as a human-readable summary: counts,
// validation outcome and the narrative structure.
type MarkdownReporter struct {
	writer io.WriteCloser
}

// NewMarkdownReporter creates a reporter that takes ownership of the writer.
func NewMarkdownReporter(writer io.WriteCloser) *MarkdownReporter {
	return &MarkdownReporter{writer: writer}
}

// Write renders the run.
func (r *MarkdownReporter) Write(run *schemas.ModelRun) error {
	var b strings.Builder
	model := run.Model
	counts := model.Counts()

	b.WriteString("# Event Model Report\n\n")
	if run.ProjectID != "" {
		fmt.Fprintf(&b, "Project: `%s`  \n", run.ProjectID)
	}
	fmt.Fprintf(&b, "Run: `%s`  \n", run.ID)
	fmt.Fprintf(&b, "Created: %s\n\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Collection | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Events | %d |\n", counts.Events)
	fmt.Fprintf(&b, "| Commands | %d |\n", counts.Commands)
	fmt.Fprintf(&b, "| Read models | %d |\n", counts.ReadModels)
	fmt.Fprintf(&b, "| User interactions | %d |\n", counts.UserInteractions)
	fmt.Fprintf(&b, "| Automations | %d |\n", counts.Automations)
	fmt.Fprintf(&b, "| Swimlanes | %d |\n", counts.Swimlanes)
	fmt.Fprintf(&b, "| Chapters | %d |\n", counts.Chapters)
	fmt.Fprintf(&b, "| Wireframes | %d |\n", counts.Wireframes)
	fmt.Fprintf(&b, "| Data-flow edges | %d |\n\n", counts.DataFlowEdges)

	r.writeValidation(&b, run.Validation)
	r.writeSwimlanes(&b, model)
	r.writeChapters(&b, model)

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *MarkdownReporter) writeValidation(b *strings.Builder, result schemas.ValidationResult) {
	b.WriteString("## Validation\n\n")
	if result.Valid {
		b.WriteString("The model is **valid**.\n\n")
	} else {
		b.WriteString("The model is **invalid**.\n\n")
	}
	if len(result.Issues) == 0 {
		b.WriteString("No issues found.\n\n")
		return
	}

	bySeverity := result.CountBySeverity()
	fmt.Fprintf(b, "%d issues (%d errors, %d warnings, %d infos):\n\n",
		len(result.Issues),
		bySeverity[schemas.SeverityError],
		bySeverity[schemas.SeverityWarning],
		bySeverity[schemas.SeverityInfo])
	for _, issue := range result.Issues {
		fmt.Fprintf(b, "- **%s** [%s] %s\n", issue.Severity, issue.Category, issue.Message)
	}
	b.WriteString("\n")
}

func (r *MarkdownReporter) writeSwimlanes(b *strings.Builder, model *schemas.EventModel) {
	if len(model.Swimlanes) == 0 {
		return
	}
	b.WriteString("## Swimlanes\n\n")
	for _, lane := range model.Swimlanes {
		fmt.Fprintf(b, "- **%s**: %d events, %d commands, %d read models, %d automations\n",
			lane.Name, len(lane.Events), len(lane.Commands), len(lane.ReadModels), len(lane.Automations))
	}
	b.WriteString("\n")
}

func (r *MarkdownReporter) writeChapters(b *strings.Builder, model *schemas.EventModel) {
	if len(model.Chapters) == 0 {
		return
	}
	b.WriteString("## Chapters\n\n")
	for _, chapter := range model.Chapters {
		fmt.Fprintf(b, "### %s\n\n", chapter.Name)
		if chapter.Description != "" {
			fmt.Fprintf(b, "%s\n\n", chapter.Description)
		}
		for _, slice := range chapter.Slices {
			fmt.Fprintf(b, "- `%s` (%s, %d scenarios)\n", slice.Name, slice.Type, len(slice.Scenarios))
		}
		b.WriteString("\n")
	}
}

// Close closes the underlying writer.
func (r *MarkdownReporter) Close() error {
	return r.writer.Close()
}
