package taskstore

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileDocument is the exported-tree shape: an explicit project context plus a
// flat task list. A bare JSON array of task nodes is also accepted, in which
// case the root node supplies the context.
type fileDocument struct {
	ProjectContext string             `json:"project_context"`
	Tasks          []schemas.TaskNode `json:"tasks"`
}

// FileSource serves a task tree loaded from a JSON file. The file is read
// once at construction.
type FileSource struct {
	projectContext string
	tasks          []schemas.TaskNode
}

// NewFileSource loads and validates the file at path.
func NewFileSource(path string) (*FileSource, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		var nodes []schemas.TaskNode
		if arrErr := json.Unmarshal(data, &nodes); arrErr != nil {
			return nil, fmt.Errorf("failed to parse task file %q: %w", expanded, err)
		}
		doc.Tasks = nodes
	}

	source := &FileSource{projectContext: doc.ProjectContext}
	for _, task := range doc.Tasks {
		if task.IsRoot() {
			if source.projectContext == "" {
				source.projectContext = task.Description
				if task.ImplementationDetails != "" {
					source.projectContext += "\n\n" + task.ImplementationDetails
				}
			}
			continue
		}
		source.tasks = append(source.tasks, task)
	}
	if len(source.tasks) == 0 {
		return nil, fmt.Errorf("task file %q contains no non-root tasks", expanded)
	}
	return source, nil
}

// ProjectContext returns the context text loaded from the file.
func (s *FileSource) ProjectContext(context.Context) (string, error) {
	return s.projectContext, nil
}

// Tasks returns the non-root tasks in file order.
func (s *FileSource) Tasks(context.Context) ([]schemas.TaskNode, error) {
	return s.tasks, nil
}
