// Package reporting writes finished runs to files or stdout, either as the
// canonical JSON model document or as a human-readable Markdown summary.
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// Reporter defines the interface for writing a finished run to an output.
type Reporter interface {
	// Write renders a single run.
	Write(run *schemas.ModelRun) error
	// Close finalizes the report and closes any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for the given format and output path. An empty path
// or "stdout" writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout"

	if isStdOut {
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case "json":
		return NewJSONReporter(writer), nil
	case "markdown", "md":
		return NewMarkdownReporter(writer), nil
	default:
		if !isStdOut {
			writer.Close()
		}
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
