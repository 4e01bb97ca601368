package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
)

// LogSink reports stage completion through the logger. Emission can never
// fail, satisfying the sink contract trivially.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a progress sink writing to the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("progress")}
}

// StageCompleted logs the stage name with the running collection counts.
func (s *LogSink) StageCompleted(_ context.Context, stage schemas.Stage, counts schemas.ModelCounts) {
	s.logger.Info("Stage completed",
		zap.String("stage", string(stage)),
		zap.Int("events", counts.Events),
		zap.Int("commands", counts.Commands),
		zap.Int("read_models", counts.ReadModels),
		zap.Int("user_interactions", counts.UserInteractions),
		zap.Int("automations", counts.Automations),
		zap.Int("swimlanes", counts.Swimlanes),
		zap.Int("chapters", counts.Chapters),
		zap.Int("wireframes", counts.Wireframes),
		zap.Int("data_flow_edges", counts.DataFlowEdges))
}

// NopSink discards progress notifications.
type NopSink struct{}

func (NopSink) StageCompleted(context.Context, schemas.Stage, schemas.ModelCounts) {}
