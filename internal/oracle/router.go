package oracle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/eventmodel-cli/api/schemas"
	"github.com/xkilldash9x/eventmodel-cli/internal/config"
)

// Router implements schemas.OracleClient and dispatches requests to the
// client configured for the requested tier.
type Router struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]schemas.OracleClient
}

var _ schemas.OracleClient = (*Router)(nil)

// NewRouter creates a router over the given tier clients.
func NewRouter(logger *zap.Logger, fastClient, powerfulClient schemas.OracleClient) (*Router, error) {
	if fastClient == nil || powerfulClient == nil {
		return nil, fmt.Errorf("both fast and powerful tier clients must be provided")
	}
	return &Router{
		logger: logger.Named("oracle_router"),
		clients: map[schemas.ModelTier]schemas.OracleClient{
			schemas.TierFast:     fastClient,
			schemas.TierPowerful: powerfulClient,
		},
	}, nil
}

// NewRouterFromConfig builds both tier clients from configuration and wires
// them into a router.
func NewRouterFromConfig(cfg config.OracleConfig, logger *zap.Logger) (*Router, error) {
	fastClient, err := NewClient(cfg, cfg.FastModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast tier client: %w", err)
	}
	powerfulClient, err := NewClient(cfg, cfg.PowerfulModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create powerful tier client: %w", err)
	}
	return NewRouter(logger, fastClient, powerfulClient)
}

// Generate selects the client for the request's tier. An unset tier defaults
// to the powerful model.
func (r *Router) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	tier := req.Tier
	if tier == "" {
		tier = schemas.TierPowerful
	}

	client, ok := r.clients[tier]
	if !ok {
		return "", fmt.Errorf("no oracle client configured for tier: %s", tier)
	}

	r.logger.Debug("Routing oracle request", zap.String("tier", string(tier)))
	return client.Generate(ctx, req)
}

// Close closes every tier client, returning the first error encountered.
func (r *Router) Close() error {
	var firstErr error
	for _, client := range r.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
