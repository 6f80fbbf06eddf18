package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

func (s *Server) registerGoalRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getGoals",
		Method:      http.MethodGet,
		Path:        "/api/v1/goals",
		Summary:     "Get goals",
		Tags:        []string{"Goals"},
	}, s.handleGetGoals)

	huma.Register(s.api, huma.Operation{
		OperationID: "setGoals",
		Method:      http.MethodPut,
		Path:        "/api/v1/goals",
		Summary:     "Set goals",
		Description: "Replaces all three goals. Nothing changes if any value is out of range",
		Tags:        []string{"Goals"},
	}, s.handleSetGoals)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get statistics",
		Description: "Returns statistics derived from the library and goal progress",
		Tags:        []string{"Goals"},
	}, s.handleGetStats)
}

// GoalsOutput wraps the goals.
type GoalsOutput struct {
	Body domain.Goals
}

// SetGoalsInput carries new goals. Range checks happen in the service so
// the error shape matches other validation failures.
type SetGoalsInput struct {
	Body domain.Goals
}

// StatsOutput wraps the statistics.
type StatsOutput struct {
	Body domain.Stats
}

func (s *Server) handleGetGoals(_ context.Context, _ *struct{}) (*GoalsOutput, error) {
	return &GoalsOutput{Body: s.services.Library.Goals()}, nil
}

func (s *Server) handleSetGoals(ctx context.Context, input *SetGoalsInput) (*GoalsOutput, error) {
	if err := s.services.Library.SetGoals(ctx, input.Body); err != nil {
		return nil, err
	}
	return &GoalsOutput{Body: s.services.Library.Goals()}, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	return &StatsOutput{Body: s.services.Library.Stats()}, nil
}
