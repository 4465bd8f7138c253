package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/midzapp/midz/internal/core/domain"
)

// Starter launches MeetupWorkflow executions. It satisfies the HTTP
// adapter's AsyncPlanner.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter on taskQueue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// WorkflowID is the execution ID used for a planning session.
func WorkflowID(sessionID string) string {
	return "meetup-" + sessionID
}

// StartPlan starts a workflow for req. req.SessionID must be set.
func (s *Starter) StartPlan(ctx context.Context, req domain.PlanRequest) error {
	if req.SessionID == "" {
		return fmt.Errorf("start plan: session id is required")
	}
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       WorkflowID(req.SessionID),
		TaskQueue:                s.taskQueue,
		WorkflowExecutionTimeout: 5 * time.Minute,
	}, MeetupWorkflow, req)
	if err != nil {
		return fmt.Errorf("start plan %s: %w", req.SessionID, err)
	}
	return nil
}
