package workflows

import (
	"context"
	"errors"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/core/usecases"
	"github.com/midzapp/midz/internal/pkg/logging"
)

// MeetupActivities holds the activity implementations for MeetupWorkflow.
// The planner should be built without a publisher; publishing is its own
// activity so it can be retried on its own.
type MeetupActivities struct {
	Planner   *usecases.MeetupPlanner
	Publisher ports.EventPublisher
}

// PlanMeetup runs one planning session.
func (a *MeetupActivities) PlanMeetup(ctx context.Context, req domain.PlanRequest) (*domain.PlanResult, error) {
	info := activity.GetInfo(ctx)
	ctx = logging.WithLogger(ctx, slog.Default().With(
		"workflow_id", info.WorkflowExecution.ID,
		"attempt", info.Attempt,
	))

	result, err := a.Planner.PlanMeetup(ctx, req)
	if errors.Is(err, domain.ErrNoParticipantsResolved) {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNoParticipants, err)
	}
	return result, err
}

// PublishPlanCompleted publishes a finished plan.
func (a *MeetupActivities) PublishPlanCompleted(ctx context.Context, result *domain.PlanResult) error {
	if a.Publisher == nil {
		slog.Warn("no publisher configured, dropping plan event", "session_id", result.SessionID)
		return nil
	}
	return a.Publisher.PublishPlanCompleted(ctx, result)
}

// PublishPlanFailed publishes a failed session.
func (a *MeetupActivities) PublishPlanFailed(ctx context.Context, sessionID, reason string) error {
	if a.Publisher == nil {
		slog.Warn("no publisher configured, dropping failure event", "session_id", sessionID, "reason", reason)
		return nil
	}
	return a.Publisher.PublishPlanFailed(ctx, sessionID, reason)
}
