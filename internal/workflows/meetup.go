package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/midzapp/midz/internal/core/domain"
)

// Activity names, matching the MeetupActivities methods.
const (
	PlanActivity             = "PlanMeetup"
	PublishCompletedActivity = "PublishPlanCompleted"
	PublishFailedActivity    = "PublishPlanFailed"
)

// ErrTypeNoParticipants marks the non-retryable planning failure.
const ErrTypeNoParticipants = "NoParticipantsResolved"

// MeetupWorkflow plans a meetup in the background and publishes the outcome
// on the event bus under req.SessionID. A failed plan is published too, so
// subscribers always hear back.
func MeetupWorkflow(ctx workflow.Context, req domain.PlanRequest) (*domain.PlanResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting meetup workflow", "sessionID", req.SessionID)

	planCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        2,
			NonRetryableErrorTypes: []string{ErrTypeNoParticipants},
		},
	})
	publishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 5,
		},
	})

	var result domain.PlanResult
	if err := workflow.ExecuteActivity(planCtx, PlanActivity, req).Get(ctx, &result); err != nil {
		reason := "planning_failed"
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == ErrTypeNoParticipants {
			reason = "no_participants_resolved"
		}
		if perr := workflow.ExecuteActivity(publishCtx, PublishFailedActivity, req.SessionID, reason).Get(ctx, nil); perr != nil {
			logger.Warn("publishing failure event failed", "error", perr)
		}
		return nil, err
	}

	if err := workflow.ExecuteActivity(publishCtx, PublishCompletedActivity, &result).Get(ctx, nil); err != nil {
		logger.Warn("publishing plan failed, result only in workflow history", "error", err)
	}

	logger.Info("Meetup planned", "adjusted", result.MeetingPoint.Adjusted, "venues", len(result.Venues))
	return &result, nil
}
