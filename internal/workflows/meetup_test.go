package workflows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/usecases"
	"github.com/midzapp/midz/internal/workflows"
)

type stubGeocoder struct {
	points map[string]domain.GeoPoint
}

func (s *stubGeocoder) Forward(ctx context.Context, address string) ([]domain.GeoPoint, error) {
	if p, ok := s.points[address]; ok {
		return []domain.GeoPoint{p}, nil
	}
	return nil, nil
}

func (s *stubGeocoder) Reverse(ctx context.Context, p domain.GeoPoint) (string, error) {
	return "Bilbao", nil
}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, q string, c domain.GeoPoint, r float64) ([]domain.VenueCandidate, error) {
	return nil, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	completed []string
	failed    map[string]string
}

func (p *recordingPublisher) PublishPlanCompleted(ctx context.Context, r *domain.PlanResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, r.SessionID)
	return nil
}

func (p *recordingPublisher) PublishPlanFailed(ctx context.Context, sessionID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failed == nil {
		p.failed = make(map[string]string)
	}
	p.failed[sessionID] = reason
	return nil
}

func newActivities(pub *recordingPublisher) *workflows.MeetupActivities {
	resolver := usecases.NewGeoResolver(&stubGeocoder{points: map[string]domain.GeoPoint{
		"Plaza Moyua": {Lat: 43.2630, Lon: -2.9350},
		"Casco Viejo": {Lat: 43.2580, Lon: -2.9240},
	}})
	planner := usecases.NewMeetupPlanner(
		resolver,
		usecases.NewLandValidator(resolver, stubSearcher{}, "restaurant", 50000),
		usecases.NewVenueRanker(resolver, stubSearcher{}, 10),
		nil, nil, nil,
		usecases.PlannerOptions{},
	)
	return &workflows.MeetupActivities{Planner: planner, Publisher: pub}
}

func TestMeetupWorkflow_Completes(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	pub := &recordingPublisher{}
	env.RegisterActivity(newActivities(pub))

	env.ExecuteWorkflow(workflows.MeetupWorkflow, domain.PlanRequest{
		SessionID: "s-1",
		Requester: domain.Participant{Name: "You", Address: "Plaza Moyua", IsRequester: true},
		Friends:   []domain.Participant{{Name: "Jon", Address: "Casco Viejo"}},
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected workflow error: %v", err)
	}

	var result domain.PlanResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatal(err)
	}
	if result.SessionID != "s-1" {
		t.Errorf("expected session s-1, got %q", result.SessionID)
	}
	if result.MeetingPoint.Locality != "Bilbao" {
		t.Errorf("expected Bilbao, got %q", result.MeetingPoint.Locality)
	}
	if len(pub.completed) != 1 || pub.completed[0] != "s-1" {
		t.Errorf("expected one completed event, got %v", pub.completed)
	}
}

func TestMeetupWorkflow_NoParticipantsPublishesFailure(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	pub := &recordingPublisher{}
	env.RegisterActivity(newActivities(pub))

	env.ExecuteWorkflow(workflows.MeetupWorkflow, domain.PlanRequest{
		SessionID: "s-2",
		Requester: domain.Participant{Address: "Atlantis", IsRequester: true},
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	err := env.GetWorkflowError()
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != workflows.ErrTypeNoParticipants {
		t.Fatalf("expected %s application error, got %v", workflows.ErrTypeNoParticipants, err)
	}
	if pub.failed["s-2"] != "no_participants_resolved" {
		t.Errorf("expected a failure event, got %v", pub.failed)
	}
	if len(pub.completed) != 0 {
		t.Error("no completed event expected")
	}
}

func TestWorkflowID(t *testing.T) {
	if got := workflows.WorkflowID("abc"); got != "meetup-abc" {
		t.Errorf("WorkflowID = %q", got)
	}
}
