package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/midzapp/midz/internal/core/domain"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/pkg/geospatial"
	"github.com/midzapp/midz/internal/pkg/logging"
	"github.com/midzapp/midz/internal/pkg/metrics"
	"github.com/midzapp/midz/internal/pkg/telemetry"
)

// DefaultResolveTimeout bounds the Resolving stage.
const DefaultResolveTimeout = 3 * time.Second

// MaxConcurrentLookups caps the geocoding calls one session has in flight.
const MaxConcurrentLookups = 8

// PlannerOptions tunes a MeetupPlanner.
type PlannerOptions struct {
	ResolveTimeout     time.Duration
	SearchRadiusMeters float64
}

// MeetupPlanner runs planning sessions: resolve every participant, take the
// centroid, validate it, then rank venues around it. Each call to PlanMeetup
// is an independent session; the planner itself holds no session state.
type MeetupPlanner struct {
	resolver  *GeoResolver
	validator *LandValidator
	ranker    *VenueRanker
	users     ports.UserDirectory
	boards    ports.BoardStore
	publisher ports.EventPublisher
	opts      PlannerOptions

	now   func() time.Time
	newID func() string
}

// NewMeetupPlanner creates a new MeetupPlanner. users, boards and publisher
// may be nil; PlanForUser needs users.
func NewMeetupPlanner(
	resolver *GeoResolver,
	validator *LandValidator,
	ranker *VenueRanker,
	users ports.UserDirectory,
	boards ports.BoardStore,
	publisher ports.EventPublisher,
	opts PlannerOptions,
) *MeetupPlanner {
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = DefaultResolveTimeout
	}
	if opts.SearchRadiusMeters <= 0 {
		opts.SearchRadiusMeters = DefaultSearchRadiusMeters
	}
	return &MeetupPlanner{
		resolver:  resolver,
		validator: validator,
		ranker:    ranker,
		users:     users,
		boards:    boards,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// PlanAddresses plans a meetup from raw addresses.
func (p *MeetupPlanner) PlanAddresses(ctx context.Context, requesterAddress string, friendAddresses []string, activity string) (*domain.PlanResult, error) {
	req := domain.PlanRequest{
		Requester: domain.Participant{Name: "You", Address: requesterAddress, IsRequester: true},
		Activity:  activity,
	}
	for i, addr := range friendAddresses {
		req.Friends = append(req.Friends, domain.Participant{Name: fmt.Sprintf("Friend %d", i+1), Address: addr})
	}
	return p.PlanMeetup(ctx, req)
}

// PlanForUser loads the requesting user, the selected friends and the user's
// saved boards from the directory, then plans. friendIDs that are not actual
// friends of the user are ignored.
func (p *MeetupPlanner) PlanForUser(ctx context.Context, userID string, friendIDs []string, activity string) (*domain.PlanResult, error) {
	if p.users == nil {
		return nil, errors.New("user directory not configured")
	}
	logger := logging.FromContext(ctx)

	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	known := make(map[string]bool, len(user.FriendIDs))
	for _, id := range user.FriendIDs {
		known[id] = true
	}
	var selected []string
	for _, id := range friendIDs {
		if known[id] {
			selected = append(selected, id)
		} else {
			logger.Warn("ignoring non-friend participant", "user_id", userID, "friend_id", id)
		}
	}

	req := domain.PlanRequest{
		Requester: domain.Participant{Name: user.FullName, Address: user.Address, IsRequester: true},
		Activity:  activity,
	}

	if len(selected) > 0 {
		friends, err := p.users.GetByIDs(ctx, selected)
		if err != nil {
			return nil, fmt.Errorf("load friends: %w", err)
		}
		for _, f := range friends {
			req.Friends = append(req.Friends, domain.Participant{Name: f.FullName, Address: f.Address})
		}
	}

	if p.boards != nil {
		boards, err := p.boards.ListByOwner(ctx, userID)
		if err != nil {
			logger.Warn("saved boards unavailable, ranking search results only", "user_id", userID, "error", err)
		} else {
			req.SavedVenues = domain.SavedVenues(boards)
		}
	}

	return p.PlanMeetup(ctx, req)
}

// PlanMeetup runs one planning session. It returns domain.ErrNoParticipantsResolved
// when no address could be located, and the context error if ctx is cancelled.
func (p *MeetupPlanner) PlanMeetup(ctx context.Context, req domain.PlanRequest) (*domain.PlanResult, error) {
	start := p.now()
	id := req.SessionID
	if id == "" {
		id = p.newID()
	}
	session := domain.NewSession(id, start)

	logger := logging.FromContext(ctx).With("session_id", session.ID)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPlanMeetup)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrSessionID, session.ID))

	defer func() {
		metrics.PlanDuration.Observe(time.Since(start).Seconds())
	}()

	// CollectingParticipants
	participants := p.collectParticipants(ctx, req)
	span.SetAttributes(attribute.Int(telemetry.AttrParticipants, len(participants)))
	if err := p.checkCancelled(ctx, session); err != nil {
		return nil, err
	}

	// Resolving
	if err := p.advance(session, logger); err != nil {
		return nil, err
	}
	resolved := p.resolveAll(ctx, participants)
	if err := p.checkCancelled(ctx, session); err != nil {
		return nil, err
	}

	var points []domain.GeoPoint
	for _, rp := range resolved {
		if rp.Resolved {
			points = append(points, rp.Point)
		}
	}
	span.SetAttributes(attribute.Int(telemetry.AttrResolved, len(points)))

	if len(points) == 0 {
		session.Fail(p.now())
		metrics.PlansTotal.WithLabelValues("no_participants").Inc()
		logger.Error("planning failed", "error", domain.ErrNoParticipantsResolved, "participants", len(participants))
		span.SetStatus(codes.Error, domain.ErrNoParticipantsResolved.Error())
		p.publishFailed(ctx, session.ID, "no_participants_resolved")
		return nil, domain.ErrNoParticipantsResolved
	}

	// ComputingCentroid
	if err := p.advance(session, logger); err != nil {
		return nil, err
	}
	_, centroidSpan := telemetry.Tracer().Start(ctx, telemetry.SpanCentroid)
	centroid, err := geospatial.Centroid(points)
	centroidSpan.End()
	if err != nil {
		return nil, fmt.Errorf("centroid: %w", err)
	}

	// Validating
	if err := p.advance(session, logger); err != nil {
		return nil, err
	}
	vctx, validateSpan := telemetry.Tracer().Start(ctx, telemetry.SpanValidate)
	meeting := p.validator.Validate(vctx, centroid)
	validateSpan.SetAttributes(attribute.Bool(telemetry.AttrAdjusted, meeting.Adjusted))
	validateSpan.End()
	if err := p.checkCancelled(ctx, session); err != nil {
		return nil, err
	}

	// RankingVenues
	if err := p.advance(session, logger); err != nil {
		return nil, err
	}
	rctx, rankSpan := telemetry.Tracer().Start(ctx, telemetry.SpanRankVenues)
	venues := p.ranker.Rank(rctx, meeting, strings.TrimSpace(req.Activity), req.SavedVenues, p.opts.SearchRadiusMeters)
	rankSpan.SetAttributes(attribute.Int(telemetry.AttrVenues, len(venues)))
	rankSpan.End()
	if err := p.checkCancelled(ctx, session); err != nil {
		return nil, err
	}

	// Complete
	if err := p.advance(session, logger); err != nil {
		return nil, err
	}

	result := &domain.PlanResult{
		SessionID:    session.ID,
		MeetingPoint: meeting,
		Centroid:     centroid,
		Participants: resolved,
		Venues:       venues,
		Region:       geospatial.Region(meeting.Point, points),
		MapsURL:      MapsURL(meeting.Point),
		CompletedAt:  p.now(),
	}

	metrics.PlansTotal.WithLabelValues("complete").Inc()
	logger.Info("planning complete",
		"resolved", len(points),
		"participants", len(participants),
		"adjusted", meeting.Adjusted,
		"venues", len(venues),
	)

	if p.publisher != nil {
		if err := p.publisher.PublishPlanCompleted(ctx, result); err != nil {
			logger.Warn("publish plan completed", "error", err)
		}
	}

	return result, nil
}

// collectParticipants returns the requester followed by friends, dropping
// anyone without an address.
func (p *MeetupPlanner) collectParticipants(ctx context.Context, req domain.PlanRequest) []domain.Participant {
	logger := logging.FromContext(ctx)

	candidates := append([]domain.Participant{req.Requester}, req.Friends...)
	participants := make([]domain.Participant, 0, len(candidates))
	for _, c := range candidates {
		c.Address = strings.TrimSpace(c.Address)
		if c.Address == "" {
			metrics.ParticipantsDropped.WithLabelValues("empty_address").Inc()
			logger.Warn("participant has no address, skipping", "name", c.Name)
			continue
		}
		participants = append(participants, c)
	}
	return participants
}

type resolution struct {
	index int
	point domain.GeoPoint
	err   error
}

// resolveAll geocodes every participant concurrently and waits for all of
// them or the resolve timeout, whichever comes first. Participants without a
// result by then count as failures. Output order matches input order.
func (p *MeetupPlanner) resolveAll(ctx context.Context, participants []domain.Participant) []domain.ResolvedParticipant {
	logger := logging.FromContext(ctx)

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanResolve)
	defer span.End()

	rctx, cancel := context.WithTimeout(ctx, p.opts.ResolveTimeout)
	defer cancel()

	results := make(chan resolution, len(participants))
	go func() {
		var g errgroup.Group
		g.SetLimit(MaxConcurrentLookups)
		for i, part := range participants {
			g.Go(func() error {
				point, err := p.resolver.Resolve(rctx, part.Address)
				results <- resolution{index: i, point: point, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()

	out := make([]domain.ResolvedParticipant, len(participants))
	for i, part := range participants {
		out[i] = domain.ResolvedParticipant{Participant: part}
	}

	received := 0
wait:
	for received < len(participants) {
		select {
		case r := <-results:
			received++
			if r.err != nil {
				p.dropParticipant(logger, participants[r.index], r.err)
				continue
			}
			out[r.index].Point = r.point
			out[r.index].Resolved = true
		case <-rctx.Done():
			break wait
		}
	}

	if received < len(participants) {
		logger.Warn("resolve deadline reached", "pending", len(participants)-received, "timeout", p.opts.ResolveTimeout.String())
		metrics.ParticipantsDropped.WithLabelValues("timeout").Add(float64(len(participants) - received))
	}

	return out
}

func (p *MeetupPlanner) dropParticipant(logger *slog.Logger, part domain.Participant, err error) {
	reason := "error"
	var rf *domain.ResolutionFailure
	if errors.As(err, &rf) {
		reason = string(rf.Reason)
	}
	metrics.ParticipantsDropped.WithLabelValues(reason).Inc()
	logger.Warn("participant address not resolved", "name", part.Name, "reason", reason, "error", err)
}

func (p *MeetupPlanner) advance(session *domain.Session, logger *slog.Logger) error {
	if err := session.Advance(p.now()); err != nil {
		return err
	}
	logger.Debug("session state", "state", string(session.State))
	return nil
}

func (p *MeetupPlanner) checkCancelled(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		logging.FromContext(ctx).Info("planning cancelled", "state", string(session.State))
		session.Cancel(p.now())
		metrics.PlansTotal.WithLabelValues("cancelled").Inc()
		return err
	}
	return nil
}

func (p *MeetupPlanner) publishFailed(ctx context.Context, sessionID, reason string) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishPlanFailed(ctx, sessionID, reason); err != nil {
		logging.FromContext(ctx).Warn("publish plan failed", "error", err)
	}
}

// MapsURL returns a shareable map link pinning point as "Meetup Point".
func MapsURL(point domain.GeoPoint) string {
	q := url.Values{}
	q.Set("ll", fmt.Sprintf("%.6f,%.6f", point.Lat, point.Lon))
	q.Set("q", "Meetup Point")
	return "https://maps.apple.com/?" + q.Encode()
}
