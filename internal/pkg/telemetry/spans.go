package telemetry

// Span names for the planner stages.
const (
	SpanPlanMeetup = "meetup.plan"
	SpanResolve    = "meetup.resolve"
	SpanCentroid   = "meetup.centroid"
	SpanValidate   = "meetup.validate"
	SpanRankVenues = "meetup.rank_venues"

	TracerName = "github.com/midzapp/midz"
)

// Span attribute keys.
const (
	AttrSessionID    = "midz.session_id"
	AttrParticipants = "midz.participants"
	AttrResolved     = "midz.participants_resolved"
	AttrAdjusted     = "midz.meeting_point_adjusted"
	AttrVenues       = "midz.venues"
)
