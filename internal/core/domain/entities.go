package domain

import (
	"time"
)

// Participant is one person contributing a location to a planning session.
type Participant struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	IsRequester bool   `json:"is_requester"`
}

// ResolvedParticipant binds a participant to the coordinate its address resolved to.
type ResolvedParticipant struct {
	Participant Participant `json:"participant"`
	Point       GeoPoint    `json:"point"`
	Resolved    bool        `json:"resolved"`
}

// MeetingPoint is the finalized meeting coordinate. Adjusted is true when the
// raw centroid was not accepted as-is.
type MeetingPoint struct {
	Point    GeoPoint `json:"point"`
	Adjusted bool     `json:"adjusted"`
	Locality string   `json:"locality,omitempty"`
}

// VenueSource tells where a venue recommendation came from.
type VenueSource string

const (
	VenueSourceSaved    VenueSource = "saved"
	VenueSourceSearched VenueSource = "searched"
)

// Venue is a candidate place to meet, ranked by distance to the meeting point.
type Venue struct {
	Name          string      `json:"name"`
	Category      string      `json:"category,omitempty"`
	Location      GeoPoint    `json:"location"`
	Source        VenueSource `json:"source"`
	Distance      float64     `json:"distance"` // meters from the meeting point
	DistanceLabel string      `json:"distance_label"`
	Address       string      `json:"address,omitempty"`
	Color         string      `json:"color,omitempty"`
	Emoji         string      `json:"emoji,omitempty"`
}

// VenueCandidate is a raw result returned by a venue search service.
type VenueCandidate struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
	Address  string   `json:"address,omitempty"`
	Category string   `json:"category,omitempty"`
}

// User is a directory entry; only what planning needs.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Username  string    `json:"username"`
	Address   string    `json:"address"`
	FriendIDs []string  `json:"friend_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// Board groups saved places under a name, colour and emoji.
type Board struct {
	ID      string       `json:"id"`
	OwnerID string       `json:"owner_id"`
	Name    string       `json:"name"`
	Emoji   string       `json:"emoji"`
	Color   string       `json:"color"`
	Places  []SavedPlace `json:"places"`
}

// SavedPlace is a place saved on a board. Its coordinate comes from geocoding Address.
type SavedPlace struct {
	ID      string `json:"id"`
	BoardID string `json:"board_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Notes   string `json:"notes,omitempty"`
}

// SavedVenue is a saved place flattened with its board metadata, ready for ranking.
type SavedVenue struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	BoardName string `json:"board_name"`
	Color     string `json:"color,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
}

// SavedVenues flattens boards into ranking input, keeping board then place order.
func SavedVenues(boards []Board) []SavedVenue {
	var out []SavedVenue
	for _, b := range boards {
		for _, p := range b.Places {
			if p.Address == "" {
				continue
			}
			out = append(out, SavedVenue{
				Name:      p.Name,
				Address:   p.Address,
				BoardName: b.Name,
				Color:     b.Color,
				Emoji:     b.Emoji,
			})
		}
	}
	return out
}

// PlanRequest is the input of one planning session. SessionID is optional;
// a new one is generated when empty.
type PlanRequest struct {
	SessionID   string        `json:"session_id,omitempty"`
	Requester   Participant   `json:"requester"`
	Friends     []Participant `json:"friends"`
	Activity    string        `json:"activity"`
	SavedVenues []SavedVenue  `json:"saved_venues,omitempty"`
}

// PlanResult is returned once a session reaches Complete.
type PlanResult struct {
	SessionID    string                `json:"session_id"`
	MeetingPoint MeetingPoint          `json:"meeting_point"`
	Centroid     GeoPoint              `json:"centroid"`
	Participants []ResolvedParticipant `json:"participants"`
	Venues       []Venue               `json:"venues"`
	Region       MapRegion             `json:"region"`
	MapsURL      string                `json:"maps_url"`
	CompletedAt  time.Time             `json:"completed_at"`
}
