package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	natsadapter "github.com/midzapp/midz/internal/adapters/nats"
	"github.com/midzapp/midz/internal/core/domain"
)

const (
	maxFriends     = 50
	maxActivityLen = 200
	maxAddressLen  = 500
)

type participantInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PlanMeetupRequest is the body of POST /v1/meetups.
type PlanMeetupRequest struct {
	Requester   participantInput    `json:"requester"`
	Friends     []participantInput  `json:"friends"`
	Activity    string              `json:"activity"`
	SavedVenues []domain.SavedVenue `json:"saved_venues"`
}

func (r PlanMeetupRequest) validate() string {
	if len(r.Friends) > maxFriends {
		return "too many friends (max 50)"
	}
	if len(r.Activity) > maxActivityLen {
		return "activity too long (max 200 characters)"
	}
	if len(r.Requester.Address) > maxAddressLen {
		return "requester address too long"
	}
	for _, f := range r.Friends {
		if len(f.Address) > maxAddressLen {
			return "friend address too long"
		}
	}
	return ""
}

func (r PlanMeetupRequest) toDomain() domain.PlanRequest {
	name := r.Requester.Name
	if name == "" {
		name = "You"
	}
	req := domain.PlanRequest{
		Requester:   domain.Participant{Name: name, Address: r.Requester.Address, IsRequester: true},
		Activity:    strings.TrimSpace(r.Activity),
		SavedVenues: r.SavedVenues,
	}
	for _, f := range r.Friends {
		req.Friends = append(req.Friends, domain.Participant{Name: f.Name, Address: f.Address})
	}
	return req
}

// PlanAccepted is returned for asynchronous planning requests.
type PlanAccepted struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Subject   string `json:"subject"`
}

// PlanMeetupHandler plans a meetup from raw addresses. With ?async=true the
// session runs in the background and the result is delivered over /ws.
func PlanMeetupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PlanMeetupRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if msg := body.validate(); msg != "" {
			return errBadRequest(c, msg)
		}
		req := body.toDomain()

		if c.QueryBool("async", false) {
			if deps.Async == nil {
				return errUnavailable(c, "asynchronous planning not configured")
			}
			req.SessionID = uuid.NewString()
			if err := deps.Async.StartPlan(c.UserContext(), req); err != nil {
				return errInternal(c, "could not start planning")
			}
			return c.Status(fiber.StatusAccepted).JSON(PlanAccepted{
				SessionID: req.SessionID,
				Status:    "accepted",
				Subject:   natsadapter.PlanSubject(req.SessionID),
			})
		}

		result, err := deps.Planner.PlanMeetup(c.UserContext(), req)
		if err != nil {
			return planError(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(result)
	}
}

// PlanForUserRequest is the body of POST /v1/meetups/by-user.
type PlanForUserRequest struct {
	UserID    string   `json:"user_id"`
	FriendIDs []string `json:"friend_ids"`
	Activity  string   `json:"activity"`
}

// PlanForUserHandler plans a meetup for a registered user and a selection of
// their friends, ranking the user's saved places alongside search results.
func PlanForUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PlanForUserRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if _, err := uuid.Parse(body.UserID); err != nil {
			return errBadRequest(c, "user_id must be a UUID")
		}
		if len(body.FriendIDs) > maxFriends {
			return errBadRequest(c, "too many friends (max 50)")
		}
		for _, id := range body.FriendIDs {
			if _, err := uuid.Parse(id); err != nil {
				return errBadRequest(c, "friend_ids must be UUIDs")
			}
		}
		if len(body.Activity) > maxActivityLen {
			return errBadRequest(c, "activity too long (max 200 characters)")
		}

		result, err := deps.Planner.PlanForUser(c.UserContext(), body.UserID, body.FriendIDs, strings.TrimSpace(body.Activity))
		if err != nil {
			return planError(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(result)
	}
}

// ListBoardsHandler returns a user's boards with their saved places.
func ListBoardsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Boards == nil {
			return errUnavailable(c, "boards not available")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return errBadRequest(c, "user id must be a UUID")
		}

		boards, err := deps.Boards.ListByOwner(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if boards == nil {
			boards = []domain.Board{}
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: len(boards)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: paginate(boards, pg), Pagination: pg})
	}
}
