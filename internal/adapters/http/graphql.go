package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"github.com/midzapp/midz/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the planner and board store.
// Object fields resolve from the domain types' json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	meetingPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MeetingPoint",
		Fields: graphql.Fields{
			"point":    &graphql.Field{Type: geoPointType},
			"adjusted": &graphql.Field{Type: graphql.Boolean},
			"locality": &graphql.Field{Type: graphql.String},
		},
	})

	participantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Participant",
		Fields: graphql.Fields{
			"name": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.ResolvedParticipant).Participant.Name, nil
				},
			},
			"address": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.ResolvedParticipant).Participant.Address, nil
				},
			},
			"is_requester": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(domain.ResolvedParticipant).Participant.IsRequester, nil
				},
			},
			"point":    &graphql.Field{Type: geoPointType},
			"resolved": &graphql.Field{Type: graphql.Boolean},
		},
	})

	venueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Venue",
		Fields: graphql.Fields{
			"name":           &graphql.Field{Type: graphql.String},
			"category":       &graphql.Field{Type: graphql.String},
			"location":       &graphql.Field{Type: geoPointType},
			"source":         &graphql.Field{Type: graphql.String},
			"distance":       &graphql.Field{Type: graphql.Float},
			"distance_label": &graphql.Field{Type: graphql.String},
			"address":        &graphql.Field{Type: graphql.String},
			"color":          &graphql.Field{Type: graphql.String},
			"emoji":          &graphql.Field{Type: graphql.String},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapRegion",
		Fields: graphql.Fields{
			"center":    &graphql.Field{Type: geoPointType},
			"lat_delta": &graphql.Field{Type: graphql.Float},
			"lon_delta": &graphql.Field{Type: graphql.Float},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MeetupPlan",
		Fields: graphql.Fields{
			"session_id":    &graphql.Field{Type: graphql.String},
			"meeting_point": &graphql.Field{Type: meetingPointType},
			"centroid":      &graphql.Field{Type: geoPointType},
			"participants":  &graphql.Field{Type: graphql.NewList(participantType)},
			"venues":        &graphql.Field{Type: graphql.NewList(venueType)},
			"region":        &graphql.Field{Type: regionType},
			"maps_url":      &graphql.Field{Type: graphql.String},
			"completed_at": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.PlanResult).CompletedAt.Format(time.RFC3339), nil
				},
			},
		},
	})

	savedPlaceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SavedPlace",
		Fields: graphql.Fields{
			"id":      &graphql.Field{Type: graphql.String},
			"name":    &graphql.Field{Type: graphql.String},
			"address": &graphql.Field{Type: graphql.String},
			"notes":   &graphql.Field{Type: graphql.String},
		},
	})

	boardType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Board",
		Fields: graphql.Fields{
			"id":     &graphql.Field{Type: graphql.String},
			"name":   &graphql.Field{Type: graphql.String},
			"emoji":  &graphql.Field{Type: graphql.String},
			"color":  &graphql.Field{Type: graphql.String},
			"places": &graphql.Field{Type: graphql.NewList(savedPlaceType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"planMeetup": &graphql.Field{
				Type:        planType,
				Description: "Find a fair meeting point for a set of addresses and rank venues around it",
				Args: graphql.FieldConfigArgument{
					"requester": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"friends":   &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.String))},
					"activity":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					requester := p.Args["requester"].(string)
					activity, _ := p.Args["activity"].(string)
					var friends []string
					if raw, ok := p.Args["friends"].([]interface{}); ok {
						for _, f := range raw {
							friends = append(friends, f.(string))
						}
					}

					// Same limits as POST /v1/meetups.
					check := PlanMeetupRequest{Requester: participantInput{Address: requester}, Activity: activity}
					for _, f := range friends {
						check.Friends = append(check.Friends, participantInput{Address: f})
					}
					if msg := check.validate(); msg != "" {
						return nil, errors.New(msg)
					}
					return deps.Planner.PlanAddresses(p.Context, requester, friends, strings.TrimSpace(activity))
				},
			},
			"boards": &graphql.Field{
				Type:        graphql.NewList(boardType),
				Description: "A user's boards and saved places",
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Boards == nil {
						return nil, errors.New("boards not available")
					}
					userID := p.Args["user_id"].(string)
					if _, err := uuid.Parse(userID); err != nil {
						return nil, errors.New("user_id must be a UUID")
					}
					return deps.Boards.ListByOwner(p.Context, userID)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
