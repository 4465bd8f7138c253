package natsadapter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/midzapp/midz/internal/core/domain"
)

// SubjectPrefix is the subject namespace of planning events. A session's
// events are published on SubjectPrefix + "." + sessionID.
const SubjectPrefix = "meetup.plan"

// Event statuses.
const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// PlanSubject returns the subject for a session, or the wildcard covering
// every session when sessionID is empty.
func PlanSubject(sessionID string) string {
	if sessionID == "" {
		return SubjectPrefix + ".>"
	}
	return SubjectPrefix + "." + sessionID
}

// PlanEvent is the payload published when a session ends.
type PlanEvent struct {
	SessionID string             `json:"session_id"`
	Status    string             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Result    *domain.PlanResult `json:"result,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// EncodeEvent serializes an event as a protobuf google.protobuf.Struct.
func EncodeEvent(ev PlanEvent) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeEvent parses a message produced by EncodeEvent.
func DecodeEvent(data []byte) (PlanEvent, error) {
	js, err := EventJSON(data)
	if err != nil {
		return PlanEvent{}, err
	}
	var ev PlanEvent
	if err := json.Unmarshal(js, &ev); err != nil {
		return PlanEvent{}, err
	}
	return ev, nil
}

// EventJSON renders an encoded event as JSON for clients that do not speak protobuf.
func EventJSON(data []byte) ([]byte, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal protobuf: %w", err)
	}
	return protojson.Marshal(&s)
}

// ValidSessionID reports whether id can be used as a single subject token.
func ValidSessionID(id string) bool {
	return id != "" && !strings.ContainsAny(id, ".*> \t\r\n")
}
