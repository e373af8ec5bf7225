package reservation

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Payload is what gets sent to the backend for a single reservation attempt.
type Payload struct {
	ResourceID string
	Start      time.Time
	End        time.Time
	Answers    AnswerSet
}

// NewPayload builds a payload from an amenity selection, a window and the answers.
// An empty amenity selection is passed through; the backend rejects it.
func NewPayload(amenityID string, w TimeWindow, answers AnswerSet) Payload {
	return Payload{ResourceID: amenityID, Start: w.Start, End: w.End, Answers: answers}
}

// Parameter names of the multipart body.
const (
	ParamResourceID = "reservation[resource_id]"
	ParamStartTime  = "reservation[start_time]"
	ParamEndTime    = "reservation[end_time]"
	ParamAnswers    = "answers[]"
)

// FormField is one name/value pair of the outbound request.
type FormField struct {
	Name  string
	Value string
}

// FormFields returns the request fields in wire order.
func (p Payload) FormFields() ([]FormField, error) {
	answers, err := p.Answers.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return []FormField{
		{Name: ParamResourceID, Value: p.ResourceID},
		{Name: ParamStartTime, Value: FormatTimestamp(p.Start)},
		{Name: ParamEndTime, Value: FormatTimestamp(p.End)},
		{Name: ParamAnswers, Value: answers},
	}, nil
}

// FormatTimestamp is the string form of a timestamp on the wire.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// FormatID is the string form of an amenity or question id.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Response is the backend's answer to a reservation request.
// Exactly one of Success or Error is expected to be set.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Backend is the remote service that owns amenities, questions and reservations.
type Backend interface {
	GetAmenities(ctx context.Context) ([]Amenity, error)
	GetQuestions(ctx context.Context) ([]Question, error)
	CreateReservation(ctx context.Context, p Payload) (Response, error)
}
