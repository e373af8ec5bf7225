package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

func window() reservation.TimeWindow {
	return reservation.TimeWindow{
		Start: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 1, 11, 0, 0, 0, time.UTC),
	}
}

func TestSubmit_OutcomeMapping(t *testing.T) {
	tests := []struct {
		name    string
		resp    reservation.Response
		respErr error
		want    reservation.Outcome
	}{
		{"success", reservation.Response{Success: true}, nil, reservation.Outcome{Kind: reservation.OutcomeSuccess}},
		{"validation", reservation.Response{Error: "Unprocessable Entity"}, nil,
			reservation.Outcome{Kind: reservation.OutcomeValidationFailure, Message: reservation.ValidationMessage}},
		{"generic", reservation.Response{Error: "Server down"}, nil,
			reservation.Outcome{Kind: reservation.OutcomeGenericFailure, Message: "Server down"}},
		{"transport", reservation.Response{}, errors.New("connection refused"), reservation.TransportFailure()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{resp: tt.resp, respErr: tt.respErr}
			s := Submitter{Backend: b, Log: zap.NewNop()}

			got := s.Submit(context.Background(), "3", window(), reservation.AnswerSet{})

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmit_BuildsPayload(t *testing.T) {
	b := &fakeBackend{resp: reservation.Response{Success: true}}
	answers := reservation.AnswerSet{}.SetAnswer(1, true).SetAnswer(2, true)

	Submitter{Backend: b}.Submit(context.Background(), "3", window(), answers)

	require.Len(t, b.payloads, 1)
	p := b.payloads[0]
	assert.Equal(t, "3", p.ResourceID)
	assert.Equal(t, window().Start, p.Start)
	assert.Equal(t, window().End, p.End)
	assert.Equal(t, answers.Snapshot(), p.Answers.Snapshot())
}

func TestSubmit_EmptyAmenityStillSent(t *testing.T) {
	b := &fakeBackend{resp: reservation.Response{Error: "Unprocessable Entity"}}

	got := Submitter{Backend: b}.Submit(context.Background(), "", window(), reservation.AnswerSet{})

	require.Len(t, b.payloads, 1)
	assert.Equal(t, reservation.OutcomeValidationFailure, got.Kind)
}

func TestSubmit_NilBackend(t *testing.T) {
	got := Submitter{}.Submit(context.Background(), "3", window(), reservation.AnswerSet{})

	assert.Equal(t, reservation.OutcomeTransportFailure, got.Kind)
}

func TestSubmit_UnencodableAnswersNotSent(t *testing.T) {
	b := &fakeBackend{resp: reservation.Response{Success: true}}
	answers := reservation.AnswerSet{}.SetAnswer(1<<62, true)

	got := Submitter{Backend: b}.Submit(context.Background(), "3", window(), answers)

	assert.Empty(t, b.payloads)
	assert.Equal(t, reservation.Outcome{Kind: reservation.OutcomeGenericFailure, Message: reservation.IncompleteMessage}, got)
}
