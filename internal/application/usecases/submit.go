package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// Submitter sends one reservation and turns the backend's reply into an outcome.
type Submitter struct {
	Backend reservation.Backend
	Log     *zap.Logger
}

// Submit never returns an error: every failure is an outcome the form can show.
func (s Submitter) Submit(ctx context.Context, amenityID string, w reservation.TimeWindow, answers reservation.AnswerSet) reservation.Outcome {
	log := s.logger().With(zap.String("amenity_id", amenityID))
	if s.Backend == nil {
		log.Error("submit: backend is nil")
		return reservation.TransportFailure()
	}

	p := reservation.NewPayload(amenityID, w, answers)
	if _, err := p.FormFields(); err != nil {
		log.Error("submit: payload not encodable", zap.Error(err), zap.Int64s("answered", answers.IDs()))
		return reservation.Outcome{Kind: reservation.OutcomeGenericFailure, Message: reservation.IncompleteMessage}
	}

	start := time.Now()
	resp, err := s.Backend.CreateReservation(ctx, p)
	if err != nil {
		log.Warn("submit: request failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return reservation.TransportFailure()
	}

	out := reservation.Interpret(resp)
	log.Info("submit: done",
		zap.Stringer("outcome", out.Kind),
		zap.String("backend_error", resp.Error),
		zap.Time("start", w.Start),
		zap.Time("end", w.End),
		zap.Int64s("answered", answers.IDs()),
		zap.Duration("took", time.Since(start)),
	)
	return out
}

func (s Submitter) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
