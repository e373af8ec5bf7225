package usecases

import (
	"context"
	"sync"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

type fakeBackend struct {
	mu sync.Mutex

	amenities    []reservation.Amenity
	questions    []reservation.Question
	amenitiesErr error
	questionsErr error

	resp     reservation.Response
	respErr  error
	payloads []reservation.Payload
}

func (f *fakeBackend) GetAmenities(ctx context.Context) ([]reservation.Amenity, error) {
	return f.amenities, f.amenitiesErr
}

func (f *fakeBackend) GetQuestions(ctx context.Context) ([]reservation.Question, error) {
	return f.questions, f.questionsErr
}

func (f *fakeBackend) CreateReservation(ctx context.Context, p reservation.Payload) (reservation.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.resp, f.respErr
}
