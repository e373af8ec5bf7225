package devbackend

import (
	"context"
	"sync"
	"time"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// Reservation is a request the development backend accepted.
type Reservation struct {
	ID         int64     `json:"id"`
	ResourceID int64     `json:"resource_id"`
	Start      time.Time `json:"start_time"`
	End        time.Time `json:"end_time"`
	Answers    []*bool   `json:"answers"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store interface {
	Amenities(ctx context.Context) ([]reservation.Amenity, error)
	Questions(ctx context.Context) ([]reservation.Question, error)
	CreateReservation(ctx context.Context, r Reservation) (int64, error)
	// GetReservation returns reservation.ErrNotFound for an unknown id.
	GetReservation(ctx context.Context, id int64) (Reservation, error)
}

var (
	SeedAmenities = []reservation.Amenity{
		{ID: 1, Name: "Pool"},
		{ID: 2, Name: "Clubhouse"},
		{ID: 3, Name: "Guest parking"},
	}
	SeedQuestions = []reservation.Question{
		{ID: 1, Question: "Are you a resident?"},
		{ID: 2, Question: "Have you read the amenity rules?"},
	}
)

// MemoryStore keeps everything in process.
type MemoryStore struct {
	mu           sync.Mutex
	amenities    []reservation.Amenity
	questions    []reservation.Question
	reservations []Reservation
	nextID       int64
}

func NewMemoryStore(amenities []reservation.Amenity, questions []reservation.Question) *MemoryStore {
	return &MemoryStore{
		amenities: append([]reservation.Amenity{}, amenities...),
		questions: append([]reservation.Question{}, questions...),
	}
}

func (m *MemoryStore) Amenities(ctx context.Context) ([]reservation.Amenity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]reservation.Amenity{}, m.amenities...), nil
}

func (m *MemoryStore) Questions(ctx context.Context) ([]reservation.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]reservation.Question{}, m.questions...), nil
}

func (m *MemoryStore) CreateReservation(ctx context.Context, r Reservation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	m.reservations = append(m.reservations, r)
	return r.ID, nil
}

func (m *MemoryStore) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return Reservation{}, reservation.ErrNotFound
}

func (m *MemoryStore) Reservations() []Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Reservation{}, m.reservations...)
}
