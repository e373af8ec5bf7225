package usecases

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// Catalog holds what the form renders against. A list is nil when its fetch
// failed, which callers use to keep whatever they had before.
type Catalog struct {
	Amenities []reservation.Amenity
	Questions []reservation.Question
}

// ErrNoBackend is returned by use cases constructed without a backend.
var ErrNoBackend = errors.New("backend is nil")

type CatalogLoader struct {
	Backend reservation.Backend
	Log     *zap.Logger
}

// Load fetches amenities and questions concurrently. The fetches are
// independent: one failing does not cancel or discard the other.
func (l CatalogLoader) Load(ctx context.Context) (Catalog, error) {
	if l.Backend == nil {
		return Catalog{}, ErrNoBackend
	}
	var c Catalog
	var amenErr, qErr error
	var g errgroup.Group
	g.Go(func() error {
		as, err := l.Backend.GetAmenities(ctx)
		if err != nil {
			amenErr = fmt.Errorf("get amenities: %w", err)
			return amenErr
		}
		if as == nil {
			as = []reservation.Amenity{}
		}
		c.Amenities = as
		return nil
	})
	g.Go(func() error {
		qs, err := l.Backend.GetQuestions(ctx)
		if err != nil {
			qErr = fmt.Errorf("get questions: %w", err)
			return qErr
		}
		if qs == nil {
			qs = []reservation.Question{}
		}
		c.Questions = qs
		return nil
	})
	_ = g.Wait()

	err := errors.Join(amenErr, qErr)
	if err != nil && l.Log != nil {
		l.Log.Warn("catalog: load incomplete", zap.Error(err))
	}
	return c, err
}
