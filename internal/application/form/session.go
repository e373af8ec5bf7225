package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/application/usecases"
	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// View is the screen a session currently shows. Exactly one is active.
type View int

const (
	ViewForm View = iota
	ViewThanks
)

func (v View) String() string {
	if v == ViewThanks {
		return "thanks"
	}
	return "form"
}

var (
	ErrClosed         = errors.New("form session closed")
	ErrFinished       = errors.New("reservation already confirmed")
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrRegistryFull   = errors.New("too many open form sessions")
)

type Options struct {
	Backend  reservation.Backend
	Log      *zap.Logger
	Now      func() time.Time
	Location *time.Location
	Device   reservation.DeviceClass

	// MaxSessions caps the live sessions of a Registry; zero means no cap.
	MaxSessions int
}

// State is a copy of everything a renderer needs.
type State struct {
	ID           string
	View         View
	ErrorMessage string
	Submitting   bool
	Loaded       bool

	Mode      string
	Fields    []reservation.Field
	AmenityID string
	Window    reservation.TimeWindow
	Answers   reservation.AnswerSet
	Amenities []reservation.Amenity
	Questions []reservation.Question

	Last reservation.Outcome
}

// Session is the controller behind one reservation form. All methods are safe
// for concurrent use; backend calls run without holding the lock.
type Session struct {
	id        string
	log       *zap.Logger
	now       func() time.Time
	loader    usecases.CatalogLoader
	submitter usecases.Submitter
	input     reservation.TimeInput

	mu         sync.Mutex
	composer   *reservation.Composer
	answers    reservation.AnswerSet
	amenityID  string
	amenities  []reservation.Amenity
	questions  []reservation.Question
	view       View
	errMsg     string
	last       reservation.Outcome
	submitting bool
	closed     bool
	loaded     bool
	loadGen    uint64
	lastSeen   time.Time
}

func New(id string, opts Options) *Session {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log = log.With(zap.String("session", id))
	return &Session{
		id:        id,
		log:       log,
		now:       now,
		loader:    usecases.CatalogLoader{Backend: opts.Backend, Log: log},
		submitter: usecases.Submitter{Backend: opts.Backend, Log: log},
		input:     reservation.SelectInput(opts.Device),
		composer:  reservation.NewComposer(now, opts.Location),
		amenities: []reservation.Amenity{},
		questions: []reservation.Question{},
		lastSeen:  now(),
	}
}

func (s *Session) ID() string { return s.id }

// Mount starts loading the catalog in the background. The returned channel
// yields the load result once; callers may wait on it or drop it.
func (s *Session) Mount(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := s.Load(ctx)
		if err != nil && !errors.Is(err, ErrClosed) {
			s.log.Warn("session: catalog load failed", zap.Error(err))
		}
		done <- err
	}()
	return done
}

// Load fetches the catalog and replaces whichever lists arrived. Results that
// arrive after Close, or after a newer Load has started, are dropped.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	c, err := s.loader.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug("session: dropping catalog that arrived after close")
		return ErrClosed
	}
	if gen != s.loadGen {
		s.log.Debug("session: dropping stale catalog", zap.Uint64("gen", gen))
		return err
	}
	if c.Amenities != nil {
		s.amenities = c.Amenities
	}
	if c.Questions != nil {
		s.questions = c.Questions
	}
	if err == nil {
		s.loaded = true
	}
	return err
}

// mutate runs fn under the lock if the form can still be edited.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrClosed
	case s.view == ViewThanks:
		return ErrFinished
	}
	s.lastSeen = s.now()
	return fn()
}

func (s *Session) SelectAmenity(id string) error {
	return s.mutate(func() error {
		s.amenityID = id
		return nil
	})
}

// Apply edits one date/time control through the session's input mode.
func (s *Session) Apply(f reservation.Field, raw string) error {
	return s.mutate(func() error {
		return s.input.Apply(s.composer, f, raw)
	})
}

// SetAnswer records an answer for one of the loaded questions.
func (s *Session) SetAnswer(questionID int64, value bool) error {
	return s.mutate(func() error {
		if !s.hasQuestion(questionID) {
			return fmt.Errorf("question %d: %w", questionID, reservation.ErrUnknownQuestion)
		}
		s.answers = s.answers.SetAnswer(questionID, value)
		return nil
	})
}

func (s *Session) hasQuestion(id int64) bool {
	for _, q := range s.questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Submit sends the current form. A second call while one is outstanding
// returns ErrSubmitInFlight without contacting the backend.
func (s *Session) Submit(ctx context.Context) (out reservation.Outcome, err error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return reservation.Outcome{}, ErrClosed
	case s.view == ViewThanks:
		last := s.last
		s.mu.Unlock()
		return last, ErrFinished
	case s.submitting:
		s.mu.Unlock()
		return reservation.Outcome{}, ErrSubmitInFlight
	}
	s.submitting = true
	s.lastSeen = s.now()
	amenityID, w, answers := s.amenityID, s.composer.Window(), s.answers
	s.mu.Unlock()
	s.log.Debug("session: submitting", zap.String("amenity_id", amenityID), zap.Any("answers", answers.Snapshot()))

	// the flag is cleared even if the backend panics
	sent := false
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.submitting = false
		if !sent {
			return
		}
		if s.closed {
			err = ErrClosed
			return
		}
		s.last = out
		switch {
		case out.Succeeded():
			s.view = ViewThanks
			s.errMsg = ""
		case out.Failed():
			s.errMsg = out.Message
		}
	}()

	out = s.submitter.Submit(ctx, amenityID, w, answers)
	sent = true
	return out, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:           s.id,
		View:         s.view,
		ErrorMessage: s.errMsg,
		Submitting:   s.submitting,
		Loaded:       s.loaded,
		Mode:         s.input.Mode(),
		Fields:       append([]reservation.Field(nil), s.input.Fields()...),
		AmenityID:    s.amenityID,
		Window:       s.composer.Window(),
		Answers:      s.answers,
		Amenities:    append([]reservation.Amenity(nil), s.amenities...),
		Questions:    append([]reservation.Question(nil), s.questions...),
		Last:         s.last,
	}
}

// Close ends the session. In-flight loads and submissions finish but their
// results are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
