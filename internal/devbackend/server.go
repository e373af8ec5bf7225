package devbackend

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// Server is a local stand-in for the condo backend. It validates reservations
// the way the real one is expected to and answers in the same shapes.
type Server struct {
	Store Store
	Token string
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireToken)
	api.HandleFunc("/amenities", s.handleAmenities).Methods(http.MethodGet)
	api.HandleFunc("/questions", s.handleQuestions).Methods(http.MethodGet)
	api.HandleFunc("/reservations", s.handleCreateReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id:[0-9]+}", s.handleGetReservation).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !secureEq(got, s.Token) {
				writeError(w, http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func secureEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleAmenities(w http.ResponseWriter, r *http.Request) {
	as, err := s.Store.Amenities(r.Context())
	if err != nil {
		s.logger().Error("devbackend: list amenities", zap.Error(err))
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := s.Store.Questions(r.Context())
	if err != nil {
		s.logger().Error("devbackend: list questions", zap.Error(err))
		writeError(w, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			writeError(w, http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	as, err := s.Store.Amenities(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError)
		return
	}
	qs, err := s.Store.Questions(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError)
		return
	}

	res, problems := Validate(r.FormValue(reservation.ParamResourceID),
		r.FormValue(reservation.ParamStartTime),
		r.FormValue(reservation.ParamEndTime),
		r.FormValue(reservation.ParamAnswers),
		as, qs)
	if len(problems) > 0 {
		s.logger().Info("devbackend: rejected reservation", zap.Strings("problems", problems))
		writeError(w, http.StatusUnprocessableEntity)
		return
	}

	id, err := s.Store.CreateReservation(ctx, res)
	if err != nil {
		s.logger().Error("devbackend: create reservation", zap.Error(err))
		writeError(w, http.StatusInternalServerError)
		return
	}
	s.logger().Info("devbackend: reservation created",
		zap.Int64("id", id), zap.Int64("resource_id", res.ResourceID),
		zap.Time("start", res.Start), zap.Time("end", res.End))
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound)
		return
	}
	res, err := s.Store.GetReservation(r.Context(), id)
	switch {
	case errors.Is(err, reservation.ErrNotFound):
		writeError(w, http.StatusNotFound)
	case err != nil:
		s.logger().Error("devbackend: get reservation", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// Validate checks a submitted form against the catalog and reports every problem found.
func Validate(resourceID, start, end, answers string, as []reservation.Amenity, qs []reservation.Question) (Reservation, []string) {
	var res Reservation
	var problems []string

	id, err := strconv.ParseInt(strings.TrimSpace(resourceID), 10, 64)
	switch {
	case err != nil:
		problems = append(problems, "resource_id is required")
	case !hasAmenity(as, id):
		problems = append(problems, "resource_id is unknown")
	default:
		res.ResourceID = id
	}

	if res.Start, err = time.Parse(time.RFC3339, start); err != nil {
		problems = append(problems, "start_time is invalid")
	}
	if res.End, err = time.Parse(time.RFC3339, end); err != nil {
		problems = append(problems, "end_time is invalid")
	}
	if !res.Start.IsZero() && !res.End.IsZero() && !res.End.After(res.Start) {
		problems = append(problems, "end_time must be after start_time")
	}

	if res.Answers, err = reservation.DecodeAnswers(answers); err != nil {
		problems = append(problems, "answers are invalid")
	}
	for _, q := range qs {
		if q.ID < 0 || q.ID >= int64(len(res.Answers)) || res.Answers[q.ID] == nil || !*res.Answers[q.ID] {
			problems = append(problems, "question "+reservation.FormatID(q.ID)+" must be answered yes")
		}
	}
	return res, problems
}

func hasAmenity(as []reservation.Amenity, id int64) bool {
	for _, a := range as {
		if a.ID == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}
