package condo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

func payload() reservation.Payload {
	w := reservation.TimeWindow{
		Start: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 1, 11, 0, 0, 0, time.UTC),
	}
	return reservation.NewPayload("3", w, reservation.AnswerSet{}.SetAnswer(1, true).SetAnswer(2, true))
}

func TestClient_GetAmenitiesAndQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/amenities":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Pool"}]`))
		case "/api/questions":
			_, _ = w.Write([]byte(`[{"id":1,"question":"Are you a resident?"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(Options{BaseURL: srv.URL + "/", Token: "secret"})

	as, err := c.GetAmenities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []reservation.Amenity{{ID: 1, Name: "Pool"}}, as)

	qs, err := c.GetQuestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []reservation.Question{{ID: 1, Question: "Are you a resident?"}}, qs)
}

func TestClient_GetAmenitiesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database offline"}`))
	}))
	defer srv.Close()

	_, err := New(Options{BaseURL: srv.URL}).GetAmenities(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database offline")
}

func TestClient_CreateReservationSendsMultipart(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reservations", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	resp, err := New(Options{BaseURL: srv.URL}).CreateReservation(context.Background(), payload())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]string{
		"reservation[resource_id]": "3",
		"reservation[start_time]":  "2024-01-01T10:00:00Z",
		"reservation[end_time]":    "2024-01-01T11:00:00Z",
		"answers[]":                "[null,true,true]",
	}, got)
}

func TestClient_CreateReservationResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   reservation.Response
	}{
		{"success body", http.StatusCreated, `{"success":true}`, reservation.Response{Success: true}},
		{"error body", http.StatusUnprocessableEntity, `{"error":"Unprocessable Entity"}`, reservation.Response{Error: "Unprocessable Entity"}},
		{"bare 422", http.StatusUnprocessableEntity, ``, reservation.Response{Error: "Unprocessable Entity"}},
		{"bare 503", http.StatusServiceUnavailable, `<html>down</html>`, reservation.Response{Error: "Service Unavailable"}},
		{"custom error", http.StatusOK, `{"error":"Server down"}`, reservation.Response{Error: "Server down"}},
		{"empty ok", http.StatusOK, `{}`, reservation.Response{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := New(Options{BaseURL: srv.URL}).CreateReservation(context.Background(), payload())

			require.NoError(t, err)
			assert.Equal(t, tt.want, resp)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(Options{BaseURL: url, Timeout: time.Second}).CreateReservation(context.Background(), payload())

	assert.Error(t, err)
}
