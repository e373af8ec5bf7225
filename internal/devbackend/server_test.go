package devbackend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/amenity-reserve/internal/devbackend"
	"github.com/example/amenity-reserve/internal/domain/reservation"
	"github.com/example/amenity-reserve/internal/infrastructure/condo"
)

func newBackend(t *testing.T, token string) (*devbackend.MemoryStore, *condo.Client) {
	t.Helper()
	store := devbackend.NewMemoryStore(devbackend.SeedAmenities, devbackend.SeedQuestions)
	srv := httptest.NewServer((&devbackend.Server{Store: store, Token: token}).Routes())
	t.Cleanup(srv.Close)
	return store, condo.New(condo.Options{BaseURL: srv.URL, Token: token})
}

func window() reservation.TimeWindow {
	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	return reservation.TimeWindow{Start: start, End: start.Add(time.Hour)}
}

func allYes() reservation.AnswerSet {
	return reservation.AnswerSet{}.SetAnswer(1, true).SetAnswer(2, true)
}

func TestDevBackend_Catalog(t *testing.T) {
	_, c := newBackend(t, "")

	as, err := c.GetAmenities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, devbackend.SeedAmenities, as)

	qs, err := c.GetQuestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, devbackend.SeedQuestions, qs)
}

func TestDevBackend_AcceptsCompleteReservation(t *testing.T) {
	store, c := newBackend(t, "")

	resp, err := c.CreateReservation(context.Background(), reservation.NewPayload("3", window(), allYes()))

	require.NoError(t, err)
	assert.Equal(t, reservation.Response{Success: true}, resp)
	rs := store.Reservations()
	require.Len(t, rs, 1)
	assert.Equal(t, int64(3), rs[0].ResourceID)
	assert.True(t, window().Start.Equal(rs[0].Start))
}

func TestDevBackend_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		amenity string
		window  reservation.TimeWindow
		answers reservation.AnswerSet
	}{
		{"missing answer", "3", window(), reservation.AnswerSet{}.SetAnswer(1, true)},
		{"false answer", "3", window(), allYes().SetAnswer(2, false)},
		{"no amenity", "", window(), allYes()},
		{"unknown amenity", "99", window(), allYes()},
		{"end before start", "3", reservation.TimeWindow{Start: window().End, End: window().Start}, allYes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, c := newBackend(t, "")

			resp, err := c.CreateReservation(context.Background(), reservation.NewPayload(tt.amenity, tt.window, tt.answers))

			require.NoError(t, err)
			assert.Equal(t, reservation.Response{Error: "Unprocessable Entity"}, resp)
			assert.Empty(t, store.Reservations())
		})
	}
}

func TestDevBackend_Token(t *testing.T) {
	store := devbackend.NewMemoryStore(devbackend.SeedAmenities, nil)
	srv := httptest.NewServer((&devbackend.Server{Store: store, Token: "s3cret"}).Routes())
	defer srv.Close()

	_, err := condo.New(condo.Options{BaseURL: srv.URL, Token: "wrong"}).GetAmenities(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")

	as, err := condo.New(condo.Options{BaseURL: srv.URL, Token: "s3cret"}).GetAmenities(context.Background())
	require.NoError(t, err)
	assert.Len(t, as, 3)
}

func TestDevBackend_AcceptsURLEncoded(t *testing.T) {
	store := devbackend.NewMemoryStore(devbackend.SeedAmenities, devbackend.SeedQuestions)
	srv := httptest.NewServer((&devbackend.Server{Store: store}).Routes())
	defer srv.Close()

	form := url.Values{
		"reservation[resource_id]": {"1"},
		"reservation[start_time]":  {"2024-01-01T10:00:00Z"},
		"reservation[end_time]":    {"2024-01-01T11:00:00Z"},
		"answers[]":                {"[null,true,true]"},
	}
	res, err := http.Post(srv.URL+"/api/reservations", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Len(t, store.Reservations(), 1)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	_, problems := devbackend.Validate("", "yesterday", "", "nope", devbackend.SeedAmenities, devbackend.SeedQuestions)

	assert.Contains(t, problems, "resource_id is required")
	assert.Contains(t, problems, "start_time is invalid")
	assert.Contains(t, problems, "end_time is invalid")
	assert.Contains(t, problems, "answers are invalid")
	assert.Contains(t, problems, "question 1 must be answered yes")
	assert.Contains(t, problems, "question 2 must be answered yes")
}

func TestDevBackend_GetReservation(t *testing.T) {
	store := devbackend.NewMemoryStore(devbackend.SeedAmenities, devbackend.SeedQuestions)
	srv := httptest.NewServer((&devbackend.Server{Store: store, Token: "tok"}).Routes())
	defer srv.Close()
	c := condo.New(condo.Options{BaseURL: srv.URL, Token: "tok"})
	_, err := c.CreateReservation(context.Background(), reservation.NewPayload("2", window(), allYes()))
	require.NoError(t, err)

	get := func(path string) (*http.Response, devbackend.Reservation) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer tok")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		var got devbackend.Reservation
		_ = json.NewDecoder(res.Body).Decode(&got)
		return res, got
	}

	res, got := get("/api/reservations/1")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, int64(2), got.ResourceID)
	assert.True(t, window().End.Equal(got.End))
	require.Len(t, got.Answers, 3)
	assert.True(t, *got.Answers[2])

	res, _ = get("/api/reservations/42")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
