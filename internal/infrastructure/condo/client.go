package condo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/domain/reservation"
)

const (
	amenitiesPath    = "/api/amenities"
	questionsPath    = "/api/questions"
	reservationsPath = "/api/reservations"

	defaultTimeout = 10 * time.Second
	maxBody        = 1 << 20
)

// Client talks to the condo management backend that owns amenities,
// questions and reservations.
type Client struct {
	hc      *http.Client
	baseURL string
	token   string
	log     *zap.Logger
}

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is then ignored.
	HTTPClient *http.Client
	Log        *zap.Logger
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		hc:      hc,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		log:     log,
	}
}

var _ reservation.Backend = (*Client)(nil)

func (c *Client) GetAmenities(ctx context.Context) ([]reservation.Amenity, error) {
	var out []reservation.Amenity
	if err := c.getJSON(ctx, amenitiesPath, &out); err != nil {
		return nil, fmt.Errorf("amenities: %w", err)
	}
	return out, nil
}

func (c *Client) GetQuestions(ctx context.Context) ([]reservation.Question, error) {
	var out []reservation.Question
	if err := c.getJSON(ctx, questionsPath, &out); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	return out, nil
}

// CreateReservation posts the payload as multipart form data. A reply that
// arrives is never an error, whatever its status; err is only set when no
// usable reply came back.
func (c *Client) CreateReservation(ctx context.Context, p reservation.Payload) (reservation.Response, error) {
	fields, err := p.FormFields()
	if err != nil {
		return reservation.Response{}, err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return reservation.Response{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return reservation.Response{}, err
	}

	status, body, err := c.do(ctx, http.MethodPost, reservationsPath, mw.FormDataContentType(), &buf)
	if err != nil {
		return reservation.Response{}, err
	}
	return decodeResponse(status, body), nil
}

// decodeResponse reads {"success":true} or {"error":"..."}. A failed status
// with no error in the body reports the status text, so a bare 422 becomes
// "Unprocessable Entity".
func decodeResponse(status int, body []byte) reservation.Response {
	var r reservation.Response
	_ = json.Unmarshal(body, &r)
	if r.Success || r.Error != "" {
		return r
	}
	if status >= 400 {
		r.Error = http.StatusText(status)
		if r.Error == "" {
			r.Error = fmt.Sprintf("status %d", status)
		}
	}
	return r
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		var r struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &r)
		if r.Error != "" {
			return fmt.Errorf("%s (status=%d)", r.Error, status)
		}
		return fmt.Errorf("unexpected status %d", status)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("accept", "application/json")
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return res.StatusCode, nil, err
	}
	c.log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return res.StatusCode, b, nil
}
