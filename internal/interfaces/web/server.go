package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/application/form"
	"github.com/example/amenity-reserve/internal/domain/reservation"
)

// Server renders the reservation form and drives one form session per browser.
type Server struct {
	sessions *SessionManager
	forms    *form.Registry
	tmpl     *template.Template
	log      *zap.Logger
}

func New(sessions *SessionManager, forms *form.Registry, tmpl *template.Template, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{sessions: sessions, forms: forms, tmpl: tmpl, log: log}
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/field", s.handleField).Methods(http.MethodPost)
	r.HandleFunc("/answer", s.handleAnswer).Methods(http.MethodPost)
	r.HandleFunc("/reserve", s.handleReserve).Methods(http.MethodPost)
	r.HandleFunc("/new", s.handleNew).Methods(http.MethodPost)

	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(zapRecoveryLogger{s.log}))
	return recovery(logging(s.log, r))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type zapRecoveryLogger struct{ log *zap.Logger }

func (l zapRecoveryLogger) Println(v ...interface{}) {
	l.log.Error("http: panic recovered", zap.Any("panic", v))
}

// session returns the caller's form session, starting and loading a new one
// when the cookie is missing or points at a session that no longer exists.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*form.Session, error) {
	if id, ok := s.sessions.FormID(r); ok {
		if fs, ok := s.forms.Get(id); ok {
			return fs, nil
		}
	}
	fs, err := s.forms.Create(reservation.DeviceClassFromUserAgent(r.UserAgent()))
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SetFormID(w, r, fs.ID()); err != nil {
		s.forms.Remove(fs.ID())
		return nil, err
	}
	s.load(r.Context(), fs)
	return fs, nil
}

// load mounts the session and waits for its catalog. The load keeps going if
// the client goes away, so the next request finds the lists in place.
func (s *Server) load(ctx context.Context, fs *form.Session) {
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	done := fs.Mount(loadCtx)
	finished := make(chan struct{})
	go func() {
		<-done
		cancel()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
	}
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, form.ErrRegistryFull) {
		s.log.Warn("web: refusing new form session", zap.Int("live", s.forms.Len()))
		writeErr(w, err, http.StatusServiceUnavailable)
		return
	}
	writeErr(w, err, http.StatusInternalServerError)
}

type amenityOption struct {
	ID       string
	Name     string
	Selected bool
}

type questionItem struct {
	ID      int64
	Text    string
	Checked bool
}

type pageData struct {
	Title      string
	Error      string
	Native     bool
	Submitting bool

	Amenities []amenityOption
	Questions []questionItem

	Date      string
	StartTime string
	EndTime   string
	Start     string
	End       string
}

const loadTimeout = 10 * time.Second

const (
	inputDate     = "2006-01-02"
	inputClock    = "15:04"
	inputDateTime = "2006-01-02T15:04"
)

func newPageData(st form.State) pageData {
	d := pageData{
		Title:      "Reserve an Amenity",
		Error:      st.ErrorMessage,
		Native:     st.Mode == reservation.NativeInput{}.Mode(),
		Submitting: st.Submitting,
		Date:       st.Window.Start.Format(inputDate),
		StartTime:  st.Window.Start.Format(inputClock),
		EndTime:    st.Window.End.Format(inputClock),
		Start:      st.Window.Start.Format(inputDateTime),
		End:        st.Window.End.Format(inputDateTime),
	}
	for _, a := range st.Amenities {
		id := reservation.FormatID(a.ID)
		d.Amenities = append(d.Amenities, amenityOption{ID: id, Name: a.Name, Selected: id == st.AmenityID})
	}
	for _, q := range st.Questions {
		v, _ := st.Answers.Get(q.ID)
		d.Questions = append(d.Questions, questionItem{ID: q.ID, Text: q.Question, Checked: v})
	}
	return d
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	fs, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	st := fs.State()
	if !st.Loaded && st.View == form.ViewForm {
		s.load(r.Context(), fs)
		st = fs.State()
	}
	if st.View == form.ViewThanks {
		s.render(w, http.StatusOK, "thanks.html", pageData{Title: "Amenity reserved"})
		return
	}
	s.render(w, http.StatusOK, "reserve.html", newPageData(st))
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	fs, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	field := strings.TrimSpace(r.FormValue("field"))
	value := r.FormValue("value")
	if field == "amenity" {
		err = fs.SelectAmenity(strings.TrimSpace(value))
	} else {
		err = fs.Apply(reservation.Field(field), value)
	}
	s.afterEdit(w, r, err)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	fs, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	qid, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("question")), 10, 64)
	if err != nil {
		writeErr(w, errors.New("question must be a number"), http.StatusBadRequest)
		return
	}
	s.afterEdit(w, r, fs.SetAnswer(qid, truthy(r.FormValue("value"))))
}

func (s *Server) afterEdit(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case err == nil, errors.Is(err, form.ErrFinished):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, reservation.ErrUnknownField), errors.Is(err, reservation.ErrUnknownQuestion):
		writeErr(w, err, http.StatusBadRequest)
	case errors.Is(err, form.ErrClosed):
		s.sessions.Clear(w)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		writeErr(w, err, http.StatusInternalServerError)
	}
}

// handleReserve applies every posted control to the session, then submits.
func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	fs, err := s.session(w, r)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	if err := s.applyForm(fs, r); err != nil {
		s.afterEdit(w, r, err)
		return
	}

	_, err = fs.Submit(r.Context())
	switch {
	case err == nil, errors.Is(err, form.ErrFinished):
		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, form.ErrSubmitInFlight):
		d := newPageData(fs.State())
		d.Error = "Your reservation is already being submitted."
		s.render(w, http.StatusConflict, "reserve.html", d)
	default:
		s.afterEdit(w, r, err)
	}
}

func (s *Server) applyForm(fs *form.Session, r *http.Request) error {
	st := fs.State()
	if _, ok := r.PostForm["amenity"]; ok {
		if err := fs.SelectAmenity(strings.TrimSpace(r.PostForm.Get("amenity"))); err != nil {
			return err
		}
	}
	for _, f := range st.Fields {
		if v, ok := r.PostForm[string(f)]; ok && len(v) > 0 {
			if err := fs.Apply(f, v[0]); err != nil {
				return err
			}
		}
	}
	// unchecked boxes are not posted: only questions answered before become false
	for _, q := range st.Questions {
		key := "answer_" + reservation.FormatID(q.ID)
		if truthy(r.PostForm.Get(key)) {
			if err := fs.SetAnswer(q.ID, true); err != nil {
				return err
			}
		} else if _, answered := st.Answers.Get(q.ID); answered {
			if err := fs.SetAnswer(q.ID, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	if id, ok := s.sessions.FormID(r); ok {
		s.forms.Remove(id)
	}
	s.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func writeErr(w http.ResponseWriter, err error, code int) {
	w.WriteHeader(code)
	_, _ = w.Write([]byte(err.Error()))
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("web: render", zap.String("template", name), zap.Error(err))
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Start serves h until ctx is done, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
