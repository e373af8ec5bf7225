package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/amenity-reserve/internal/application/form"
	"github.com/example/amenity-reserve/internal/domain/reservation"
	"github.com/example/amenity-reserve/internal/infrastructure/condo"
)

// ErrReservationFailed is returned when the backend did not accept the reservation.
var ErrReservationFailed = errors.New("reservation failed")

func newReserveCmd() *cobra.Command {
	var (
		amenity string
		date    string
		start   string
		end     string
		answers []string
	)

	c := &cobra.Command{
		Use:   "reserve",
		Short: "Fill in and submit one reservation form",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			parsed, err := parseAnswers(answers)
			if err != nil {
				return err
			}

			backend := condo.New(condo.Options{BaseURL: cfg.BackendURL, Token: cfg.BackendToken, Timeout: cfg.BackendTimeout, Log: log})
			// the CLI fills the same date + clock controls a phone gets
			fs := form.New("cli", form.Options{Backend: backend, Log: log, Location: loc, Device: reservation.DeviceMobile})
			defer fs.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.BackendTimeout)
			defer cancel()
			if err := fs.Load(ctx); err != nil {
				log.Warn("reserve: catalog incomplete", zap.Error(err))
			}

			if err := fs.SelectAmenity(amenity); err != nil {
				return err
			}
			for _, f := range []struct {
				field reservation.Field
				raw   string
			}{
				{reservation.FieldDate, date},
				{reservation.FieldStartTime, start},
				{reservation.FieldEndTime, end},
			} {
				if f.raw == "" {
					continue
				}
				if err := fs.Apply(f.field, f.raw); err != nil {
					return err
				}
			}
			for _, a := range parsed {
				if err := fs.SetAnswer(a.id, a.value); err != nil {
					return err
				}
			}

			out, err := fs.Submit(ctx)
			if err != nil {
				return err
			}
			st := fs.State()
			w := cmd.OutOrStdout()
			if out.Succeeded() {
				fmt.Fprintf(w, "reserved amenity %s from %s to %s\n", st.AmenityID,
					reservation.FormatTimestamp(st.Window.Start), reservation.FormatTimestamp(st.Window.End))
				return nil
			}
			fmt.Fprintf(w, "%s: %s\n", out.Kind, out.Message)
			return ErrReservationFailed
		},
	}

	c.Flags().StringVar(&amenity, "amenity", "", "amenity id (see `amenityres catalog`)")
	c.Flags().StringVar(&date, "date", "", "reservation date YYYY-MM-DD (default today)")
	c.Flags().StringVar(&start, "start", "", "start time HH:MM")
	c.Flags().StringVar(&end, "end", "", "end time HH:MM")
	c.Flags().StringArrayVar(&answers, "answer", nil, "question answer ID=true|false (repeatable)")
	_ = c.MarkFlagRequired("amenity")
	return c
}

type answerFlag struct {
	id    int64
	value bool
}

func parseAnswers(raw []string) ([]answerFlag, error) {
	out := make([]answerFlag, 0, len(raw))
	for _, r := range raw {
		k, v, ok := strings.Cut(r, "=")
		if !ok {
			v = "true"
		}
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --answer %q: question id must be a number", r)
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid --answer %q: want true or false", r)
		}
		out = append(out, answerFlag{id: id, value: b})
	}
	return out, nil
}
