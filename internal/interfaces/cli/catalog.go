package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/amenity-reserve/internal/application/usecases"
	"github.com/example/amenity-reserve/internal/infrastructure/condo"
)

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the amenities and questions the backend offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.BackendTimeout)
			defer cancel()

			backend := condo.New(condo.Options{BaseURL: cfg.BackendURL, Token: cfg.BackendToken, Timeout: cfg.BackendTimeout, Log: log})
			c, err := usecases.CatalogLoader{Backend: backend, Log: log}.Load(ctx)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if c.Amenities != nil {
				fmt.Fprintln(tw, "AMENITY\tNAME")
				for _, a := range c.Amenities {
					fmt.Fprintf(tw, "%d\t%s\n", a.ID, a.Name)
				}
				fmt.Fprintln(tw)
			}
			if c.Questions != nil {
				fmt.Fprintln(tw, "QUESTION\tTEXT")
				for _, q := range c.Questions {
					fmt.Fprintf(tw, "%d\t%s\n", q.ID, q.Question)
				}
			}
			if ferr := tw.Flush(); ferr != nil && err == nil {
				err = ferr
			}
			return err
		},
	}
}
