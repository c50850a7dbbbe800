package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"coord2country/internal/names"
	"coord2country/internal/revgeo"
	"coord2country/internal/store"
	"coord2country/internal/utils"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

func parseLatLon(args []string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "parse latitude %q", args[0])
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "parse longitude %q", args[1])
	}
	return lat, lon, nil
}

// loadLocator 按当前配置加载快照；DATA_SOURCE=db 时灰度表来自 PostgreSQL
func loadLocator(ctx context.Context) (*revgeo.Locator, error) {
	src := revgeo.Source{RasterPath: cfg.Data.Raster, CSVPath: cfg.Data.CSV}
	if cfg.Data.Source == "db" {
		db, err := utils.OpenPostgres(cfg.PG)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		src.Rows = store.AttachDB(db)
	}
	snap, err := revgeo.LoadSnapshot(ctx, src)
	if err != nil {
		return nil, err
	}
	return revgeo.NewLocator(snap, revgeo.WithMaxRadius(cfg.Search.MaxRadius), revgeo.WithNamer(names.New())), nil
}

var codeCmd = &cobra.Command{
	Use:   "code LAT LON",
	Short: "Print the ISO 3166-1 alpha-2 code (empty when outside the raster)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := parseLatLon(args)
		if err != nil {
			return err
		}
		loc, err := loadLocator(cmd.Context())
		if err != nil {
			return err
		}
		code, err := loc.CountryCode(lat, lon)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	},
}

var idCmd = &cobra.Command{
	Use:   "id LAT LON",
	Short: "Print the Wikidata QID (empty when outside the raster)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := parseLatLon(args)
		if err != nil {
			return err
		}
		loc, err := loadLocator(cmd.Context())
		if err != nil {
			return err
		}
		id, err := loc.CountryID(lat, lon)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var nameCmd = &cobra.Command{
	Use:   "name LAT LON",
	Short: "Print the localized country name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := parseLatLon(args)
		if err != nil {
			return err
		}
		lang, _ := cmd.Flags().GetString("lang")
		loc, err := loadLocator(cmd.Context())
		if err != nil {
			return err
		}
		name, err := loc.CountryName(lat, lon, lang)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

var projectCmd = &cobra.Command{
	Use:   "project LAT LON",
	Short: "Print the raster pixel a coordinate projects to",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, err := parseLatLon(args)
		if err != nil {
			return err
		}
		px, err := revgeo.DefaultProjection.Project(lat, lon)
		if errors.Is(err, revgeo.ErrOutOfRange) {
			fmt.Fprintln(cmd.OutOrStdout(), "out of range")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d %d\n", px.X, px.Y)
		return nil
	},
}

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the loaded grayshade directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		loc, err := loadLocator(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range loc.Directory().Records() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", r.Grayshade, r.Code, r.ID)
		}
		return nil
	},
}

func init() {
	nameCmd.Flags().StringP("lang", "l", "en", "BCP 47 language tag for the name")
	rootCmd.AddCommand(codeCmd, idCmd, nameCmd, projectCmd, countriesCmd)
}
