package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"museum_directory/internal/domain"
	"museum_directory/internal/geo"
)

func newSearchCmd(catalog domain.Catalog) *cobra.Command {
	var c domain.SearchCriteria
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search museums",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				c.Text = args[0]
			}
			res, err := catalog.Search(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("search failed: %s", describe(err))
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, res)
			}
			printOrigin(cmd, res.Origin)
			printMuseums(cmd, res, nil)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&c.Region, "region", "", "region name, e.g. Île-de-France")
	f.StringVar(&c.City, "city", "", "city name")
	f.StringVar(&c.Department, "department", "", "department name")
	f.StringVar(&c.Theme, "theme", "", "theme, e.g. Art or Histoire")
	f.BoolVar(&c.FreeEntry, "free", false, "only museums with free entry")
	f.BoolVar(&c.WheelchairAccessible, "accessible", false, "only wheelchair accessible museums")
	f.IntVarP(&c.Page, "page", "p", 0, "zero-based result page")
	f.IntVarP(&c.Rows, "rows", "n", 0, "page size (0 uses the configured default)")
	return cmd
}

func newShowCmd(catalog domain.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one museum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := catalog.GetByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("show failed: %s", describe(err))
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, m)
			}
			printMuseum(cmd, m)
			return nil
		},
	}
}

func newNearCmd(catalog domain.Catalog) *cobra.Command {
	var lat, lng, radius float64
	cmd := &cobra.Command{
		Use:   "near",
		Short: "List museums around a point, nearest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := catalog.GetByLocation(cmd.Context(), lat, lng, radius)
			if err != nil {
				return fmt.Errorf("near failed: %s", describe(err))
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, res)
			}
			printOrigin(cmd, res.Origin)
			printMuseums(cmd, res, &domain.Coordinates{Lat: lat, Lng: lng})
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "latitude in degrees")
	f.Float64Var(&lng, "lng", 0, "longitude in degrees")
	f.Float64VarP(&radius, "radius", "r", domain.DefaultRadiusKm, "radius in kilometres")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newFacetsCmd(catalog domain.Catalog) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "facets",
		Short: "List facet values (regions, cities, departments, themes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := catalog.GetFacets(cmd.Context())
			if err != nil {
				return fmt.Errorf("facets failed: %s", describe(err))
			}
			if jsonOutput(cmd) {
				return printJSON(cmd, sum)
			}
			printOrigin(cmd, sum.Origin)
			for _, g := range sum.Groups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", strings.ToUpper(g.Name))
				rows := make([][]string, 0, len(g.Facets))
				for i, f := range g.Facets {
					if limit > 0 && i >= limit {
						break
					}
					count := "-"
					if sum.Exhaustive {
						count = strconv.Itoa(f.Count)
					}
					rows = append(rows, []string{"  " + f.Name, count})
				}
				writeTable(cmd.OutOrStdout(), []string{"  VALUE", "COUNT"}, rows)
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "values per facet (0 for all)")
	return cmd
}

func printMuseums(cmd *cobra.Command, res domain.SearchResult, from *domain.Coordinates) {
	if len(res.Museums) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No museums found.")
		return
	}
	header := []string{"ID", "NAME", "CITY", "REGION"}
	if from != nil {
		header = append(header, "KM")
	}
	rows := make([][]string, 0, len(res.Museums))
	for _, m := range res.Museums {
		row := []string{m.ID, m.Name, m.City, m.Region}
		if from != nil && m.Coordinates != nil {
			d := geo.DistanceKm(from.Lat, from.Lng, m.Coordinates.Lat, m.Coordinates.Lng)
			row = append(row, strconv.FormatFloat(d, 'f', 2, 64))
		}
		rows = append(rows, row)
	}
	writeTable(cmd.OutOrStdout(), header, rows)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d (%s)\n", len(res.Museums), res.TotalCount, res.Origin)
}

func printMuseum(cmd *cobra.Command, m domain.Museum) {
	rows := [][]string{
		{"Name", m.Name},
		{"City", m.City},
		{"Region", m.Region},
		{"Department", m.Department},
		{"Address", strings.TrimSpace(m.Address + " " + m.PostalCode)},
		{"Themes", strings.Join(m.Themes, ", ")},
		{"Free entry", yesNo(m.FreeEntry)},
		{"Wheelchair", yesNo(m.WheelchairAccessible)},
	}
	if m.Coordinates != nil {
		rows = append(rows, []string{"Position", fmt.Sprintf("%.4f, %.4f", m.Coordinates.Lat, m.Coordinates.Lng)})
	}
	for _, kv := range [][2]string{
		{"Hours", m.OpeningHours}, {"Pricing", m.Pricing}, {"Website", m.Website},
		{"Phone", m.Phone}, {"Email", m.Email},
	} {
		if kv[1] != "" {
			rows = append(rows, []string{kv[0], kv[1]})
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", m.ID)
	writeTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, rows)
	if m.Description != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", m.Description)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// describe keeps upstream details out of user-facing errors.
func describe(err error) string {
	msg := domain.UserMessage(err)
	var de *domain.Error
	if errors.As(err, &de) && de.Code == domain.CodeValidation && de.Details != "" {
		msg += ": " + de.Details
	}
	return msg
}
