package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/alfredjeanlab/flightpath/internal/client"
	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/ui"
)

const timeFormat = "2006-01-02 15:04:05"

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// stopLabels renders path IDs with airport names where known.
func stopLabels(path []int64, names map[int64]string) []string {
	labels := make([]string, len(path))
	for i, id := range path {
		if name, ok := names[id]; ok && name != "" {
			labels[i] = fmt.Sprintf("%s (%d)", name, id)
		} else {
			labels[i] = strconv.FormatInt(id, 10)
		}
	}
	return labels
}

func printRoute(w io.Writer, r *model.Route, names map[int64]string) {
	fmt.Fprintf(w, "ID:           %s\n", ui.RenderAccent(r.ID))
	fmt.Fprintf(w, "Path:         %s\n", ui.RenderPath(stopLabels(r.Stops, names)))
	fmt.Fprintf(w, "Criterion:    %s (%s)\n", r.Criterion, r.Algorithm)
	fmt.Fprintf(w, "Distance:     %.2f km\n", r.TotalDistance)
	fmt.Fprintf(w, "Cost:         %.2f\n", r.TotalCost)
	fmt.Fprintf(w, "Stops:        %d\n", r.TotalStops)
	if r.MaxStops != nil {
		fmt.Fprintf(w, "Max Stops:    %d\n", *r.MaxStops)
	}
	if r.MaxConcurrency != nil {
		fmt.Fprintf(w, "Max Conc.:    %d\n", *r.MaxConcurrency)
	}
	fmt.Fprintf(w, "Avg Conc.:    %.2f\n", r.AvgConcurrency)
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:   %s\n", ui.RenderMuted(r.CreatedAt.Format(timeFormat)))
	}
}

func printSynthesis(w io.Writer, s *client.SynthesisResponse) {
	if s == nil {
		return
	}
	fmt.Fprintf(w, "Synthesized %d connections (%d airports reclassified, %d attempts)\n",
		len(s.Created), len(s.Concurrency), s.Attempts)
	if s.Stats != nil {
		fmt.Fprintf(w, "Degree:       min %d, max %d, avg %.2f\n", s.Stats.MinDegree, s.Stats.MaxDegree, s.Stats.AvgDegree)
	}
}

func printRouteList(w io.Writer, routes []*model.Route) {
	if len(routes) == 0 {
		fmt.Fprintln(w, "no routes")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFROM\tTO\tCRITERION\tDISTANCE\tCOST\tSTOPS\tCREATED")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%.2f\t%.2f\t%d\t%s\n",
			r.ID,
			r.OriginID,
			r.DestinationID,
			r.Criterion,
			r.TotalDistance,
			r.TotalCost,
			r.TotalStops,
			r.CreatedAt.Format(timeFormat),
		)
	}
	tw.Flush()
}

func printAirport(w io.Writer, a *model.Airport) {
	fmt.Fprintf(w, "ID:           %d\n", a.ID)
	fmt.Fprintf(w, "Name:         %s\n", a.Name)
	if a.City != "" {
		fmt.Fprintf(w, "City:         %s\n", a.City)
	}
	fmt.Fprintf(w, "Country:      %s\n", a.Country)
	fmt.Fprintf(w, "Location:     %.4f, %.4f\n", a.Lat, a.Lon)
	fmt.Fprintf(w, "Concurrency:  %s\n", ui.RenderConcurrency(a.Concurrency))
}

func printAirportList(w io.Writer, airports []*model.Airport) {
	nameWidth := max(ui.Width()/3, 20)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOUNTRY\tLAT\tLON\tCONCURRENCY")
	for _, a := range airports {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%.4f\t%s\n",
			a.ID,
			ui.Truncate(a.Name, nameWidth),
			a.Country,
			a.Lat,
			a.Lon,
			ui.RenderConcurrency(a.Concurrency),
		)
	}
	tw.Flush()
}

func printTopologyStats(w io.Writer, s *model.TopologyStats) {
	if s == nil {
		return
	}
	fmt.Fprintf(w, "Airports:     %d\n", s.Airports)
	fmt.Fprintf(w, "Connections:  %d\n", s.Connections)
	fmt.Fprintf(w, "Degree:       min %d, max %d, avg %.2f\n", s.MinDegree, s.MaxDegree, s.AvgDegree)
}
