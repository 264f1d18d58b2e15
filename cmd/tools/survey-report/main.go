// Command survey-report renders a single-file HTML report for one survey in
// the capture log: the captured boundary, fix accuracy over the walk, and
// per-corner confidence.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Imbaya/shamba-sub000/internal/db"
	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/units"
)

func main() {
	dbPath := flag.String("db", "capture.db", "capture log database path")
	surveyID := flag.String("survey", "", "survey id to report on")
	output := flag.String("o", "report.html", "output path")
	areaUnits := flag.String("area-units", units.Hectares, "area units (sqm, ha, acres)")
	flag.Parse()

	if *surveyID == "" {
		log.Fatal("missing -survey")
	}

	database, err := db.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("open %s: %v", *dbPath, err)
	}
	defer database.Close()

	fixes, err := database.SurveyFixes(*surveyID)
	if err != nil {
		log.Fatalf("load fixes: %v", err)
	}
	corners, err := database.SurveyCorners(*surveyID)
	if err != nil {
		log.Fatalf("load corners: %v", err)
	}
	polygon, err := database.SurveyPolygon(*surveyID)
	if err != nil {
		log.Fatalf("load polygon: %v", err)
	}
	if len(fixes) == 0 && len(corners) == 0 && len(polygon) == 0 {
		log.Fatalf("no capture data for survey %s", *surveyID)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()

	page := buildReport(*surveyID, fixes, corners, polygon, *areaUnits)
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("wrote report for survey %s to %s", *surveyID, *output)
}

func buildReport(surveyID string, fixes []db.FixRow, corners []db.CornerRow, polygon []geo.Point, areaUnits string) *components.Page {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Survey %s", surveyID)

	if len(polygon) >= 3 {
		page.AddCharts(boundaryChart(polygon, fixes, areaUnits))
	}
	if len(fixes) > 0 {
		page.AddCharts(accuracyChart(fixes))
	}
	if len(corners) > 0 {
		page.AddCharts(confidenceChart(corners))
	}
	return page
}

// boundaryChart plots the finished polygon and the raw fixes behind it in
// the local tangent plane, origin at the polygon's first vertex.
func boundaryChart(polygon []geo.Point, fixes []db.FixRow, areaUnits string) *charts.Scatter {
	origin := polygon[0]

	boundary := make([]opts.ScatterData, len(polygon))
	for i, p := range polygon {
		x, y := geo.ProjectXY(p, origin)
		boundary[i] = opts.ScatterData{Value: []interface{}{x, y}}
	}
	raw := make([]opts.ScatterData, 0, len(fixes))
	for _, f := range fixes {
		x, y := geo.ProjectXY(geo.Point{Lat: f.Lat, Lng: f.Lng}, origin)
		raw = append(raw, opts.ScatterData{Value: []interface{}{x, y}})
	}

	area := units.ConvertArea(geo.PolygonAreaSquareMeters(polygon), areaUnits)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "700px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Parcel boundary",
			Subtitle: fmt.Sprintf("%d vertices, area %.3f %s", len(polygon)-1, area, areaUnits),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "East (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "North (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("raw fixes", raw, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("boundary", boundary, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// accuracyChart plots reported fix accuracy over the capture, which shows
// where the walk passed under canopy or near structures.
func accuracyChart(fixes []db.FixRow) *charts.Line {
	base := fixes[0].TimestampMs
	labels := make([]string, len(fixes))
	accuracy := make([]opts.LineData, len(fixes))
	for i, f := range fixes {
		labels[i] = fmt.Sprintf("%.0fs", float64(f.TimestampMs-base)/1000)
		accuracy[i] = opts.LineData{Value: f.AccuracyMeters}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Fix accuracy",
			Subtitle: fmt.Sprintf("%d fixes", len(fixes)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "meters"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("accuracy", accuracy)
	return line
}

// confidenceChart plots per-corner confidence. Failed windows show as zero
// bars labeled with the failure reason.
func confidenceChart(corners []db.CornerRow) *charts.Bar {
	labels := make([]string, len(corners))
	confidence := make([]opts.BarData, len(corners))
	hri := make([]opts.BarData, len(corners))
	for i, c := range corners {
		labels[i] = fmt.Sprintf("corner %d", i+1)
		if c.Failure != "" {
			labels[i] = fmt.Sprintf("corner %d (%s)", i+1, c.Failure)
		}
		confidence[i] = opts.BarData{Value: c.ConfidencePct}
		hri[i] = opts.BarData{Value: c.HRI}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Corner confidence",
			Subtitle: fmt.Sprintf("%d sampling windows", len(corners)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "percent", Max: 100}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("confidence", confidence)
	bar.AddSeries("reliability", hri)
	return bar
}
