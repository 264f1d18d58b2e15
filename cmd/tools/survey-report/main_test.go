package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Imbaya/shamba-sub000/internal/db"
	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
	"github.com/Imbaya/shamba-sub000/internal/survey"
	"github.com/Imbaya/shamba-sub000/internal/testutil"
	"github.com/Imbaya/shamba-sub000/internal/units"
)

func seedSurvey(t *testing.T) (*db.DB, string) {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "capture.db"))
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { database.Close() })

	const surveyID = "report-test"
	testutil.AssertNoError(t, database.CreateSurvey(surveyID, "parcel-9", "track"))

	origin := geo.Point{Lat: -1.2921, Lng: 36.8219}
	square := []geo.Point{
		origin,
		geo.DestinationPoint(origin, 30, 90),
		geo.DestinationPoint(geo.DestinationPoint(origin, 30, 90), 30, 0),
		geo.DestinationPoint(origin, 30, 0),
	}
	for i, p := range square {
		fix := sensor.Fix{Point: p, AccuracyMeters: 3 + float64(i), TimestampMs: uint64(i) * 1000}
		testutil.AssertNoError(t, database.RecordFix(surveyID, fix, "gps", "accepted"))
	}
	testutil.AssertNoError(t, database.RecordCorner(surveyID, survey.CornerResult{
		Point: origin, ConfidencePct: 92, SampleCount: 20, ReceivedCount: 24, HRI: 88,
	}))
	testutil.AssertNoError(t, database.RecordCorner(surveyID, survey.CornerResult{
		Failure: survey.FailureMotionDuringSampling, ReceivedCount: 10, RejectedForMotion: 10,
	}))
	testutil.AssertNoError(t, database.FinishSurvey(surveyID, geo.CloseLoop(square)))
	return database, surveyID
}

func TestBuildReport_RendersAllSections(t *testing.T) {
	database, surveyID := seedSurvey(t)

	fixes, err := database.SurveyFixes(surveyID)
	testutil.AssertNoError(t, err)
	corners, err := database.SurveyCorners(surveyID)
	testutil.AssertNoError(t, err)
	polygon, err := database.SurveyPolygon(surveyID)
	testutil.AssertNoError(t, err)

	page := buildReport(surveyID, fixes, corners, polygon, units.Hectares)

	var buf bytes.Buffer
	testutil.AssertNoError(t, page.Render(&buf))
	html := buf.String()
	for _, want := range []string{
		"Parcel boundary",
		"Fix accuracy",
		"Corner confidence",
		"motion_during_sampling",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestBuildReport_SkipsEmptySections(t *testing.T) {
	page := buildReport("empty", nil, []db.CornerRow{{ConfidencePct: 80}}, nil, units.Hectares)

	var buf bytes.Buffer
	testutil.AssertNoError(t, page.Render(&buf))
	html := buf.String()
	if strings.Contains(html, "Parcel boundary") || strings.Contains(html, "Fix accuracy") {
		t.Error("report contains sections with no data")
	}
	if !strings.Contains(html, "Corner confidence") {
		t.Error("report missing corner section")
	}
}
