package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Imbaya/shamba-sub000/internal/config"
	"github.com/Imbaya/shamba-sub000/internal/db"
	"github.com/Imbaya/shamba-sub000/internal/geo"
	"github.com/Imbaya/shamba-sub000/internal/monitoring"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
	"github.com/Imbaya/shamba-sub000/internal/survey"
	"github.com/Imbaya/shamba-sub000/internal/telemetry"
	"github.com/Imbaya/shamba-sub000/internal/timeutil"
	"github.com/Imbaya/shamba-sub000/internal/units"
)

// captureSummary is the JSON document printed on stdout when a capture
// finishes. Corners is nil in track mode.
type captureSummary struct {
	SurveyID     string                `json:"survey_id"`
	ParcelID     string                `json:"parcel_id"`
	Mode         string                `json:"mode"`
	Polygon      []geo.Point           `json:"polygon"`
	AreaSqm      float64               `json:"area_sqm"`
	AreaHectares float64               `json:"area_hectares"`
	Corners      []survey.CornerResult `json:"corners,omitempty"`
}

// runTrack walks the boundary: every decoded fix feeds the tracking session
// and is logged to the capture database with its outcome. Shutdown (signal
// or replay end) stops the session and prints the finished polygon.
func runTrack(ctx context.Context, mux sensor.Mux, database *db.DB, cfg *config.TuningConfig) {
	session := survey.NewTrackingSession(*parcelID, cfg)
	if err := session.Start(); err != nil {
		monitoring.Logf("failed to start session: %v", err)
		return
	}
	if err := database.CreateSurvey(session.ID(), *parcelID, "track"); err != nil {
		monitoring.Logf("failed to create survey record: %v", err)
		return
	}
	monitoring.Logf("survey %s: locking anchor, hold still near the starting corner", session.ID())

	subID, lines := mux.Subscribe()
	defer mux.Unsubscribe(subID)

	var dec sensor.Decoder
	clock := timeutil.RealClock{}
	start := clock.Now()
	now := func() uint64 { return uint64(clock.Since(start).Milliseconds()) }

	lastOutcome := survey.FixOutcome("")
	for {
		select {
		case <-ctx.Done():
			finishTrack(session, database)
			return
		case line, ok := <-lines:
			if !ok {
				finishTrack(session, database)
				return
			}
			ev, err := dec.DecodeLine(line, now())
			if err != nil {
				monitoring.Logf("decode: %v", err)
				continue
			}
			switch ev.Kind {
			case sensor.EventFix:
				status := session.OnFix(ev.Fix)
				if err := database.RecordFix(session.ID(), ev.Fix, status.Source, string(status.Outcome)); err != nil {
					monitoring.Logf("failed to log fix: %v", err)
				}
				if status.Outcome != lastOutcome {
					logFixStatus(status)
					lastOutcome = status.Outcome
				}
			case sensor.EventMotion:
				session.OnMotion(ev.Motion)
			case sensor.EventHeading:
				session.OnHeading(ev.HeadingDeg)
			}
		}
	}
}

// logFixStatus reports capture progress on outcome transitions only, so a
// 1 Hz fix stream does not flood the operator.
func logFixStatus(status survey.FixStatus) {
	switch status.Outcome {
	case survey.OutcomeWaitingForAccuracy:
		monitoring.Logf("waiting for accuracy: current fix %.1f m", status.AccuracyMeters)
	case survey.OutcomeAveraging:
		monitoring.Logf("anchor averaging: %d samples", status.AnchorSamples)
	case survey.OutcomeAnchorLocked:
		monitoring.Logf("anchor locked, start walking the boundary")
	case survey.OutcomeAccepted:
		monitoring.Logf("tracking (source %s)", status.Source)
	}
}

func finishTrack(session *survey.TrackingSession, database *db.DB) {
	polygon, err := session.Stop()
	if err != nil {
		monitoring.Logf("capture discarded: %v", err)
		return
	}
	if err := database.FinishSurvey(session.ID(), polygon); err != nil {
		monitoring.Logf("failed to finalize survey record: %v", err)
	}
	printSummary(captureSummary{
		SurveyID: session.ID(),
		ParcelID: session.ParcelID(),
		Mode:     "track",
		Polygon:  polygon,
	})
}

// runCorners samples one vertex per operator command: enter (or "c") opens a
// sampling window, "q" or EOF finishes the capture. With -truth set, every
// good fix between windows is published as reference telemetry against the
// landmark, and the corrector applies the averaged delta to corner samples.
func runCorners(ctx context.Context, mux sensor.Mux, database *db.DB, cfg *config.TuningConfig) {
	surveyID := uuid.NewString()
	if err := database.CreateSurvey(surveyID, *parcelID, "corners"); err != nil {
		monitoring.Logf("failed to create survey record: %v", err)
		return
	}

	var (
		corrector   *telemetry.Corrector
		truth       *geo.Point
		telemetryCh chan telemetry.AnchorTelemetry
	)
	bus := telemetry.NewBus()
	busKey := telemetry.Key{CampaignID: *campaignID, SessionID: surveyID}
	if *truthFlag != "" {
		point, err := parseTruth(*truthFlag)
		if err != nil {
			monitoring.Logf("bad -truth flag: %v", err)
			return
		}
		truth = &point
		corrector = telemetry.NewCorrector()
		var telSubID string
		telSubID, telemetryCh = bus.Subscribe(busKey)
		defer bus.Unsubscribe(busKey, telSubID)
		monitoring.Logf("differential correction active against landmark %.6f,%.6f", point.Lat, point.Lng)
	}

	sampler := survey.NewCornerSampler(cfg, corrector)
	commands := readCommands(ctx)

	subID, lines := mux.Subscribe()
	defer mux.Unsubscribe(subID)

	var dec sensor.Decoder
	clock := timeutil.RealClock{}
	start := clock.Now()
	now := func() uint64 { return uint64(clock.Since(start).Milliseconds()) }

	var windowC <-chan time.Time
	var corners []survey.CornerResult

	monitoring.Logf("survey %s: corner capture ready; enter samples a corner, 'q' finishes", surveyID)
	for {
		select {
		case <-ctx.Done():
			sampler.Cancel()
			finishCorners(surveyID, database, corners)
			return

		case cmd, ok := <-commands:
			if !ok || cmd == "q" || cmd == "quit" {
				sampler.Cancel()
				finishCorners(surveyID, database, corners)
				return
			}
			if err := sampler.Begin(now()); err != nil {
				monitoring.Logf("cannot open window: %v", err)
				continue
			}
			windowC = clock.NewTimer(sampler.WindowDuration()).C()
			monitoring.Logf("corner %d: sampling for %s, stand still on the vertex",
				len(corners)+1, sampler.WindowDuration())

		case <-windowC:
			windowC = nil
			result, err := sampler.WindowExpired()
			if err != nil {
				monitoring.Logf("window close: %v", err)
				continue
			}
			if err := database.RecordCorner(surveyID, result); err != nil {
				monitoring.Logf("failed to log corner: %v", err)
			}
			if result.Failure != survey.FailureNone {
				monitoring.Logf("corner rejected (%s): %d fixes seen, %d rejected for motion; reposition and retry",
					result.Failure, result.ReceivedCount, result.RejectedForMotion)
				continue
			}
			corners = append(corners, result)
			monitoring.Logf("corner %d captured: confidence %.0f%% from %d samples (HRI %.0f)",
				len(corners), result.ConfidencePct, result.SampleCount, result.HRI)

		case rec := <-telemetryCh:
			corrector.Push(rec)
			if err := database.RecordTelemetry(rec); err != nil {
				monitoring.Logf("failed to log telemetry: %v", err)
			}

		case line, ok := <-lines:
			if !ok {
				sampler.Cancel()
				finishCorners(surveyID, database, corners)
				return
			}
			ev, err := dec.DecodeLine(line, now())
			if err != nil {
				monitoring.Logf("decode: %v", err)
				continue
			}
			switch ev.Kind {
			case sensor.EventFix:
				if truth != nil && !sampler.Active() &&
					ev.Fix.AccuracyMeters <= cfg.GetAnchorAccuracyGateMeters() {
					// Between windows the rig sits on the known landmark,
					// so each good fix measures the local GPS offset.
					bus.Publish(busKey, survey.ReferenceTelemetry(
						surveyID, *truth, ev.Fix.Point, ev.Fix.AccuracyMeters, now()))
				}
				status := sampler.OnFix(ev.Fix)
				if status.Outcome != survey.SampleIgnored {
					if err := database.RecordFix(surveyID, ev.Fix, "gps", string(status.Outcome)); err != nil {
						monitoring.Logf("failed to log fix: %v", err)
					}
				}
			case sensor.EventMotion:
				sampler.OnMotion(ev.Motion)
			}
		}
	}
}

func finishCorners(surveyID string, database *db.DB, corners []survey.CornerResult) {
	if len(corners) < 3 {
		monitoring.Logf("capture discarded: %d corners is not enough to close a polygon", len(corners))
		return
	}
	points := make([]geo.Point, len(corners))
	for i, c := range corners {
		points[i] = c.Point
	}
	polygon := geo.CloseLoop(points)
	if err := database.FinishSurvey(surveyID, polygon); err != nil {
		monitoring.Logf("failed to finalize survey record: %v", err)
	}
	printSummary(captureSummary{
		SurveyID: surveyID,
		ParcelID: *parcelID,
		Mode:     "corners",
		Polygon:  polygon,
		Corners:  corners,
	})
}

func printSummary(summary captureSummary) {
	summary.AreaSqm = geo.PolygonAreaSquareMeters(summary.Polygon)
	summary.AreaHectares = units.ConvertArea(summary.AreaSqm, units.Hectares)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		monitoring.Logf("failed to write summary: %v", err)
	}
}

// parseTruth parses the -truth flag format "lat,lng".
func parseTruth(s string) (geo.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("want \"lat,lng\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("bad latitude %q: %w", parts[0], err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("bad longitude %q: %w", parts[1], err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return geo.Point{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return geo.Point{Lat: lat, Lng: lng}, nil
}

// readCommands feeds trimmed, lowercased stdin lines to the capture loop.
// The channel closes on EOF.
func readCommands(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case out <- strings.ToLower(strings.TrimSpace(scanner.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func runMigrate(args []string, dbPath string) {
	if len(args) < 1 {
		printMigrateUsage()
		os.Exit(1)
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		fatalf("failed to open capture log: %v", err)
	}
	defer database.Close()

	switch args[0] {
	case "up":
		if err := database.MigrateUp(); err != nil {
			fatalf("migrate up: %v", err)
		}
		monitoring.Logf("migrations applied")
	case "down":
		if err := database.MigrateDown(); err != nil {
			fatalf("migrate down: %v", err)
		}
		monitoring.Logf("migrations rolled back")
	case "status":
		version, dirty, err := database.MigrateVersion()
		if err != nil {
			fatalf("migrate status: %v", err)
		}
		fmt.Printf("version %d dirty=%v\n", version, dirty)
	case "force":
		if len(args) < 2 {
			fatalf("migrate force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			fatalf("bad version %q: %v", args[1], err)
		}
		if err := database.MigrateForce(version); err != nil {
			fatalf("migrate force: %v", err)
		}
		monitoring.Logf("forced schema version to %d", version)
	default:
		printMigrateUsage()
		os.Exit(1)
	}
}

func printMigrateUsage() {
	fmt.Println("Usage: shamba-survey migrate <up|down|status|force N>")
}
