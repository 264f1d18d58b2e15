// Command shamba-survey is the field capture daemon. It reads the survey
// rig's combined NMEA/IMU serial stream and turns a walked parcel boundary
// (track mode) or a sequence of sampled corners (corners mode) into a
// closed polygon, logging every fix to the capture database along the way.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Imbaya/shamba-sub000/internal/config"
	"github.com/Imbaya/shamba-sub000/internal/db"
	"github.com/Imbaya/shamba-sub000/internal/monitoring"
	"github.com/Imbaya/shamba-sub000/internal/sensor"
	"github.com/Imbaya/shamba-sub000/internal/version"
)

var (
	devMode      = flag.Bool("dev", false, "Replay a recorded walk log instead of opening the rig")
	walkLog      = flag.String("walklog", "fixtures/walk.log", "Walk log file replayed in dev mode")
	replayPaceMs = flag.Int("replay-pace", 1000, "Milliseconds between replayed lines in dev mode")
	device       = flag.String("device", "/dev/ttyUSB0", "Serial device of the survey rig")
	baudRate     = flag.Int("baud", sensor.DefaultBaudRate, "Serial baud rate")
	dbPath       = flag.String("db", "capture.db", "Capture log database path")
	configPath   = flag.String("config", "", "Tuning config JSON; built-in defaults when empty")
	parcelID     = flag.String("parcel", "", "Parcel id under capture")
	campaignID   = flag.String("campaign", "default", "Capture campaign id for differential telemetry")
	truthFlag    = flag.String("truth", "", "Known landmark as 'lat,lng' enabling differential correction in corners mode")
)

func main() {
	flag.Parse()
	args := flag.Args()

	command := "track"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "migrate":
		runMigrate(args[1:], *dbPath)
		return
	case "version":
		fmt.Println("shamba-survey", version.String())
		return
	case "track", "corners":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if *parcelID == "" {
		monitoring.Logf("no -parcel given; logging capture under parcel id %q", "unassigned")
		*parcelID = "unassigned"
	}

	cfg := loadTuning(*configPath)

	mux, err := openMux()
	if err != nil {
		fatalf("failed to open sensor stream: %v", err)
	}
	defer mux.Close()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		fatalf("failed to open capture log: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// run the monitor routine to manage IO on the sensor stream. In dev
	// mode the replay draining also ends the capture.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mux.Monitor(ctx); err != nil && err != context.Canceled {
			monitoring.Logf("sensor stream monitor failed: %v", err)
		}
		monitoring.Logf("monitor routine terminated")
		stop()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		switch command {
		case "track":
			runTrack(ctx, mux, database, cfg)
		case "corners":
			runCorners(ctx, mux, database, cfg)
		}
		stop()
	}()

	wg.Wait()
	monitoring.Logf("graceful shutdown complete")
}

// openMux wires the line source: a paced fixture replay in dev mode, the
// serial rig otherwise.
func openMux() (sensor.Mux, error) {
	if *devMode {
		data, err := os.ReadFile(*walkLog)
		if err != nil {
			return nil, fmt.Errorf("failed to read walk log: %w", err)
		}
		if *replayPaceMs > 0 {
			pace := time.Duration(*replayPaceMs) * time.Millisecond
			return sensor.NewStreamMux(sensor.NewPacedReplayPort(data, pace)), nil
		}
		return sensor.NewStreamMux(sensor.NewReplayPort(data)), nil
	}
	return sensor.NewSerialMux(*device, *baudRate)
}

func loadTuning(path string) *config.TuningConfig {
	if path == "" {
		return config.EmptyTuningConfig()
	}
	cfg, err := config.LoadTuningConfig(path)
	if err != nil {
		fatalf("failed to load tuning config: %v", err)
	}
	return cfg
}

func fatalf(format string, v ...interface{}) {
	monitoring.Logf(format, v...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: shamba-survey [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  track      Continuous-walk boundary capture (default)")
	fmt.Println("  corners    Stop-and-sample corner capture; enter samples a corner, 'q' finishes")
	fmt.Println("  migrate    Capture log schema migrations")
	fmt.Println("  version    Print build information")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
