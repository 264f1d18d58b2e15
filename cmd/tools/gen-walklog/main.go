// Command gen-walklog generates synthetic walk recordings for dev-mode
// replay: a stationary anchor period followed by a walked rectangle, with
// IMU step spikes and compass headings interleaved between the fixes.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/Imbaya/shamba-sub000/internal/geo"
)

func main() {
	output := flag.String("o", "walk.log", "output path")
	lat := flag.Float64("lat", -1.2921, "starting corner latitude")
	lng := flag.Float64("lng", 36.8219, "starting corner longitude")
	side := flag.Float64("side", 40, "rectangle side length in meters")
	accuracy := flag.Float64("accuracy", 3, "reported fix accuracy in meters")
	noise := flag.Float64("noise", 1.5, "position noise standard deviation in meters")
	anchorFixes := flag.Int("anchor-fixes", 35, "stationary fixes before the walk starts")
	stride := flag.Float64("stride", 0.9, "meters covered per fix while walking")
	seed := flag.Int64("seed", 42, "noise generator seed")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	rng := rand.New(rand.NewSource(*seed))
	origin := geo.Point{Lat: *lat, Lng: *lng}

	lines := 0
	emit := func(line string) {
		fmt.Fprintln(w, line)
		lines++
	}

	// Anchor period: still on the starting corner, no step spikes.
	for i := 0; i < *anchorFixes; i++ {
		emit(ggaLine(jitter(rng, origin, *noise), *accuracy))
		emit(motionLine(0.1, -0.2, 9.8))
	}

	// Walk the rectangle anticlockwise. Headings are bearings of travel;
	// the IMU spikes past the step detector's high threshold once per fix.
	bearings := []float64{90, 0, 270, 180}
	fixesPerSide := int(*side / *stride)
	at := origin
	for _, bearing := range bearings {
		emit(headingLine(bearing))
		for i := 0; i < fixesPerSide; i++ {
			at = geo.DestinationPoint(at, *stride, bearing)
			emit(motionLine(0.3, 0.1, 12.8))
			emit(motionLine(0.1, -0.1, 9.6))
			emit(rmcLine(jitter(rng, at, *noise), 1.0, bearing))
			emit(ggaLine(jitter(rng, at, *noise), *accuracy))
		}
	}

	if err := w.Flush(); err != nil {
		log.Fatalf("write %s: %v", *output, err)
	}
	log.Printf("wrote %d lines to %s", lines, *output)
}

func jitter(rng *rand.Rand, p geo.Point, sigmaMeters float64) geo.Point {
	return geo.Point{
		Lat: p.Lat + rng.NormFloat64()*sigmaMeters/geo.MetersPerDegreeLat(),
		Lng: p.Lng + rng.NormFloat64()*sigmaMeters/geo.MetersPerDegreeLng(p.Lat),
	}
}

// ggaLine renders a GGA sentence. The decoder approximates accuracy as
// HDOP x 5 m, so the HDOP field is accuracy / 5.
func ggaLine(p geo.Point, accuracyMeters float64) string {
	latField, latHemi := nmeaCoord(p.Lat, true)
	lngField, lngHemi := nmeaCoord(p.Lng, false)
	payload := fmt.Sprintf("GPGGA,120000.00,%s,%s,%s,%s,1,08,%.2f,1680.0,M,,M,,",
		latField, latHemi, lngField, lngHemi, accuracyMeters/5)
	return withChecksum(payload)
}

// rmcLine renders an RMC sentence carrying speed over ground and course.
func rmcLine(p geo.Point, speedMps, courseDeg float64) string {
	latField, latHemi := nmeaCoord(p.Lat, true)
	lngField, lngHemi := nmeaCoord(p.Lng, false)
	payload := fmt.Sprintf("GPRMC,120000.00,A,%s,%s,%s,%s,%.2f,%.1f,010125,,,A",
		latField, latHemi, lngField, lngHemi, speedMps/0.514444, courseDeg)
	return withChecksum(payload)
}

func motionLine(x, y, z float64) string {
	return fmt.Sprintf("M,%.2f,%.2f,%.2f", x, y, z)
}

func headingLine(deg float64) string {
	return fmt.Sprintf("C,%.1f", deg)
}

// nmeaCoord converts signed decimal degrees into the NMEA ddmm.mmmm (or
// dddmm.mmmm for longitude) field plus its hemisphere letter.
func nmeaCoord(v float64, latitude bool) (field, hemisphere string) {
	hemisphere = "N"
	if latitude && v < 0 {
		hemisphere = "S"
	}
	if !latitude {
		hemisphere = "E"
		if v < 0 {
			hemisphere = "W"
		}
	}
	abs := math.Abs(v)
	deg := math.Floor(abs)
	min := (abs - deg) * 60
	if latitude {
		return fmt.Sprintf("%02.0f%07.4f", deg, min), hemisphere
	}
	return fmt.Sprintf("%03.0f%07.4f", deg, min), hemisphere
}

func withChecksum(payload string) string {
	var ck byte
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}
