package sensor

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const (
	// hdopMetersPerUnit converts a reported HDOP into an approximate
	// horizontal accuracy in meters (HDOP x user range error).
	hdopMetersPerUnit = 5.0

	knotsToMps = 0.514444

	motionLinePrefix  = "M,"
	headingLinePrefix = "C,"
)

// Decoder converts raw stream lines into Events. It keeps the small amount
// of cross-sentence state NMEA requires: speed and course arrive on RMC but
// belong with the position reported by the next GGA, and a compass heading
// is cached as "last known" rather than tied 1:1 to any fix.
type Decoder struct {
	speedMps   *float64
	courseDeg  *float64
	headingDeg *float64
}

// DecodeLine decodes one line from the sensor stream. nowMs stamps the
// resulting event; NMEA timestamps carry only time-of-day and are not
// trusted for interval math. Lines of unhandled sentence types produce
// EventNone with a nil error.
func (d *Decoder) DecodeLine(line string, nowMs uint64) (Event, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Event{Kind: EventNone}, nil
	case strings.HasPrefix(line, "$"):
		return d.decodeNMEA(line, nowMs)
	case strings.HasPrefix(line, motionLinePrefix):
		return decodeMotionLine(line, nowMs)
	case strings.HasPrefix(line, headingLinePrefix):
		return d.decodeHeadingLine(line)
	default:
		return Event{Kind: EventNone}, nil
	}
}

// LastHeadingDeg returns the most recent compass heading seen on the
// stream, if any.
func (d *Decoder) LastHeadingDeg() (float64, bool) {
	if d.headingDeg == nil {
		return 0, false
	}
	return *d.headingDeg, true
}

func (d *Decoder) decodeNMEA(line string, nowMs uint64) (Event, error) {
	fields, typ, err := splitNMEA(line)
	if err != nil {
		return Event{}, err
	}

	switch typ {
	case "RMC":
		return Event{Kind: EventNone}, d.applyRMC(fields)
	case "GGA":
		return d.applyGGA(fields, nowMs)
	default:
		return Event{Kind: EventNone}, nil
	}
}

// splitNMEA validates the checksum and returns the comma-split payload and
// the sentence type normalised to its last three characters (GPGGA and
// GNGGA both report as GGA).
func splitNMEA(line string) (fields []string, typ string, err error) {
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return nil, "", fmt.Errorf("nmea: missing checksum in %q", line)
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return nil, "", fmt.Errorf("nmea: short checksum in %q", line)
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return nil, "", fmt.Errorf("nmea: bad checksum field in %q", line)
	}
	got := byte(0)
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	if got != want[0] {
		return nil, "", fmt.Errorf("nmea: checksum mismatch in %q", line)
	}

	fields = strings.Split(payload, ",")
	if len(fields) == 0 || len(fields[0]) < 3 {
		return nil, "", fmt.Errorf("nmea: short sentence type in %q", line)
	}
	typ = strings.ToUpper(fields[0][len(fields[0])-3:])
	return fields, typ, nil
}

// applyRMC caches speed over ground and course for the next GGA fix.
func (d *Decoder) applyRMC(fields []string) error {
	if len(fields) < 9 {
		return fmt.Errorf("nmea: short RMC sentence")
	}
	if fields[2] != "A" {
		// Void fix: drop any stale speed/course rather than pairing them
		// with a future position.
		d.speedMps = nil
		d.courseDeg = nil
		return nil
	}
	if fields[7] != "" {
		kt, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return fmt.Errorf("nmea: bad RMC speed %q: %w", fields[7], err)
		}
		mps := kt * knotsToMps
		d.speedMps = &mps
	}
	if fields[8] != "" {
		course, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return fmt.Errorf("nmea: bad RMC course %q: %w", fields[8], err)
		}
		d.courseDeg = &course
	}
	return nil
}

// applyGGA emits a Fix. Accuracy is approximated from HDOP; a sentence with
// fix quality 0 (no fix) decodes to EventNone.
func (d *Decoder) applyGGA(fields []string, nowMs uint64) (Event, error) {
	if len(fields) < 9 {
		return Event{}, fmt.Errorf("nmea: short GGA sentence")
	}
	if fields[6] == "" || fields[6] == "0" {
		return Event{Kind: EventNone}, nil
	}

	lat, err := parseCoordinate(fields[2], fields[3])
	if err != nil {
		return Event{}, err
	}
	lng, err := parseCoordinate(fields[4], fields[5])
	if err != nil {
		return Event{}, err
	}
	hdop := 1.0
	if fields[8] != "" {
		hdop, err = strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return Event{}, fmt.Errorf("nmea: bad GGA hdop %q: %w", fields[8], err)
		}
	}

	fix := Fix{
		AccuracyMeters: hdop * hdopMetersPerUnit,
		TimestampMs:    nowMs,
	}
	fix.Point.Lat = lat
	fix.Point.Lng = lng
	fix.SpeedMps = d.speedMps
	if d.courseDeg != nil {
		fix.HeadingDeg = d.courseDeg
	} else if d.headingDeg != nil {
		fix.HeadingDeg = d.headingDeg
	}
	return Event{Kind: EventFix, Fix: fix}, nil
}

// parseCoordinate converts NMEA ddmm.mmmm / dddmm.mmmm plus hemisphere into
// signed decimal degrees.
func parseCoordinate(value, hemisphere string) (float64, error) {
	if value == "" || hemisphere == "" {
		return 0, fmt.Errorf("nmea: empty coordinate")
	}
	dot := strings.IndexByte(value, '.')
	if dot < 3 {
		return 0, fmt.Errorf("nmea: malformed coordinate %q", value)
	}
	deg, err := strconv.ParseFloat(value[:dot-2], 64)
	if err != nil {
		return 0, fmt.Errorf("nmea: malformed coordinate %q: %w", value, err)
	}
	min, err := strconv.ParseFloat(value[dot-2:], 64)
	if err != nil {
		return 0, fmt.Errorf("nmea: malformed coordinate %q: %w", value, err)
	}
	out := deg + min/60
	switch hemisphere {
	case "S", "W":
		out = -out
	case "N", "E":
	default:
		return 0, fmt.Errorf("nmea: unknown hemisphere %q", hemisphere)
	}
	return out, nil
}

// decodeMotionLine parses the IMU puck format "M,<x>,<y>,<z>" (m/s² per
// axis, gravity included).
func decodeMotionLine(line string, nowMs uint64) (Event, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return Event{}, fmt.Errorf("motion: malformed line %q", line)
	}
	var axes [3]float64
	for i, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Event{}, fmt.Errorf("motion: bad axis %q: %w", p, err)
		}
		axes[i] = v
	}
	return Event{
		Kind:   EventMotion,
		Motion: MotionSample{X: axes[0], Y: axes[1], Z: axes[2], TimestampMs: nowMs},
	}, nil
}

// decodeHeadingLine parses the compass format "C,<degrees>". The heading is
// cached so subsequent GGA fixes inherit it when RMC course is absent.
func (d *Decoder) decodeHeadingLine(line string) (Event, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(line, headingLinePrefix))
	deg, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Event{}, fmt.Errorf("compass: bad heading %q: %w", raw, err)
	}
	d.headingDeg = &deg
	return Event{Kind: EventHeading, HeadingDeg: deg}, nil
}
