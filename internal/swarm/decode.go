package swarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/swarm_terminal/internal/gps"
	"github.com/relabs-tech/swarm_terminal/internal/sentence"
)

// Kind classifies a modem reply.
type Kind string

const (
	KindAck      Kind = "ack"
	KindError    Kind = "error"
	KindPosition Kind = "position"
	KindDateTime Kind = "datetime"
	KindBoot     Kind = "boot"
	KindConfig   Kind = "config"
)

// dtLayout is how $DT reports the time: YYYYMMDDhhmmss in UTC.
const dtLayout = "20060102150405"

// Response is a decoded modem reply. Only the fields for its Kind are set.
type Response struct {
	Kind     Kind
	Command  string
	Reason   string // KindError
	Fix      *gps.Fix
	DateTime *gps.DateTime
	State    string // KindBoot
	DeviceID string // KindConfig
	Name     string // KindConfig
}

// Summary is a one line description for the operator.
func (r Response) Summary() string {
	switch r.Kind {
	case KindAck:
		return fmt.Sprintf("%s acknowledged", r.Command)
	case KindError:
		return fmt.Sprintf("%s rejected: %s", r.Command, r.Reason)
	case KindPosition:
		f := r.Fix
		return fmt.Sprintf("position lat=%.4f lon=%.4f alt=%.0fm course=%.0f° speed=%.0fkm/h",
			f.Latitude, f.Longitude, f.AltitudeM, f.CourseDeg, f.SpeedKph)
	case KindDateTime:
		validity := "valid"
		if !r.DateTime.Valid {
			validity = "invalid"
		}
		return fmt.Sprintf("time %s (%s)", r.DateTime.Time.Format(time.RFC3339), validity)
	case KindBoot:
		return fmt.Sprintf("modem boot: %s", r.State)
	case KindConfig:
		return fmt.Sprintf("device id=%s name=%s", r.DeviceID, r.Name)
	}
	return ""
}

// splitCommand separates "GN 1,2,3" into "GN" and "1,2,3".
func splitCommand(payload string) (string, string) {
	cmd, args, _ := strings.Cut(payload, " ")
	return cmd, strings.TrimSpace(args)
}

// Decode recognises the replies the terminal knows how to summarise. The
// checksum is not checked here; see sentence.Verify.
func Decode(line string) (Response, bool) {
	p, err := sentence.Split(strings.TrimSpace(line))
	if err != nil || p.Delimiter != '$' {
		return Response{}, false
	}

	cmd, args := splitCommand(p.Payload)
	if cmd == "" {
		return Response{}, false
	}

	switch {
	case args == "OK" || strings.HasPrefix(args, "OK,"):
		return Response{Kind: KindAck, Command: cmd}, true
	case args == "ERR" || strings.HasPrefix(args, "ERR,"):
		reason := strings.TrimPrefix(strings.TrimPrefix(args, "ERR"), ",")
		if reason == "" {
			reason = "unspecified"
		}
		return Response{Kind: KindError, Command: cmd, Reason: reason}, true
	}

	switch cmd {
	case "GN":
		fix, ok := parseFix(args)
		if !ok {
			return Response{}, false
		}
		return Response{Kind: KindPosition, Command: cmd, Fix: fix}, true
	case "DT":
		dt, ok := parseDateTime(args)
		if !ok {
			return Response{}, false
		}
		return Response{Kind: KindDateTime, Command: cmd, DateTime: dt}, true
	case "M138":
		state, ok := strings.CutPrefix(args, "BOOT,")
		if !ok || state == "" {
			return Response{}, false
		}
		return Response{Kind: KindBoot, Command: cmd, State: state}, true
	case "CS":
		r := Response{Kind: KindConfig, Command: cmd}
		for _, field := range strings.Split(args, ",") {
			key, value, _ := strings.Cut(field, "=")
			switch key {
			case "DI":
				r.DeviceID = value
			case "DN":
				r.Name = value
			}
		}
		if r.DeviceID == "" {
			return Response{}, false
		}
		return r, true
	}

	return Response{}, false
}

// parseFix reads "lat,lon,alt,course,speed".
func parseFix(args string) (*gps.Fix, bool) {
	fields := strings.Split(args, ",")
	if len(fields) != 5 {
		return nil, false
	}
	var v [5]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, false
		}
		v[i] = n
	}
	return &gps.Fix{
		Latitude:  v[0],
		Longitude: v[1],
		AltitudeM: v[2],
		CourseDeg: v[3],
		SpeedKph:  v[4],
	}, true
}

// parseDateTime reads "YYYYMMDDhhmmss,V" where V marks a valid clock and I
// an invalid one.
func parseDateTime(args string) (*gps.DateTime, bool) {
	stamp, flag, ok := strings.Cut(args, ",")
	if !ok || (flag != "V" && flag != "I") {
		return nil, false
	}
	t, err := time.Parse(dtLayout, stamp)
	if err != nil {
		return nil, false
	}
	return &gps.DateTime{Time: t, Valid: flag == "V"}, true
}
