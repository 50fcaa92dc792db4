// Package nmeadecode summarises standard NMEA-0183 talker sentences, such as
// GNSS output passed through by the modem, using github.com/adrianmo/go-nmea.
package nmeadecode

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Describe returns a short summary of line when it is a sentence type we
// know. Unknown types, proprietary sentences and parse failures return false.
func Describe(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") && !strings.HasPrefix(line, "!") {
		return "", false
	}

	s, err := nmea.Parse(line)
	if err != nil {
		return "", false
	}

	switch s.DataType() {
	case nmea.TypeRMC:
		m := s.(nmea.RMC)
		return fmt.Sprintf("%s RMC %s lat=%.5f lon=%.5f speed=%.1fkn course=%.1f° validity=%s",
			s.TalkerID(), m.Time, m.Latitude, m.Longitude, m.Speed, m.Course, m.Validity), true
	case nmea.TypeGGA:
		m := s.(nmea.GGA)
		return fmt.Sprintf("%s GGA %s lat=%.5f lon=%.5f alt=%.1fm sats=%d fix=%s",
			s.TalkerID(), m.Time, m.Latitude, m.Longitude, m.Altitude, m.NumSatellites, m.FixQuality), true
	case nmea.TypeVTG:
		m := s.(nmea.VTG)
		return fmt.Sprintf("%s VTG track=%.1f° speed=%.1fkm/h",
			s.TalkerID(), m.TrueTrack, m.GroundSpeedKPH), true
	case nmea.TypeGSA:
		m := s.(nmea.GSA)
		return fmt.Sprintf("%s GSA fix=%s sats=%d pdop=%.1f",
			s.TalkerID(), m.FixType, len(m.SV), m.PDOP), true
	}

	return fmt.Sprintf("%s %s", s.TalkerID(), s.DataType()), true
}
