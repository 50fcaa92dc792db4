package gps

import (
	"encoding/json"
	"go/format"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixJSON(t *testing.T) {
	b, err := json.Marshal(Fix{Latitude: 37.8921, Longitude: -122.0155, AltitudeM: 77, CourseDeg: 89, SpeedKph: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":37.8921,"lon":-122.0155,"altitude_m":77,"course_deg":89,"speed_kph":2}`, string(b))

	b, err = json.Marshal(DateTime{Time: time.Date(2023, time.January, 15, 12, 0, 0, 0, time.UTC), Valid: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"time":"2023-01-15T12:00:00Z","valid":true}`, string(b))
}

func TestSourceIsFormatted(t *testing.T) {
	src, err := os.ReadFile("fix.go")
	require.NoError(t, err)

	formatted, err := format.Source(src)
	require.NoError(t, err)
	assert.Equal(t, string(formatted), string(src), "fix.go is not gofmt-formatted")
}
