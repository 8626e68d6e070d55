package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONInProd(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("prod", &buf)
	l.Debug().Msg("hidden")
	l.Info().Int64("id", 7453).Msg("review updated")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "review updated", line["message"])
	assert.Equal(t, "reviews", line["service"])
	assert.EqualValues(t, 7453, line["id"])
}

func TestNewLogger_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("dev", &buf)
	l.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
