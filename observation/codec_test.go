package observation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BaSui01/memgraph/types"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	line := FormatParts(ts, "mode", "dark", SourceExplicitSetting, 1.0)
	require.Equal(t, "[2026-01-02T15:04:05Z] mode: dark | source: explicit_setting | confidence: 1.00", line)
}

func TestFormat_StructuredValue(t *testing.T) {
	t.Parallel()

	v, err := JSON(map[string]int{"tabs": 4})
	require.NoError(t, err)

	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	line := FormatParts(ts, "editor", v.Encode(), SourceDirectStatement, 0.9)
	require.Equal(t, `[2026-01-02T15:04:05Z] editor: {"tabs":4} | source: direct_statement | confidence: 0.90`, line)
}

func TestParse(t *testing.T) {
	t.Parallel()

	o, err := Parse("[2026-01-02T15:04:05Z] mode: dark | source: explicit_setting | confidence: 1.00")
	require.NoError(t, err)
	require.Equal(t, "mode", o.Key)
	require.Equal(t, "dark", o.Value)
	require.Equal(t, SourceExplicitSetting, o.Source)
	require.Equal(t, 1.0, o.Confidence)
	require.Equal(t, 1.0, o.AnchorConfidence)
	require.Equal(t, time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), o.Timestamp)
	require.Equal(t, o.Timestamp, o.LastSeen)
}

func TestParse_ValueContainingSeparators(t *testing.T) {
	t.Parallel()

	// The value itself contains " | source: "; segments are located from the
	// right so the value survives intact.
	value := `left | source: fake | pipe: x`
	line := FormatParts(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "note", value, SourceWeakInference, 0.4)

	o, err := Parse(line)
	require.NoError(t, err)
	require.Equal(t, "note", o.Key)
	require.Equal(t, value, o.Value)
	require.Equal(t, SourceWeakInference, o.Source)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no timestamp":       "mode: dark | source: default | confidence: 0.50",
		"bad timestamp":      "[yesterday] mode: dark | source: default | confidence: 0.50",
		"no confidence":      "[2026-01-02T15:04:05Z] mode: dark | source: default",
		"confidence NaN":     "[2026-01-02T15:04:05Z] mode: dark | source: default | confidence: high",
		"confidence above 1": "[2026-01-02T15:04:05Z] mode: dark | source: default | confidence: 1.20",
		"confidence below 0": "[2026-01-02T15:04:05Z] mode: dark | source: default | confidence: -0.10",
		"unknown source":     "[2026-01-02T15:04:05Z] mode: dark | source: rumor | confidence: 0.50",
		"no key separator":   "[2026-01-02T15:04:05Z] mode dark | source: default | confidence: 0.50",
	}

	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(raw)
			require.Error(t, err)
			require.Equal(t, types.ErrMalformedObservation, types.GetErrorCode(err))
		})
	}
}

func TestValue_Encode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "dark", String("dark").Encode())
	require.Equal(t, "4", Number(4).Encode())
	require.Equal(t, "2.5", Number(2.5).Encode())
	require.Equal(t, "true", Bool(true).Encode())

	v, err := JSON([]string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, `["a","b"]`, v.Encode())
	require.Equal(t, ValueJSON, v.Kind())

	_, err = JSON(make(chan int))
	require.Error(t, err)
	require.Equal(t, types.ErrMalformedObservation, types.GetErrorCode(err))
}
