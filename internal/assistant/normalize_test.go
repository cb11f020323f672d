package assistant

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	u := Normalize("  ¿Qué DÍA es HOY?  ")
	require.Equal(t, "¿Qué DÍA es HOY?", u.Raw)
	require.Equal(t, "¿qué día es hoy?", u.Normalized)
	require.Equal(t, "¿que dia es hoy?", u.Folded)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"  Hola, me llamo JOSÉ  ",
		"Convierte 3 KM a Millas",
		"ÑANDÚ 25°C",
		"",
		"\tdivide 10 ENTRE 0\n",
	} {
		once := Normalize(in)
		twice := Normalize(once.Normalized)
		require.Equal(t, once.Normalized, twice.Normalized, in)
		require.Equal(t, once.Folded, twice.Folded, in)
		require.Equal(t, once.Folded, Normalize(once.Folded).Folded, in)
	}
}

func TestTitleName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Carlos", titleName("carlos"))
	require.Equal(t, "Íñigo", titleName("íñigo"))
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{14, "14"},
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{2.5, "2,5"},
		{-6.67, "-6,67"},
		{1.8641, "1,8641"},
		{1e16, "1E+16"},
		{0.000001, "1E-06"},
		{0.00001, "1E-05"},
		{-0.000025, "-2,5E-05"},
		{0.0001, "0,0001"},
		{0.00012, "0,00012"},
		{123456789, "123456789"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "∞"},
		{math.Inf(-1), "-∞"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, formatNumber(tc.in))
	}
}

func TestFormatDateAndClock(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, time.January, 5, 7, 3, 0, 0, time.UTC)
	require.Equal(t, "lunes, 5 de enero de 2026", formatLongDate(ts))
	require.Equal(t, "07:03", formatClock(ts))

	ts = time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "jueves, 31 de diciembre de 2026", formatLongDate(ts))
	require.Equal(t, "23:59", formatClock(ts))
}

func TestDefaultPhrasebookIsComplete(t *testing.T) {
	t.Parallel()

	pb := DefaultPhrasebook()
	require.NoError(t, pb.Validate())
	require.Len(t, pb.Jokes, 7)
	require.Len(t, pb.Goodbyes, 6)
	require.Contains(t, pb.Help, "Puedo ayudarte con las siguientes tareas:")
	require.Contains(t, pb.Help, `- "¿Qué puedes hacer?"`)
}

func TestParsePhrasebookRejectsEmptyPools(t *testing.T) {
	t.Parallel()

	_, err := ParsePhrasebook([]byte("help: hola\njokes: [a]\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "goodbyes pool is empty")
	require.Contains(t, err.Error(), "greetings.night pool is empty")

	_, err = ParsePhrasebook([]byte("help: [unterminated"))
	require.Error(t, err)
}

func TestLoadPhrasebookOverridesPools(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "phrases.yaml")
	contents := `help: solo ayuda
jokes: ["uno"]
goodbyes: ["chau"]
greetings:
  morning: ["Buen día"]
  afternoon: ["Buenas"]
  night: ["Buenas noches"]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	pb, err := LoadPhrasebook(path)
	require.NoError(t, err)

	a := New(WithPhrasebook(pb), WithClock(fixedClock(9)), WithLocation(time.UTC))
	require.Equal(t, "solo ayuda", process(a, "ayuda").Text)
	require.Equal(t, "uno", process(a, "un chiste").Text)
	require.Equal(t, "chau.", process(a, "adiós").Text)
	require.Equal(t, "Buen día. Soy VoxMate. ¿En qué te ayudo?", process(a, "hola").Text)

	_, err = LoadPhrasebook(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
