package assistant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Replies use one fixed locale, es-ES.

var weekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// formatNumber prints v in shortest round-trip form with a decimal comma.
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	case v == 0:
		return "0"
	}

	var s string
	if abs := math.Abs(v); abs >= 1e15 || abs < 1e-4 {
		s = strconv.FormatFloat(v, 'E', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Replace(s, ".", ",", 1)
}

// formatLongDate renders the long date form, e.g. "sábado, 17 de octubre de 2026".
func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d", weekdays[t.Weekday()], t.Day(), months[t.Month()-1], t.Year())
}

// formatClock renders a 24-hour HH:MM time.
func formatClock(t time.Time) string {
	return t.Format("15:04")
}
