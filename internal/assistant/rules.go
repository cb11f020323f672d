package assistant

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nadzzz/voxmate/internal/calc"
)

// turn is the per-call state a rule sees. Rules may update sess.
type turn struct {
	a    *Assistant
	u    Utterance
	sess Session
	now  time.Time
}

// rule pairs an intent with its matcher. A matcher returns false to let the
// next rule try.
type rule struct {
	intent Intent
	match  func(t *turn) (string, bool)
}

// ruleTable is tried top to bottom; the first match wins.
var ruleTable = []rule{
	{IntentHelp, matchHelp},
	{IntentGreeting, matchGreeting},
	{IntentTellTime, matchTellTime},
	{IntentTellDate, matchTellDate},
	{IntentFarewell, matchFarewell},
	{IntentJoke, matchJoke},
	{IntentAdd, matchAdd},
	{IntentSubtract, matchSubtract},
	{IntentMultiply, matchMultiply},
	{IntentDivide, matchDivide},
	{IntentPercentage, matchPercentage},
	{IntentTemperatureConvert, matchTemperature},
	{IntentDistanceConvert, matchDistance},
	{IntentSquareRoot, matchSquareRoot},
	{IntentPower, matchPower},
	{IntentExpressionEvaluate, matchExpression},
	{IntentRememberName, matchRememberName},
	{IntentRecallName, matchRecallName},
	{IntentAssistantIdentity, matchAssistantIdentity},
	{IntentRandomInRange, matchRandomInRange},
	{IntentRandomNumber, matchRandomNumber},
}

// words builds a whole-word alternation. Patterns are written without
// accents because they run against Utterance.Folded.
func words(alts ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
}

const num = `([0-9]+[.,]?[0-9]*)`

const (
	celsiusUnit    = `(?:c|celsius|centigrad(?:o|os|a|as)?)`
	fahrenheitUnit = `(?:f|fahrenheit|farenheit)`
)

var (
	helpRe     = words("ayuda", "ayudar", "ayudame", "que puedes hacer", "que puede hacer", "comandos", "tareas", "mostrar comandos", "que sabes hacer")
	farewellRe = words("adios", "hasta luego", "nos vemos", "chao")
	jokeRe     = words("chiste", "cuenta un chiste", "hazme reir")
	addRe      = words("suma", "sumar", "anade", "agrega", "mas", "calcula")
	subRe      = words("resta", "restar", "menos")
	mulRe      = words("multiplica", "multiplicar", "por", "producto", "multiplicacion")
	divRe      = words("divide", "dividir", "entre")
	randWordRe = words("aleatorio", "azar")

	percentRe = regexp.MustCompile(num + `\s*(?:%|por ciento|porciento)\s*(?:de)?\s*` + num)

	cToFRe        = regexp.MustCompile(num + `\s*` + celsiusUnit + `\b.*?\b` + fahrenheitUnit + `\b`)
	fToCRe        = regexp.MustCompile(num + `\s*` + fahrenheitUnit + `\b.*?\b` + celsiusUnit + `\b`)
	reverseCToFRe = regexp.MustCompile(`\b` + celsiusUnit + `\b.*?` + num + `.*?\b` + fahrenheitUnit + `\b`)
	reverseFToCRe = regexp.MustCompile(`\b` + fahrenheitUnit + `\b.*?` + num + `.*?\b` + celsiusUnit + `\b`)
	degreeMarks   = strings.NewReplacer("°", " ", "º", " ", "grados", " ")

	temperatureRules = []struct {
		re          *regexp.Regexp
		fromCelsius bool
	}{
		{cToFRe, true},
		{fToCRe, false},
		{reverseCToFRe, true},
		{reverseFToCRe, false},
	}

	kmRe    = words("km", "kilometros?")
	milesRe = words("mi", "millas?")
	metreRe = words("metros?", "m")

	sqrtRe  = regexp.MustCompile(`\b(?:raiz|sqrt)\b.*?(-?[0-9]+[.,]?[0-9]*)`)
	powerRe = regexp.MustCompile(num + `\s*(?:a la potencia|al cuadrado|al cubo|\^)\s*([0-9]+)`)

	rememberNameRe = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:me llamo|mi nombre es|soy)\s+([a-záéíóúüñ]+)`)
	recallNameRe   = words("mi nombre", "como me llamo")
	identityRe     = words("tu nombre", "como te llamas", "quien eres")

	rangeRe     = regexp.MustCompile(`\bentre\s+(?:el\s+)?` + num + `\s+y\s+(?:el\s+)?` + num + `\b`)
	randomNumRe = words("numero aleatorio", "dame un numero")
)

// maxRangeBound caps random-range bounds so the span fits an int.
const maxRangeBound = 1e15

func matchHelp(t *turn) (string, bool) {
	if !helpRe.MatchString(t.u.Folded) {
		return "", false
	}
	return t.a.phrases.Help, true
}

func matchGreeting(t *turn) (string, bool) {
	if !strings.Contains(t.u.Folded, "hola") {
		return "", false
	}
	greeting := t.a.pick(t.a.phrases.greetingsFor(t.now.Hour()))
	if t.sess.UserName != "" {
		return fmt.Sprintf("%s, %s. Soy %s. ¿En qué te ayudo?", greeting, t.sess.UserName, Name), true
	}
	return fmt.Sprintf("%s. Soy %s. ¿En qué te ayudo?", greeting, Name), true
}

func matchTellTime(t *turn) (string, bool) {
	if !strings.Contains(t.u.Folded, "hora") {
		return "", false
	}
	return "Son las " + formatClock(t.now) + ".", true
}

func matchTellDate(t *turn) (string, bool) {
	f := t.u.Folded
	if !strings.Contains(f, "fecha") && !strings.Contains(f, "hoy") && !strings.Contains(f, "dia") {
		return "", false
	}
	return formatLongDate(t.now), true
}

func matchFarewell(t *turn) (string, bool) {
	if !farewellRe.MatchString(t.u.Folded) {
		return "", false
	}
	return t.a.pick(t.a.phrases.Goodbyes) + ".", true
}

func matchJoke(t *turn) (string, bool) {
	if !jokeRe.MatchString(t.u.Folded) {
		return "", false
	}
	return t.a.pick(t.a.phrases.Jokes), true
}

// arithmetic handles the keyword-driven operations. Once the keyword
// matches, the rule always answers, with an explicit message when operands
// are missing.
func arithmetic(t *turn, keyword *regexp.Regexp, op func([]float64) (float64, error), missing string) (string, bool) {
	if !keyword.MatchString(t.u.Folded) {
		return "", false
	}
	res, err := op(calc.All(t.u.Raw))
	if err != nil {
		return missing, true
	}
	return resultText(res), true
}

func matchAdd(t *turn) (string, bool) {
	return arithmetic(t, addRe, calc.Sum, "No encontré números para sumar.")
}

func matchSubtract(t *turn) (string, bool) {
	return arithmetic(t, subRe, calc.Subtract, "No encontré números para restar.")
}

func matchMultiply(t *turn) (string, bool) {
	return arithmetic(t, mulRe, calc.Product, "No encontré números para multiplicar.")
}

// matchDivide skips "entre" phrasings that ask for a random number.
func matchDivide(t *turn) (string, bool) {
	if !divRe.MatchString(t.u.Folded) || randWordRe.MatchString(t.u.Folded) {
		return "", false
	}
	res, err := calc.Divide(calc.All(t.u.Raw))
	switch {
	case errors.Is(err, calc.ErrDivisionByZero):
		return "Error: división por cero.", true
	case err != nil:
		return "No encontré suficientes números para dividir (se necesitan al menos 2).", true
	}
	return resultText(res), true
}

func matchPercentage(t *turn) (string, bool) {
	m := percentRe.FindStringSubmatch(t.u.Folded)
	if m == nil {
		return "", false
	}
	p, err1 := calc.ParseNumber(m[1])
	total, err2 := calc.ParseNumber(m[2])
	if err1 != nil || err2 != nil {
		return "", false
	}
	res := total * (p / 100.0)
	return fmt.Sprintf("%s%% de %s es %s.", formatNumber(p), formatNumber(total), formatNumber(res)), true
}

// matchTemperature tries the forward phrasings ("20 c a f") and then the
// reverse ones ("de celsius 30 a fahrenheit"), where the number belongs to
// the unit named before it.
func matchTemperature(t *turn) (string, bool) {
	s := degreeMarks.Replace(t.u.Folded)
	for _, tr := range temperatureRules {
		m := tr.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v, err := calc.ParseNumber(m[1])
		if err != nil {
			continue
		}
		if tr.fromCelsius {
			f := calc.Round(calc.CelsiusToFahrenheit(v), 2)
			return fmt.Sprintf("%s °C son %s °F.", formatNumber(v), formatNumber(f)), true
		}
		c := calc.Round(calc.FahrenheitToCelsius(v), 2)
		return fmt.Sprintf("%s °F son %s °C.", formatNumber(v), formatNumber(c)), true
	}
	return "", false
}

// matchDistance converts km<->mi by the order the units are mentioned, and
// m->km whenever metres and kilometres both appear. Only the first number in
// the utterance is used.
func matchDistance(t *turn) (string, bool) {
	f := t.u.Folded
	km := kmRe.FindStringIndex(f)
	mi := milesRe.FindStringIndex(f)

	if km != nil && mi != nil {
		if v, ok := calc.First(t.u.Raw); ok {
			if km[0] < mi[0] {
				miles := calc.Round(calc.KmToMiles(v), 4)
				return fmt.Sprintf("%s km ≈ %s mi.", formatNumber(v), formatNumber(miles)), true
			}
			kms := calc.Round(calc.MilesToKm(v), 4)
			return fmt.Sprintf("%s mi ≈ %s km.", formatNumber(v), formatNumber(kms)), true
		}
	}

	if km != nil && metreRe.MatchString(f) {
		if v, ok := calc.First(t.u.Raw); ok {
			kms := calc.Round(calc.MetersToKm(v), 4)
			return fmt.Sprintf("%s m ≈ %s km.", formatNumber(v), formatNumber(kms)), true
		}
	}
	return "", false
}

func matchSquareRoot(t *turn) (string, bool) {
	m := sqrtRe.FindStringSubmatch(t.u.Folded)
	if m == nil {
		return "", false
	}
	n, err := calc.ParseNumber(m[1])
	if err != nil {
		return "", false
	}
	if n < 0 {
		return "No puedo calcular la raíz cuadrada de un número negativo.", true
	}
	r := calc.Round(math.Sqrt(n), 6)
	return fmt.Sprintf("La raíz cuadrada de %s es %s.", formatNumber(n), formatNumber(r)), true
}

func matchPower(t *turn) (string, bool) {
	m := powerRe.FindStringSubmatch(t.u.Folded)
	if m == nil {
		return "", false
	}
	base, err := calc.ParseNumber(m[1])
	if err != nil {
		return "", false
	}
	exp, err := strconv.Atoi(m[2])
	if err != nil {
		return "", false
	}
	r := math.Pow(base, float64(exp))
	return fmt.Sprintf("%s^%d = %s.", formatNumber(base), exp, formatNumber(r)), true
}

// matchExpression is the best-effort arithmetic path: any evaluation
// failure, division by zero included, falls through to the next rule.
func matchExpression(t *turn) (string, bool) {
	expr := calc.Sanitize(t.u.Raw)
	if !calc.IsCandidate(expr) {
		return "", false
	}
	v, err := calc.Evaluate(expr)
	if err != nil {
		t.a.logger.Debug("expression not evaluated", "expr", expr, "error", err)
		return "", false
	}
	return resultText(v), true
}

func matchRememberName(t *turn) (string, bool) {
	m := rememberNameRe.FindStringSubmatch(t.u.Normalized)
	if m == nil {
		return "", false
	}
	t.sess.UserName = titleName(m[1])
	return fmt.Sprintf("Encantado de conocerte, %s.", t.sess.UserName), true
}

func matchRecallName(t *turn) (string, bool) {
	if !recallNameRe.MatchString(t.u.Folded) {
		return "", false
	}
	if t.sess.UserName == "" {
		return "Aún no me has dicho tu nombre.", true
	}
	return fmt.Sprintf("Te llamas %s.", t.sess.UserName), true
}

func matchAssistantIdentity(t *turn) (string, bool) {
	if !identityRe.MatchString(t.u.Folded) {
		return "", false
	}
	return fmt.Sprintf("Me llamo %s, tu asistente.", Name), true
}

// matchRandomInRange reads both bounds as integers (fractions are
// truncated) and swaps them when given in descending order.
func matchRandomInRange(t *turn) (string, bool) {
	m := rangeRe.FindStringSubmatch(t.u.Folded)
	if m == nil {
		return "", false
	}
	lo, err1 := calc.ParseNumber(m[1])
	hi, err2 := calc.ParseNumber(m[2])
	if err1 != nil || err2 != nil || lo > maxRangeBound || hi > maxRangeBound {
		return "", false
	}
	minV, maxV := int(math.Trunc(lo)), int(math.Trunc(hi))
	if minV > maxV {
		minV, maxV = maxV, minV
	}
	n := minV + t.a.rng.IntN(maxV-minV+1)
	return fmt.Sprintf("Número aleatorio entre %d y %d: %d.", minV, maxV, n), true
}

func matchRandomNumber(t *turn) (string, bool) {
	if !randomNumRe.MatchString(t.u.Folded) {
		return "", false
	}
	return fmt.Sprintf("Aquí tienes un número aleatorio: %d.", 1+t.a.rng.IntN(100)), true
}

func resultText(v float64) string {
	return "El resultado es " + formatNumber(v) + "."
}
