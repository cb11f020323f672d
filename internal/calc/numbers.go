// Package calc holds the arithmetic side of the assistant: numeric token
// extraction, the restricted expression evaluator, and the unit converters.
//
// Everything here is pure and safe for concurrent use.
package calc

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NumberPattern matches a numeric literal: digits, optionally followed by a
// decimal separator ('.' or ',') and more digits.
const NumberPattern = `[0-9]+[.,]?[0-9]*`

var numberRe = regexp.MustCompile(NumberPattern)

// Token is a numeric literal found in free text.
type Token struct {
	Value float64
	Span  string
}

// ParseNumber converts a literal matched by NumberPattern into a float.
// A ',' decimal separator is treated as '.'.
func ParseNumber(literal string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(literal), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", literal, err)
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("parsing number %q: out of range", literal)
	}
	return v, nil
}

// Tokens returns every numeric literal in s, left to right. Literals that
// cannot be represented as a finite float are skipped.
func Tokens(s string) []Token {
	matches := numberRe.FindAllString(s, -1)
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		v, err := ParseNumber(m)
		if err != nil {
			continue
		}
		tokens = append(tokens, Token{Value: v, Span: m})
	}
	return tokens
}

// All returns the values of every numeric literal in s, left to right.
func All(s string) []float64 {
	tokens := Tokens(s)
	values := make([]float64, len(tokens))
	for i, t := range tokens {
		values[i] = t.Value
	}
	return values
}

// First returns the first numeric literal in s.
func First(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := ParseNumber(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ErrNotEnoughOperands is returned when an arithmetic operation receives
// fewer operands than it needs.
var ErrNotEnoughOperands = errors.New("not enough operands")

// Sum adds every operand. It needs at least one.
func Sum(nums []float64) (float64, error) {
	if len(nums) == 0 {
		return 0, ErrNotEnoughOperands
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total, nil
}

// Subtract takes the first operand minus each of the remaining ones in order.
func Subtract(nums []float64) (float64, error) {
	if len(nums) == 0 {
		return 0, ErrNotEnoughOperands
	}
	res := nums[0]
	for _, n := range nums[1:] {
		res -= n
	}
	return res, nil
}

// Product multiplies every operand. It needs at least one.
func Product(nums []float64) (float64, error) {
	if len(nums) == 0 {
		return 0, ErrNotEnoughOperands
	}
	res := 1.0
	for _, n := range nums {
		res *= n
	}
	return res, nil
}

// Divide divides the first operand by each following one in order. It needs
// at least two operands and stops at the first zero divisor.
func Divide(nums []float64) (float64, error) {
	if len(nums) < 2 {
		return 0, ErrNotEnoughOperands
	}
	res := nums[0]
	for _, n := range nums[1:] {
		if n == 0 {
			return 0, ErrDivisionByZero
		}
		res /= n
	}
	return res, nil
}
