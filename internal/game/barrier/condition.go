// Package barrier implements the compact condition language used by barrier
// fields to decide whether a dice total releases a blocked team.
//
// Grammar:
//
//	"-3"    at most 3 (maximum mode)
//	"5+"    at least 5, including bonus-inflated totals above 6 (minimum mode)
//	"4,5,6" exactly one of the listed values (exact mode)
//
// Malformed input falls back to exact {4, 5, 6}. Conditions are always
// evaluated against the standard+bonus total, never the standard die alone:
// a bonus die exists specifically to help escape barriers. Note that in exact
// mode a bonus die can overshoot every listed value and make release
// impossible for that roll; that behavior is deliberate.
package barrier

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mode classifies how a condition compares a dice total.
type Mode int

const (
	ModeExact Mode = iota
	ModeMinimum
	ModeMaximum
)

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "EXACT"
	case ModeMinimum:
		return "MINIMUM"
	case ModeMaximum:
		return "MAXIMUM"
	default:
		return fmt.Sprintf("MODE_%d", int(m))
	}
}

// Condition is a normalized barrier release predicate.
type Condition struct {
	Mode    Mode   `json:"mode"`
	Numbers []int  `json:"numbers"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Display string `json:"display"`
}

// Parse normalizes a raw condition string. It never fails: anything it
// cannot make sense of degrades to the exact {4,5,6} default so that one bad
// field configuration can not break a running game.
func Parse(raw string) Condition {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "-") {
		if n, err := strconv.Atoi(s[1:]); err == nil {
			n = clampFace(n)
			return Condition{
				Mode:    ModeMaximum,
				Numbers: faceRange(1, n),
				Min:     1,
				Max:     n,
				Display: fmt.Sprintf("Roll at most a %d!", n),
			}
		}
	}

	if strings.HasSuffix(s, "+") {
		if n, err := strconv.Atoi(s[:len(s)-1]); err == nil {
			n = clampFace(n)
			return Condition{
				Mode:    ModeMinimum,
				Numbers: faceRange(n, 6),
				Min:     n,
				Max:     6,
				Display: fmt.Sprintf("Roll at least a %d!", n),
			}
		}
	}

	var numbers []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			numbers = nil
			break
		}
		if n >= 1 && n <= 6 {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		numbers = []int{4, 5, 6}
	}
	sort.Ints(numbers)
	numbers = dedupe(numbers)

	return Condition{
		Mode:    ModeExact,
		Numbers: numbers,
		Min:     numbers[0],
		Max:     numbers[len(numbers)-1],
		Display: exactDisplay(numbers),
	}
}

// Default returns the fallback condition used when no configuration is
// available at all.
func Default() Condition {
	return Parse("4,5,6")
}

// Satisfied reports whether the given dice total releases the barrier.
// The total must already include any bonus die.
func (c Condition) Satisfied(total int) bool {
	switch c.Mode {
	case ModeMinimum:
		return total >= c.Min
	case ModeMaximum:
		return total <= c.Max
	default:
		for _, n := range c.Numbers {
			if total == n {
				return true
			}
		}
		return false
	}
}

func clampFace(n int) int {
	if n < 1 {
		return 1
	}
	if n > 6 {
		return 6
	}
	return n
}

func faceRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, n := range sorted {
		if i == 0 || n != sorted[i-1] {
			out = append(out, n)
		}
	}
	return out
}

func exactDisplay(numbers []int) string {
	switch len(numbers) {
	case 1:
		return fmt.Sprintf("Roll a %d!", numbers[0])
	case 2:
		return fmt.Sprintf("Roll a %d or %d!", numbers[0], numbers[1])
	default:
		parts := make([]string, len(numbers)-1)
		for i, n := range numbers[:len(numbers)-1] {
			parts[i] = strconv.Itoa(n)
		}
		return fmt.Sprintf("Roll a %s or %d!", strings.Join(parts, ", "), numbers[len(numbers)-1])
	}
}
