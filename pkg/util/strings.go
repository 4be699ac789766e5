package util

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitList splits a bracketed literal list such as "['#BRGBM', '#ICENBAM']"
// or "[1,-1]" into trimmed, unquoted items. Brackets are optional.
func SplitList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(") {
		if len(s) < 2 || !(strings.HasSuffix(s, "]") || strings.HasSuffix(s, ")")) {
			return nil, fmt.Errorf("unterminated list %q", s)
		}
		s = s[1 : len(s)-1]
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && (p[0] == '\'' || p[0] == '"') {
			if p[len(p)-1] != p[0] {
				return nil, fmt.Errorf("unbalanced quotes in %q", p)
			}
			p = p[1 : len(p)-1]
		}
		out = append(out, p)
	}
	// allow a trailing comma, as in "['A',]"
	if n := len(out); n > 0 && out[n-1] == "" {
		out = out[:n-1]
	}
	return out, nil
}

// ParseIntList parses a literal list of integers.
func ParseIntList(s string) ([]int, error) {
	items, err := SplitList(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, it := range items {
		v, err := strconv.Atoi(it)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ParseFloatList parses a literal list of numbers.
func ParseFloatList(s string) ([]float64, error) {
	items, err := SplitList(s)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(items))
	for i, it := range items {
		v, err := strconv.ParseFloat(it, 64)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
