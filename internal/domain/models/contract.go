package models

import (
	"fmt"
	"strconv"
	"time"
)

// MonthCode is the single-letter futures delivery month code.
type MonthCode string

const (
	January   MonthCode = "F"
	February  MonthCode = "G"
	March     MonthCode = "H"
	April     MonthCode = "J"
	May       MonthCode = "K"
	June      MonthCode = "M"
	July      MonthCode = "N"
	August    MonthCode = "Q"
	September MonthCode = "U"
	October   MonthCode = "V"
	November  MonthCode = "X"
	December  MonthCode = "Z"
)

var monthCodeNumbers = map[MonthCode]int{
	January: 1, February: 2, March: 3, April: 4, May: 5, June: 6,
	July: 7, August: 8, September: 9, October: 10, November: 11, December: 12,
}

// MonthCodes lists the codes in calendar order.
var MonthCodes = []MonthCode{
	January, February, March, April, May, June,
	July, August, September, October, November, December,
}

// Valid reports whether c is one of the twelve recognized codes.
func (c MonthCode) Valid() bool {
	_, ok := monthCodeNumbers[c]
	return ok
}

// Number returns 1..12, or 0 for an unknown code.
func (c MonthCode) Number() int {
	return monthCodeNumbers[c]
}

// Month returns the calendar month for a valid code.
func (c MonthCode) Month() time.Month {
	return time.Month(c.Number())
}

// ParseMonthCode accepts a single (case-insensitive) code letter.
func ParseMonthCode(s string) (MonthCode, error) {
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'z' {
		s = string(s[0] - 'a' + 'A')
	}
	c := MonthCode(s)
	if !c.Valid() {
		return "", fmt.Errorf("unrecognized month code %q", s)
	}
	return c, nil
}

// CenturyCutoff splits two-digit years: below it is 20xx, at or above 19xx.
const CenturyCutoff = 50

// CalendarYear expands a two-digit contract year.
func CalendarYear(yy int) int {
	if yy < CenturyCutoff {
		return 2000 + yy
	}
	return 1900 + yy
}

// ContractSymbol is one dated instance of a leg, rendered {ticker}{code}{YY}.
type ContractSymbol struct {
	Ticker string
	Month  MonthCode
	Year   int // two digits, 0..99
}

func (s ContractSymbol) String() string {
	return fmt.Sprintf("%s%s%02d", s.Ticker, s.Month, s.Year)
}

// Suffix is the month code plus two-digit year, the expiry matching key.
func (s ContractSymbol) Suffix() string {
	return fmt.Sprintf("%s%02d", s.Month, s.Year)
}

// CalendarYear applies the century heuristic to the symbol's year.
func (s ContractSymbol) CalendarYear() int {
	return CalendarYear(s.Year)
}

// ParseContractSymbol splits a rendered symbol back into its parts.
func ParseContractSymbol(raw string) (ContractSymbol, error) {
	if len(raw) < 4 {
		return ContractSymbol{}, fmt.Errorf("contract symbol %q too short", raw)
	}
	yy, err := strconv.Atoi(raw[len(raw)-2:])
	if err != nil || yy < 0 {
		return ContractSymbol{}, fmt.Errorf("contract symbol %q: bad year suffix", raw)
	}
	code := MonthCode(raw[len(raw)-3 : len(raw)-2])
	if !code.Valid() {
		return ContractSymbol{}, fmt.Errorf("contract symbol %q: bad month code", raw)
	}
	return ContractSymbol{Ticker: raw[:len(raw)-3], Month: code, Year: yy}, nil
}
