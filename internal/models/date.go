// Package models defines data structures for Arth-Mitra
package models

import (
	"fmt"
	"time"
)

// Date is a calendar day with no time component.
// Only constructed through NewDate, so every value is a valid Gregorian date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates year/month/day and rejects impossible combinations
// (month 13, day 32, 30 February) instead of normalising them.
func NewDate(year, month, day int) (Date, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return Date{}, false
	}
	if day > DaysIn(time.Month(month), year) {
		return Date{}, false
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, true
}

// DaysIn returns the number of days in the given month of year.
func DaysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOf truncates t to its calendar day, discarding the time of day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats as dd/mm/yyyy, the layout of the price source.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// Readable formats as "25 December 2020".
func (d Date) Readable() string {
	return d.Time().Format("02 January 2006")
}
