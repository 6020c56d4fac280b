package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Calendar constants used to express ages and onset windows in days.
const (
	DaysPerYear  = 365.25
	DaysPerMonth = DaysPerYear / 12
)

// Interval is a half-open span of postnatal age [Start, End) measured in
// days. End may be +Inf for open-ended windows such as adult onset.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewInterval builds an interval, rejecting reversed bounds.
func NewInterval(start, end float64) (Interval, error) {
	if math.IsNaN(start) || math.IsNaN(end) || end < start {
		return Interval{}, fmt.Errorf("invalid interval [%v, %v)", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// IsOpenEnded reports whether the interval has no upper bound.
func (i Interval) IsOpenEnded() bool {
	return math.IsInf(i.End, 1)
}

// Hull returns the smallest interval containing both i and o.
func (i Interval) Hull(o Interval) Interval {
	return Interval{Start: math.Min(i.Start, o.Start), End: math.Max(i.End, o.End)}
}

// String renders the bounds in days.
func (i Interval) String() string {
	if i.IsOpenEnded() {
		return fmt.Sprintf("[%gd, ∞)", i.Start)
	}
	return fmt.Sprintf("[%gd, %gd)", i.Start, i.End)
}

// Age is the patient's age at the time of examination.
type Age struct {
	Years  int `json:"years" yaml:"years"`
	Months int `json:"months" yaml:"months"`
	Days   int `json:"days" yaml:"days"`
}

var isoAgePattern = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?$`)

// ParseAge parses an ISO 8601 period such as "P1Y2M", "P10D" or "P3W".
func ParseAge(s string) (*Age, error) {
	m := isoAgePattern.FindStringSubmatch(s)
	if m == nil || s == "P" {
		return nil, NewValidationError("age", "expected ISO 8601 period, e.g. P1Y2M3D", s)
	}
	var parts [4]int
	for i, v := range m[1:] {
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, NewValidationError("age", "period component out of range", s)
		}
		parts[i] = n
	}
	weeks, days := parts[2], parts[3]
	if weeks > (math.MaxInt-days)/7 {
		return nil, NewValidationError("age", "period component out of range", s)
	}
	return &Age{
		Years:  parts[0],
		Months: parts[1],
		Days:   weeks*7 + days,
	}, nil
}

// InDays converts the age to days since birth.
func (a Age) InDays() float64 {
	return float64(a.Years)*DaysPerYear + float64(a.Months)*DaysPerMonth + float64(a.Days)
}

// Interval returns the one-day window [t, t+1) the age stands for.
func (a Age) Interval() Interval {
	t := a.InDays()
	return Interval{Start: t, End: t + 1}
}

// String renders the age as an ISO 8601 period.
func (a Age) String() string {
	s := "P"
	if a.Years > 0 {
		s += strconv.Itoa(a.Years) + "Y"
	}
	if a.Months > 0 {
		s += strconv.Itoa(a.Months) + "M"
	}
	if a.Days > 0 || s == "P" {
		s += strconv.Itoa(a.Days) + "D"
	}
	return s
}
