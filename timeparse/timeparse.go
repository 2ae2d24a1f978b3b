// Package timeparse turns loose natural-language time, date and duration
// phrases into timestamps and minutes.
package timeparse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	StartTimeLayout = "2006-01-02T15:04"
	DateLayout      = "2006-01-02"
)

var fullLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	StartTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var (
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:t|\b)`)
	todayRe     = regexp.MustCompile(`\btoday\b`)
	tonightRe   = regexp.MustCompile(`\btonight\b`)
	tomorrowRe  = regexp.MustCompile(`\btomorrow\b`)
	yesterdayRe = regexp.MustCompile(`\byesterday\b`)

	meridianRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s?m\b\.?`)
	clockRe    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	hourRe     = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\b`)
	noonRe     = regexp.MustCompile(`\bnoon\b|\bmidday\b`)
	midnightRe = regexp.MustCompile(`\bmidnight\b`)

	// days that are never guessed: weekdays, month names, ordinals,
	// relative offsets and numeric dates other than ISO
	unresolvedDayRe = regexp.MustCompile(strings.Join([]string{
		`\b(?:(?:mon|tues|wednes|thurs|fri|satur|sun)days?|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)\b`,
		`\b(?:january|february|march|april|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\b`,
		`\bmay\s+\d`,
		`\b\d{1,2}(?:st|nd|rd|th)\b`,
		`\b(?:next|this|last|coming)\s+(?:week|weekend|month|year)\b`,
		`\bday (?:after|before)\b`,
		`\bin\s+(?:\d+|a|an|one|two|three)\s+(?:days?|weeks?|months?)\b`,
		`\b\d{1,4}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`,
	}, "|"))

	durationRe  = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(hours|hour|hrs|hr|h|minutes|minute|mins|min|m)\b`)
	unitDigitRe = regexp.MustCompile(`([a-z])(\d)`)
	integerRe   = regexp.MustCompile(`^\s*(\d+)\s*$`)
)

type dayPart int

const (
	noDayPart dayPart = iota
	morning
	afternoon
	evening
	night
)

func findDayPart(text string) dayPart {
	switch {
	case strings.Contains(text, "morning"):
		return morning
	case strings.Contains(text, "afternoon"):
		return afternoon
	case strings.Contains(text, "evening"):
		return evening
	case strings.Contains(text, "night"):
		return night
	}
	return noDayPart
}

// ParseStartTime resolves phrase to a start instant relative to now. Without
// a day qualifier, a time of day that has already passed rolls forward to the
// next day. Phrases that do not name a time of day, or that name a day
// HasUnresolvedDay reports, are rejected.
func ParseStartTime(phrase string, now time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(phrase))
	if text == "" {
		return time.Time{}, false
	}
	loc := now.Location()

	for _, layout := range fullLayouts {
		if t, err := time.ParseInLocation(layout, strings.ToUpper(text), loc); err == nil {
			return t, true
		}
	}

	base, qualified, ok := findDay(text, now)
	if !ok {
		return time.Time{}, false
	}
	text = isoDateRe.ReplaceAllString(text, " ")

	hour, minute, ok := timeOfDay(text)
	if !ok {
		return time.Time{}, false
	}

	t := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, loc)
	if !qualified && t.Before(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// findDay returns the calendar day named by text, or today when it names none.
func findDay(text string, now time.Time) (day time.Time, qualified bool, ok bool) {
	if HasUnresolvedDay(text) {
		return time.Time{}, false, false
	}
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		d, err := time.ParseInLocation(DateLayout, m[1]+"-"+m[2]+"-"+m[3], now.Location())
		if err != nil {
			return time.Time{}, false, false
		}
		return d, true, true
	}
	switch {
	case tomorrowRe.MatchString(text):
		return now.AddDate(0, 0, 1), true, true
	case yesterdayRe.MatchString(text):
		return now.AddDate(0, 0, -1), true, true
	case todayRe.MatchString(text), tonightRe.MatchString(text):
		return now, true, true
	}
	return now, false, true
}

func timeOfDay(text string) (hour, minute int, ok bool) {
	if m := meridianRe.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, 0, false
		}
		switch {
		case m[3] == "p" && hour != 12:
			hour += 12
		case m[3] == "a" && hour == 12:
			hour = 0
		}
		return hour, minute, true
	}

	part := findDayPart(text)
	if tonightRe.MatchString(text) && part == noDayPart {
		part = night
	}
	if part != noDayPart {
		if m := hourRe.FindStringSubmatch(text); m != nil {
			hour, _ = strconv.Atoi(m[1])
			if m[2] != "" {
				minute, _ = strconv.Atoi(m[2])
			}
			if hour > 23 || minute > 59 {
				return 0, 0, false
			}
			return applyDayPart(hour, part), minute, true
		}
	}

	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute, true
	}

	switch {
	case noonRe.MatchString(text):
		return 12, 0, true
	case midnightRe.MatchString(text):
		return 0, 0, true
	}

	return 0, 0, false
}

func applyDayPart(hour int, part dayPart) int {
	if hour > 12 {
		return hour
	}
	switch part {
	case morning:
		if hour == 12 {
			return 0
		}
	case afternoon, evening:
		if hour < 12 {
			return hour + 12
		}
	case night:
		switch {
		case hour == 12:
			return 0
		case hour >= 5:
			return hour + 12
		}
	}
	return hour
}

// HasDayQualifier reports whether phrase names its own day.
func HasDayQualifier(phrase string) bool {
	text := strings.ToLower(phrase)
	return isoDateRe.MatchString(text) ||
		todayRe.MatchString(text) ||
		tonightRe.MatchString(text) ||
		tomorrowRe.MatchString(text) ||
		yesterdayRe.MatchString(text)
}

// HasUnresolvedDay reports whether phrase refers to a day other than today,
// tonight, tomorrow, yesterday or an ISO date, e.g. "next friday" or "10/20".
func HasUnresolvedDay(phrase string) bool {
	text := isoDateRe.ReplaceAllString(strings.ToLower(phrase), " ")
	return unresolvedDayRe.MatchString(text)
}

// ParseDate returns local midnight of the day phrase names.
func ParseDate(phrase string, now time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(phrase))
	if text == "" {
		return time.Time{}, false
	}
	day, qualified, ok := findDay(text, now)
	if !ok || !qualified {
		return time.Time{}, false
	}
	start, _ := DayBounds(day)
	return start, true
}

// ParseDuration sums every hour and minute quantity in phrase. A phrase that
// is only an integer is read as minutes. A negative quantity rejects the
// whole phrase.
func ParseDuration(phrase string) (int, bool) {
	text := strings.ToLower(strings.TrimSpace(phrase))
	// "1h30m" -> "1h 30m"
	text = unitDigitRe.ReplaceAllString(text, "$1 $2")
	if m := integerRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}

	matches := durationRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	var total float64
	for _, m := range matches {
		if strings.HasSuffix(strings.TrimRight(text[:m[0]], " "), "-") {
			return 0, false
		}
		amount, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil {
			return 0, false
		}
		if text[m[4]] == 'h' {
			total += amount * 60
		} else {
			total += amount
		}
	}
	total = math.Round(total)
	if total <= 0 || total > math.MaxInt32 {
		return 0, false
	}
	return int(total), true
}

// FormatDuration renders minutes as "1h 20m", "2h" or "45m".
func FormatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// DayBounds returns local midnight of day and of the day after.
func DayBounds(day time.Time) (start, end time.Time) {
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func FormatStartTime(t time.Time) string {
	return t.Format(StartTimeLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
