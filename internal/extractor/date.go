package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateMatcher reports the incident date of one style in text. now anchors
// relative expressions.
type DateMatcher func(text string, now time.Time) (time.Time, bool)

var (
	numericDate = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`)
	verboseDate = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?,?\s+(\d{4})\b`)
	relative    = regexp.MustCompile(`(?i)today|yesterday|आज|कल`)
)

// DateMatchers are tried in order; the first hit wins.
var DateMatchers = []DateMatcher{
	NumericDate,
	VerboseDate,
	RelativeDate,
}

// NumericDate matches D/M/Y with "/", "-" or "." separators. Dates that do
// not exist on the calendar are skipped.
func NumericDate(text string, now time.Time) (time.Time, bool) {
	for _, m := range numericDate.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if d, ok := calendarDate(year, time.Month(month), day, now.Location()); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// VerboseDate matches "5 November 2025" and "5 Nov 2025".
func VerboseDate(text string, now time.Time) (time.Time, bool) {
	for _, m := range verboseDate.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		month, ok := months[strings.ToLower(m[2])[:3]]
		if !ok {
			continue
		}
		if d, ok := calendarDate(year, month, day, now.Location()); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// RelativeDate resolves the leftmost of today, yesterday, आज and कल against
// now. कल is read as yesterday since complaints describe past events.
func RelativeDate(text string, now time.Time) (time.Time, bool) {
	m := relative.FindString(text)
	if m == "" {
		return time.Time{}, false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch strings.ToLower(m) {
	case "yesterday", "कल":
		return day.AddDate(0, 0, -1), true
	default:
		return day, true
	}
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// calendarDate rejects values time.Date would silently normalise.
func calendarDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}
