// Package dialog implements the per-channel conversational state machine
// that turns chat messages into bookings, emergency intakes and queue
// lookups.
package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mediqueue/MediQueue/internal/models"
)

var (
	inputDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	slotTimeRe  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// resetKeywords restart the conversation from the top regardless of step.
var resetKeywords = map[string]bool{
	"menu":  true,
	"hi":    true,
	"hello": true,
	"start": true,
	"قائمة": true,
	"مرحبا": true,
}

// normalize lowercases and trims a patient's input.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// isResetKeyword reports whether text is a greeting or menu keyword.
func isResetKeyword(text string) bool {
	return resetKeywords[normalize(text)]
}

// parseInputDate parses a DD/MM/YYYY date, tolerating missing leading zeros,
// and returns it in the canonical storage layout.
func parseInputDate(text string, loc *time.Location) (string, error) {
	m := inputDateRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", fmt.Errorf("not a DD/MM/YYYY date: %q", text)
	}
	padded := fmt.Sprintf("%02s/%02s/%s", m[1], m[2], m[3])
	d, err := time.ParseInLocation(models.InputDateLayout, padded, loc)
	if err != nil {
		return "", err
	}
	return d.Format(models.DateLayout), nil
}

// parseMenuChoice parses an exact menu number within [1, max].
func parseMenuChoice(text string, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

// parseYesNo interprets a yes/no answer in either language. It accepts the
// numbered options as well as the words themselves.
func parseYesNo(text string) (yes bool, ok bool) {
	t := normalize(text)
	switch {
	case t == "1" || strings.Contains(t, "yes") || strings.Contains(t, "نعم"):
		return true, true
	case t == "2" || strings.Contains(t, "no") || strings.Contains(t, "لا"):
		return false, true
	default:
		return false, false
	}
}

// parseSlotChoice resolves a time-slot answer against the offered list: a
// 1-based list index, or an HH:MM time (leading zero optional) that is a
// member of the list.
func parseSlotChoice(text string, slots []string) (string, bool) {
	t := strings.TrimSpace(text)
	if n, err := strconv.Atoi(t); err == nil {
		if n >= 1 && n <= len(slots) {
			return slots[n-1], true
		}
		return "", false
	}
	m := slotTimeRe.FindStringSubmatch(t)
	if m == nil {
		return "", false
	}
	candidate := fmt.Sprintf("%02s:%s", m[1], m[2])
	for _, s := range slots {
		if s == candidate {
			return s, true
		}
	}
	return "", false
}

// formatInputDate renders a canonical date back in the patient-facing
// DD/MM/YYYY layout.
func formatInputDate(date string, loc *time.Location) string {
	d, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return date
	}
	return d.Format(models.InputDateLayout)
}

// renderDateList formats offered dates, one per line with the weekday name.
func renderDateList(dates []string, loc *time.Location) string {
	var b strings.Builder
	for _, date := range dates {
		d, err := time.ParseInLocation(models.DateLayout, date, loc)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "📅 %s (%s)\n", d.Format(models.InputDateLayout), d.Weekday())
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderSlotList formats offered slots as a numbered list.
func renderSlotList(slots []string) string {
	var b strings.Builder
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
