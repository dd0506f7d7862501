package listview

import (
	"strings"
	"time"

	"github.com/okovalenko/uniconnect/internal/domain/announcement"
)

// matchItem decides whether an item passes one filter. Unknown filter
// keys never exclude anything.
func matchItem(a announcement.Announcement, key, value string, now time.Time) bool {
	switch key {
	case "search":
		term := strings.ToLower(value)
		return strings.Contains(strings.ToLower(a.Title), term) ||
			strings.Contains(strings.ToLower(a.Description), term) ||
			(a.Location != "" && strings.Contains(strings.ToLower(a.Location), term)) ||
			(a.Requirements != "" && strings.Contains(strings.ToLower(a.Requirements), term)) ||
			(a.TargetAudience != "" && strings.Contains(strings.ToLower(a.TargetAudience), term))
	case "category":
		return a.Category == value
	case "organization":
		return a.OrganizationType == value
	case "date":
		return matchDate(a, value, now)
	case "format":
		return a.Format == value
	case "urgent":
		// only the explicit "true" narrows the list
		if value == "true" {
			return a.Urgent
		}
		return true
	case "location":
		return a.Location != "" && strings.Contains(strings.ToLower(a.Location), strings.ToLower(value))
	default:
		return true
	}
}

func matchDate(a announcement.Announcement, filter string, now time.Time) bool {
	switch filter {
	case "today":
		y1, m1, d1 := a.CreatedAt.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case "week":
		// rolling seven days, not the calendar week
		return !a.CreatedAt.Before(now.Add(-7 * 24 * time.Hour))
	case "month":
		// rolling thirty days
		return !a.CreatedAt.Before(now.Add(-30 * 24 * time.Hour))
	case "future":
		ev, ok := a.EventDateTime()
		return ok && ev.After(now)
	case "past":
		ev, ok := a.EventDateTime()
		return ok && ev.Before(now)
	case "this_week":
		ev, ok := a.EventDateTime()

		if !ok {
			return false
		}

		// calendar week starting Sunday
		y, m, d := now.Date()
		start := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 6).Add(24*time.Hour - time.Nanosecond)

		return !ev.Before(start) && !ev.After(end)
	case "this_month":
		ev, ok := a.EventDateTime()

		if !ok {
			return false
		}

		return ev.Month() == now.Month() && ev.Year() == now.Year()
	default:
		return true
	}
}
