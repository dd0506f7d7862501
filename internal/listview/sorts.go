package listview

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okovalenko/uniconnect/internal/domain/announcement"
)

const (
	SortDateDesc      = "date-desc"
	SortDateAsc       = "date-asc"
	SortTitleAsc      = "title-asc"
	SortTitleDesc     = "title-desc"
	SortEventDateAsc  = "event-date-asc"
	SortEventDateDesc = "event-date-desc"
	SortUrgentFirst   = "urgent-first"
	SortViewsDesc     = "views-desc"
)

// titles sort by Ukrainian collation rules, matching how the board
// displays them
var ukCollator = collate.New(language.Ukrainian)

// compare orders a before b when it returns a negative value. An unknown
// sort key keeps the incoming order (the sort is stable).
func compare(a, b announcement.Announcement, sortKey string) int {
	switch sortKey {
	case SortDateDesc:
		return b.CreatedAt.Compare(a.CreatedAt)
	case SortDateAsc:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortTitleAsc:
		return ukCollator.CompareString(a.Title, b.Title)
	case SortTitleDesc:
		return ukCollator.CompareString(b.Title, a.Title)
	case SortEventDateAsc:
		return compareEventDates(a, b, false)
	case SortEventDateDesc:
		return compareEventDates(a, b, true)
	case SortUrgentFirst:
		if a.Urgent && !b.Urgent {
			return -1
		}
		if !a.Urgent && b.Urgent {
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	case SortViewsDesc:
		return b.ViewCount - a.ViewCount
	default:
		return 0
	}
}

// compareEventDates orders items with no event date after everything else
// regardless of direction.
func compareEventDates(a, b announcement.Announcement, desc bool) int {
	aDate, aOK := a.EventDateTime()
	bDate, bOK := b.EventDateTime()

	if !aOK && !bOK {
		return 0
	}
	if !aOK {
		return 1
	}
	if !bOK {
		return -1
	}

	if desc {
		return bDate.Compare(aDate)
	}
	return aDate.Compare(bDate)
}
