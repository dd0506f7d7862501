package announcement

import (
	"errors"
	"time"
)

const (
	StatusActive = "active"
	StatusDraft  = "draft"
)

// Announcement is a posting created by an organization account.
// Event and expiry dates are kept in their wire form ("2006-01-02") because
// they are optional and compared as calendar dates, not instants.
type Announcement struct {
	ID               string `json:"id"`
	AuthorID         string `json:"authorId"`
	OrganizationType string `json:"organizationType"` // author's type at creation time

	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`

	EventDate      string `json:"eventDate,omitempty"`
	EventTime      string `json:"eventTime,omitempty"`
	Duration       string `json:"duration,omitempty"`
	Location       string `json:"location,omitempty"`
	Format         string `json:"format,omitempty"`
	TargetAudience string `json:"targetAudience,omitempty"`

	Requirements string `json:"requirements,omitempty"`
	Compensation string `json:"compensation,omitempty"`

	// contact overrides; author's profile values apply when empty
	ContactEmail   string `json:"contactEmail,omitempty"`
	ContactPhone   string `json:"contactPhone,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`

	Urgent             bool   `json:"urgent"`
	EmailNotifications bool   `json:"emailNotifications,omitempty"`
	ExpiryDate         string `json:"expiryDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsActive  bool      `json:"isActive"`
	ViewCount int       `json:"viewCount"`
	Status    string    `json:"status"`
}

var ErrNotFound = errors.New("announcement not found")

const dateLayout = "2006-01-02"

// EventDateTime parses the optional event date; ok=false when absent or
// malformed (malformed dates sort/filter like missing ones).
func (a Announcement) EventDateTime() (time.Time, bool) {
	if a.EventDate == "" {
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(dateLayout, a.EventDate, time.Local)

	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// Expired reports whether the expiry date lies strictly before now.
// Records without an expiry date never expire.
func (a Announcement) Expired(now time.Time) bool {
	if a.ExpiryDate == "" {
		return false
	}

	t, err := time.ParseInLocation(dateLayout, a.ExpiryDate, time.Local)

	if err != nil {
		return false
	}

	return t.Before(now)
}

type CreateRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Category    string `json:"category" binding:"required"`
	Description string `json:"description" binding:"required,max=1000"`

	EventDate      string `json:"eventDate" binding:"omitempty,datetime=2006-01-02"`
	EventTime      string `json:"eventTime" binding:"omitempty"`
	Duration       string `json:"duration"`
	Location       string `json:"location" binding:"omitempty,max=300"`
	Format         string `json:"format" binding:"omitempty,oneof=offline online hybrid"`
	TargetAudience string `json:"targetAudience" binding:"omitempty,max=300"`

	Requirements string `json:"requirements" binding:"omitempty,max=500"`
	Compensation string `json:"compensation" binding:"omitempty,max=300"`

	ContactEmail   string `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone   string `json:"contactPhone"`
	AdditionalInfo string `json:"additionalInfo" binding:"omitempty,max=1000"`

	Urgent             bool   `json:"urgent"`
	EmailNotifications bool   `json:"emailNotifications"`
	ExpiryDate         string `json:"expiryDate" binding:"omitempty,datetime=2006-01-02"`

	// draft-save sets this to StatusDraft; anything else publishes
	Status string `json:"status" binding:"omitempty,oneof=active draft"`
}

// UpdatePatch is a merge-patch over an existing announcement: nil fields
// retain prior values, provided fields overwrite (including explicit "").
type UpdatePatch struct {
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Description *string `json:"description"`

	EventDate      *string `json:"eventDate"`
	EventTime      *string `json:"eventTime"`
	Duration       *string `json:"duration"`
	Location       *string `json:"location"`
	Format         *string `json:"format"`
	TargetAudience *string `json:"targetAudience"`

	Requirements *string `json:"requirements"`
	Compensation *string `json:"compensation"`

	ContactEmail   *string `json:"contactEmail"`
	ContactPhone   *string `json:"contactPhone"`
	AdditionalInfo *string `json:"additionalInfo"`

	Urgent             *bool   `json:"urgent"`
	EmailNotifications *bool   `json:"emailNotifications"`
	ExpiryDate         *string `json:"expiryDate"`

	IsActive *bool   `json:"isActive"`
	Status   *string `json:"status"`
}
