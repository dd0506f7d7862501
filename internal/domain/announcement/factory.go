package announcement

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateRequest, authorID string, orgType string) Announcement {
	now := time.Now()

	status := req.Status
	if status == "" {
		status = StatusActive
	}

	return Announcement{
		ID:               uuid.NewString(),
		AuthorID:         authorID,
		OrganizationType: orgType,

		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,

		EventDate:      req.EventDate,
		EventTime:      req.EventTime,
		Duration:       req.Duration,
		Location:       req.Location,
		Format:         req.Format,
		TargetAudience: req.TargetAudience,

		Requirements: req.Requirements,
		Compensation: req.Compensation,

		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		AdditionalInfo: req.AdditionalInfo,

		Urgent:             req.Urgent,
		EmailNotifications: req.EmailNotifications,
		ExpiryDate:         req.ExpiryDate,

		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  status == StatusActive,
		ViewCount: 0,
		Status:    status,
	}
}

// Apply folds a merge-patch into the record and refreshes UpdatedAt.
func (a Announcement) Apply(p UpdatePatch) Announcement {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.EventDate != nil {
		a.EventDate = *p.EventDate
	}
	if p.EventTime != nil {
		a.EventTime = *p.EventTime
	}
	if p.Duration != nil {
		a.Duration = *p.Duration
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Format != nil {
		a.Format = *p.Format
	}
	if p.TargetAudience != nil {
		a.TargetAudience = *p.TargetAudience
	}
	if p.Requirements != nil {
		a.Requirements = *p.Requirements
	}
	if p.Compensation != nil {
		a.Compensation = *p.Compensation
	}
	if p.ContactEmail != nil {
		a.ContactEmail = *p.ContactEmail
	}
	if p.ContactPhone != nil {
		a.ContactPhone = *p.ContactPhone
	}
	if p.AdditionalInfo != nil {
		a.AdditionalInfo = *p.AdditionalInfo
	}
	if p.Urgent != nil {
		a.Urgent = *p.Urgent
	}
	if p.EmailNotifications != nil {
		a.EmailNotifications = *p.EmailNotifications
	}
	if p.ExpiryDate != nil {
		a.ExpiryDate = *p.ExpiryDate
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.Status != nil {
		a.Status = *p.Status
	}

	a.UpdatedAt = time.Now()

	return a
}
