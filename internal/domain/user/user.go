package user

import (
	"errors"
	"time"
)

type OrgType string

const (
	TypeUniversity OrgType = "university"
	TypeCompany    OrgType = "company"
)

func (t OrgType) IsValid() bool {
	switch t {
	case TypeUniversity, TypeCompany:
		return true
	default:
		return false
	}
}

// User is an organization account. PasswordHash is serialized for the
// persisted collection but stripped from every copy that crosses the
// identity service boundary (see Sanitize).
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"password,omitempty"`
	Type         OrgType `json:"type"`

	UniversityName string `json:"universityName,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	ContactPerson  string `json:"contactPerson,omitempty"`
	Industry       string `json:"industry,omitempty"`

	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`

	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	IsActive      bool       `json:"isActive"`
	EmailVerified bool       `json:"emailVerified"`
	LastLogin     *time.Time `json:"lastLogin"`
}

var ErrNotFound = errors.New("user not found")

// Sanitize returns a copy safe to hand to callers: same record, no hash.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}

// DisplayName is the organization label used where an author is rendered.
// Orphaned authors degrade to a placeholder, never an error.
func (u User) DisplayName() string {
	switch u.Type {
	case TypeUniversity:
		if u.UniversityName != "" {
			return u.UniversityName
		}
		return "Університет"
	case TypeCompany:
		if u.CompanyName != "" {
			return u.CompanyName
		}
		return "Компанія"
	}
	return "Організація"
}

type RegisterRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Type            string `json:"type" binding:"required"`

	UniversityName string `json:"universityName" binding:"omitempty,max=200"`
	CompanyName    string `json:"companyName" binding:"omitempty,max=200"`
	ContactPerson  string `json:"contactPerson" binding:"omitempty,max=120"`
	Industry       string `json:"industry" binding:"omitempty,max=80"`

	Phone       string `json:"phone"`
	Address     string `json:"address" binding:"omitempty,max=300"`
	Website     string `json:"website" binding:"omitempty,max=200"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// ProfilePatch carries a merge-patch: nil fields stay untouched, provided
// fields overwrite verbatim (an explicit "" is stored as "").
type ProfilePatch struct {
	Email          *string `json:"email"`
	UniversityName *string `json:"universityName"`
	CompanyName    *string `json:"companyName"`
	ContactPerson  *string `json:"contactPerson"`
	Industry       *string `json:"industry"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	Website        *string `json:"website"`
	Description    *string `json:"description"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}
