package identity

import (
	"regexp"
	"strings"

	"github.com/okovalenko/uniconnect/internal/domain/user"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^[\+]?[0-9\s\-\(\)]{10,}$`)
)

func isValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

func isValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// validateRegistration collects every problem with the request. Required
// fields depend on the organization type.
func validateRegistration(req user.RegisterRequest) error {
	var errs []string

	required := []struct {
		value string
		label string
	}{
		{req.Email, "email"},
		{req.Password, "password"},
		{req.ConfirmPassword, "password confirmation"},
		{req.Type, "organization type"},
	}

	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, "field \""+f.label+"\" is required")
		}
	}

	switch user.OrgType(req.Type) {
	case user.TypeUniversity:
		if strings.TrimSpace(req.UniversityName) == "" {
			errs = append(errs, "university name is required")
		}
		if strings.TrimSpace(req.ContactPerson) == "" {
			errs = append(errs, "contact person is required")
		}
	case user.TypeCompany:
		if strings.TrimSpace(req.CompanyName) == "" {
			errs = append(errs, "company name is required")
		}
		if strings.TrimSpace(req.Industry) == "" {
			errs = append(errs, "industry is required")
		}
		if strings.TrimSpace(req.ContactPerson) == "" {
			errs = append(errs, "contact person is required")
		}
	default:
		if strings.TrimSpace(req.Type) != "" {
			errs = append(errs, "unknown organization type")
		}
	}

	if req.Email != "" && !isValidEmail(req.Email) {
		errs = append(errs, "invalid email format")
	}

	if req.Password != "" && len(req.Password) < 6 {
		errs = append(errs, "password must be at least 6 characters")
	}

	if req.Password != req.ConfirmPassword {
		errs = append(errs, "passwords do not match")
	}

	if req.Phone != "" && !isValidPhone(req.Phone) {
		errs = append(errs, "invalid phone format")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}

// validateProfilePatch checks only the fields the patch touches.
func validateProfilePatch(p user.ProfilePatch) error {
	var errs []string

	if p.Email != nil && *p.Email != "" && !isValidEmail(*p.Email) {
		errs = append(errs, "invalid email format")
	}

	if p.Phone != nil && *p.Phone != "" && !isValidPhone(*p.Phone) {
		errs = append(errs, "invalid phone format")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	return nil
}
