package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spaceventure/server/domain/entities"
)

// Violation is a single field-level rule failure
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations is the full list of rule failures for one input.
// Every applicable rule is evaluated; the list is never cut short.
type Violations []Violation

var (
	nameRe     = regexp.MustCompile(`^[A-Za-z\s]+$`)
	emailRe    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneRe    = regexp.MustCompile(`^\d{10}$`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
	symbolRe   = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	dobFormats = []string{"2006-01-02", time.RFC3339}
)

const (
	minPasswordLen = 8
	minAddressLen  = 25
	maxAddressLen  = 325
)

// Input is the raw field set of a registration attempt. All values arrive as
// strings from the HTTP boundary; IsFederated has already been normalized to
// a proper boolean there.
type Input struct {
	Name            string
	Email           string
	Password        string
	Phone           string
	Address         string
	Organization    string
	DateOfBirth     string
	AccountCategory string
	IsFederated     bool
}

// Registration is the normalized, typed field set produced when an Input
// passes every rule. DateOfBirth is the zero time for federated signups.
type Registration struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	Address      string
	Organization string
	DateOfBirth  time.Time
	Category     entities.AccountCategory
	IsFederated  bool
}

// ValidateRegistration applies every signup rule to the input and returns
// either the normalized field set or the complete list of violations.
// Malformed input is a normal validation result, never a fault.
func ValidateRegistration(in Input) (*Registration, Violations) {
	var violations Violations
	add := func(field, message string) {
		violations = append(violations, Violation{Field: field, Message: message})
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		add("name", "Name is required.")
	} else if !nameRe.MatchString(name) {
		add("name", "Name can only contain letters and spaces.")
	}

	email := entities.NormalizeEmail(in.Email)
	if email == "" {
		add("email", "Email is required.")
	} else if !emailRe.MatchString(email) {
		add("email", "Please provide a valid email.")
	}

	if in.IsFederated {
		if in.Password != "" {
			add("password", "Password must not be provided for federated signup.")
		}
	} else if in.Password == "" {
		add("password", "Password is required.")
	} else {
		if len(in.Password) < minPasswordLen {
			add("password", fmt.Sprintf("Password must be at least %d characters long.", minPasswordLen))
		}
		if !lowerRe.MatchString(in.Password) || !upperRe.MatchString(in.Password) ||
			!digitRe.MatchString(in.Password) || !symbolRe.MatchString(in.Password) {
			add("password", "Password must contain at least one lowercase letter, one uppercase letter, one numeric digit, and one special character.")
		}
	}

	if in.IsFederated {
		if in.Phone != "" {
			add("phone", "Phone number must not be provided for federated signup.")
		}
	} else if in.Phone == "" {
		add("phone", "Phone number is required.")
	} else if !phoneRe.MatchString(in.Phone) {
		add("phone", "Phone number must be 10 digits.")
	}

	if in.IsFederated {
		if in.Address != "" {
			add("address", "Address must not be provided for federated signup.")
		}
	} else if in.Address == "" {
		add("address", "Address is required.")
	} else if utf8.RuneCountInString(in.Address) < minAddressLen {
		add("address", fmt.Sprintf("Address must be at least %d characters long.", minAddressLen))
	} else if utf8.RuneCountInString(in.Address) > maxAddressLen {
		add("address", fmt.Sprintf("Address must be at most %d characters long.", maxAddressLen))
	}

	organization := strings.TrimSpace(in.Organization)
	if in.IsFederated {
		if organization != "" {
			add("organization", "Organization must not be provided for federated signup.")
		}
	} else if organization == "" {
		add("organization", "Organization is required.")
	} else if !nameRe.MatchString(organization) {
		add("organization", "Organization can only contain letters and spaces.")
	}

	var dateOfBirth time.Time
	if in.IsFederated {
		if in.DateOfBirth != "" {
			add("dob", "Date of birth must not be provided for federated signup.")
		}
	} else if in.DateOfBirth == "" {
		add("dob", "Date of birth is required.")
	} else {
		parsed, err := parseDate(in.DateOfBirth)
		switch {
		case err != nil:
			add("dob", "Invalid date format.")
		case !parsed.Before(time.Now()):
			add("dob", "Date of birth must be in the past.")
		default:
			dateOfBirth = parsed
		}
	}

	category := entities.AccountCategory(strings.TrimSpace(in.AccountCategory))
	if category == "" {
		add("accountCategory", "Account category is required.")
	} else if !category.Valid() {
		add("accountCategory", fmt.Sprintf("Account category must be one of [%s, %s, %s].",
			entities.CategoryEndUser, entities.CategoryMultiSiteManager, entities.CategoryFacilityOwner))
	}

	if len(violations) > 0 {
		return nil, violations
	}

	return &Registration{
		Name:         name,
		Email:        email,
		Password:     in.Password,
		Phone:        in.Phone,
		Address:      in.Address,
		Organization: organization,
		DateOfBirth:  dateOfBirth,
		Category:     category,
		IsFederated:  in.IsFederated,
	}, nil
}

// ValidateProfilePicture checks an already-resolved image reference
func ValidateProfilePicture(pic entities.ProfilePicture) Violations {
	var violations Violations
	if _, err := url.ParseRequestURI(pic.URL); err != nil {
		violations = append(violations, Violation{Field: "profilePicture.url", Message: "Invalid URL format."})
	}
	if pic.StorageID == "" {
		violations = append(violations, Violation{Field: "profilePicture.storage_id", Message: "Storage ID is required."})
	}
	return violations
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dobFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
