// Package validate holds the per-field write rules shared by the services.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"reviewhub/internal/apperror"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

const (
	maxSlugLen     = 50
	maxUsernameLen = 150
	maxEmailLen    = 254

	MinScore = 1
	MaxScore = 10
)

// Slug checks the URL-safe identifier used by categories and genres.
// Uniqueness is enforced by the storage layer, not here.
func Slug(s string) error {
	if s == "" {
		return apperror.ValidationFailed("slug", "slug is required")
	}
	if len(s) > maxSlugLen {
		return apperror.ValidationFailed("slug", fmt.Sprintf("slug must be at most %d characters", maxSlugLen))
	}
	if !slugPattern.MatchString(s) {
		return apperror.ValidationFailed("slug", "slug may contain only latin letters, digits, hyphen and underscore")
	}
	return nil
}

// Username rejects the literal "me", which is reserved for the
// current-user endpoint alias.
func Username(u string) error {
	if u == "" {
		return apperror.ValidationFailed("username", "username is required")
	}
	if u == "me" {
		return apperror.ValidationFailed("username", `username "me" is reserved`)
	}
	if len(u) > maxUsernameLen {
		return apperror.ValidationFailed("username", fmt.Sprintf("username must be at most %d characters", maxUsernameLen))
	}
	if !usernamePattern.MatchString(u) {
		return apperror.ValidationFailed("username", "username may contain only letters, digits and @/./+/-/_")
	}
	return nil
}

func Email(e string) error {
	if e == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if len(e) > maxEmailLen {
		return apperror.ValidationFailed("email", fmt.Sprintf("email must be at most %d characters", maxEmailLen))
	}
	if _, err := mail.ParseAddress(e); err != nil {
		return apperror.ValidationFailed("email", "invalid email address")
	}
	return nil
}

// Year rejects titles dated in the future.
func Year(y int) error {
	if current := time.Now().Year(); y > current {
		return apperror.ValidationFailed("year", fmt.Sprintf("year must not be greater than %d", current))
	}
	return nil
}

// Score checks the inclusive 1..10 review score range.
func Score(v int) error {
	if v < MinScore || v > MaxScore {
		return apperror.ValidationFailed("score", fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore))
	}
	return nil
}
