package usecase

import "regexp"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug checks that a listing slug is URL-safe: lowercase
// alphanumerics separated by single hyphens.
func ValidateSlug(slug string) bool {
	if slug == "" || len(slug) > 128 {
		return false
	}
	return slugPattern.MatchString(slug)
}
