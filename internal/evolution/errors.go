package evolution

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPortalNotFound is returned when a portal name is not registered.
	ErrPortalNotFound = errors.New("portal not found")

	// ErrRecommendationNotFound is returned when no pending recommendation
	// matches the requested id.
	ErrRecommendationNotFound = errors.New("recommendation not found or already implemented")

	// ErrSamePortal is returned when a recommendation targets its own source.
	ErrSamePortal = errors.New("source and target portal must differ")

	// ErrMissingField is returned when a required input is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrNotInitialized is returned by operations that need Initialize first.
	ErrNotInitialized = errors.New("coordinator not initialized")
)

// ValidateRecommendation checks externally supplied recommendation input.
// known reports whether a portal name exists; it may be nil to skip the
// existence check.
func ValidateRecommendation(source, target, typ string, known func(string) bool) error {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	switch {
	case source == "":
		return fmt.Errorf("source_portal: %w", ErrMissingField)
	case target == "":
		return fmt.Errorf("target_portal: %w", ErrMissingField)
	case strings.TrimSpace(typ) == "":
		return fmt.Errorf("type: %w", ErrMissingField)
	case source == target:
		return fmt.Errorf("%s: %w", source, ErrSamePortal)
	}
	if known != nil {
		if !known(source) {
			return fmt.Errorf("source %s: %w", source, ErrPortalNotFound)
		}
		if !known(target) {
			return fmt.Errorf("target %s: %w", target, ErrPortalNotFound)
		}
	}
	return nil
}
