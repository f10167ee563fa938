package domain

import "fmt"

// Availability narrows discovery results by enrollment timing. Tokens form a
// closed set; unrecognized tokens are rejected rather than ignored.
type Availability string

// Availability tokens.
const (
	AvailabilityAny      Availability = ""
	AvailabilityCurrent  Availability = "i" // started and not yet ended
	AvailabilityAudit    Availability = "a" // audit track open, not yet ended
	AvailabilityEnroll   Availability = "e" // priced/enrolled track, not yet ended
	AvailabilityUpcoming Availability = "t" // starts in the future
)

// ParseAvailability validates an availability token.
func ParseAvailability(token string) (Availability, error) {
	switch a := Availability(token); a {
	case AvailabilityAny, AvailabilityCurrent, AvailabilityAudit, AvailabilityEnroll, AvailabilityUpcoming:
		return a, nil
	default:
		return AvailabilityAny, fmt.Errorf("%w: availability %q", ErrUnknownToken, token)
	}
}

// PagePosition selects which catalog_visibility values are hidden from
// discovery results.
type PagePosition string

// Page positions.
const (
	PageAny    PagePosition = ""
	PageList   PagePosition = "l"
	PageDetail PagePosition = "d"
)

// ParsePagePosition validates a page-position token.
func ParsePagePosition(token string) (PagePosition, error) {
	switch p := PagePosition(token); p {
	case PageAny, PageList, PageDetail:
		return p, nil
	default:
		return PageAny, fmt.Errorf("%w: page position %q", ErrUnknownToken, token)
	}
}

// HiddenVisibilities returns the catalog_visibility values excluded for this
// page position. List views additionally hide about-only items.
func (p PagePosition) HiddenVisibilities() []string {
	switch p {
	case PageList:
		return []string{"none", "about"}
	case PageDetail:
		return []string{"none"}
	default:
		return nil
	}
}
