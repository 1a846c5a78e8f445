package domain

import "time"

// Capacity and role guard: pure predicates consulted by the participation
// state machine before every transition with a precondition.

// CanApprove reports whether one more participant may be accepted given the
// current accepted count. A capacity of zero or less means unlimited.
func CanApprove(e *Event, acceptedCount int) bool {
	if e.Capacity <= 0 {
		return true
	}
	return acceptedCount < e.Capacity
}

// IsOrganizer reports whether the participation carries organizer authority.
func IsOrganizer(p *Participant) bool {
	return p != nil && p.Role == RoleOrganizer
}

// IsAcceptedOrganizer reports whether the participation is an accepted
// organizer row, the authority required for approve/reject/remove.
func IsAcceptedOrganizer(p *Participant) bool {
	return IsOrganizer(p) && p.Status == StatusAccepted
}

// IsAccepted reports whether the participation is accepted, the authority
// required to invite others.
func IsAccepted(p *Participant) bool {
	return p != nil && p.Status == StatusAccepted
}

// WithinAgeBounds reports whether age falls inside the event's age window.
// A zero bound is open on that side.
func WithinAgeBounds(e *Event, age int) bool {
	if e.MinAge > 0 && age < e.MinAge {
		return false
	}
	if e.MaxAge > 0 && age > e.MaxAge {
		return false
	}
	return true
}

// AgeAt returns the whole years elapsed between birthDate and at.
func AgeAt(birthDate, at time.Time) int {
	years := at.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}
