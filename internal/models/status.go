package models

// Status is the ACTIVE/NONACTIVE flag shared by staff users, positions and timelines.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusNonActive Status = "NONACTIVE"
)

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusNonActive
	}
	return StatusActive
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusNonActive
}
