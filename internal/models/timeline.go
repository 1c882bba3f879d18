package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// TimelineType classifies a recruitment period by staff category.
type TimelineType string

const (
	TimelineTypeStaff        TimelineType = "STAFF"
	TimelineTypeDosen        TimelineType = "DOSEN"
	TimelineTypeProfessional TimelineType = "PROFESSIONAL"
)

// PositionQuota caps accepted applicants for a position within a period.
type PositionQuota struct {
	PositionID string `json:"positionId" validate:"required"`
	Quota      int    `json:"quota" validate:"gte=0"`
}

// PositionQuotas is the ordered quota list stored as JSONB.
type PositionQuotas []PositionQuota

// Value marshals the list for persistence.
func (q PositionQuotas) Value() (driver.Value, error) {
	if q == nil {
		q = PositionQuotas{}
	}
	data, err := json.Marshal([]PositionQuota(q))
	if err != nil {
		return nil, fmt.Errorf("marshal position quotas: %w", err)
	}
	return data, nil
}

// Scan unmarshals the JSONB column.
func (q *PositionQuotas) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*q = PositionQuotas{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for PositionQuotas", value)
	}
	if len(data) == 0 {
		*q = PositionQuotas{}
		return nil
	}
	var out []PositionQuota
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal position quotas: %w", err)
	}
	*q = out
	return nil
}

// Timeline is a recruitment period with per-position quotas.
type Timeline struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Type      TimelineType   `db:"type" json:"type"`
	StartDate Date           `db:"start_date" json:"startDate"`
	EndDate   Date           `db:"end_date" json:"endDate"`
	Positions PositionQuotas `db:"positions" json:"positions"`
	Forms     pq.StringArray `db:"forms" json:"forms"`
	Status    Status         `db:"status" json:"status"`
	CreatedBy string         `db:"created_by" json:"createdBy"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedBy *string        `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt *time.Time     `db:"updated_at" json:"updatedAt,omitempty"`
}

// QuotaFor returns the quota configured for positionID and whether an entry exists.
func (t Timeline) QuotaFor(positionID string) (int, bool) {
	for _, entry := range t.Positions {
		if entry.PositionID == positionID {
			return entry.Quota, true
		}
	}
	return 0, false
}

// Accepting reports whether applicants may submit to the period on day.
func (t Timeline) Accepting(day time.Time) bool {
	if t.Status != StatusActive {
		return false
	}
	d := NewDate(day)
	if !t.StartDate.IsZero() && d.Before(t.StartDate.Time) {
		return false
	}
	if !t.EndDate.IsZero() && d.After(t.EndDate.Time) {
		return false
	}
	return true
}

// TimelineFilter narrows timeline listings.
type TimelineFilter struct {
	Status *Status
	Type   TimelineType
}
