package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// AllStudyPrograms is the wire value meaning a position accepts every study program.
const AllStudyPrograms = "ALL"

// StudyProgramScope is either "any study program" or an explicit ordered id list.
// It is encoded as the string "ALL" or as a JSON array of ids.
type StudyProgramScope struct {
	any bool
	ids []string
}

// AnyStudyProgram returns the unrestricted scope.
func AnyStudyProgram() StudyProgramScope {
	return StudyProgramScope{any: true}
}

// SpecificStudyPrograms returns a scope limited to ids, in order.
func SpecificStudyPrograms(ids ...string) StudyProgramScope {
	cp := make([]string, len(ids))
	copy(cp, ids)
	return StudyProgramScope{ids: cp}
}

// IsAny reports whether the scope covers every study program.
func (s StudyProgramScope) IsAny() bool { return s.any }

// IDs returns a copy of the referenced ids; nil for the unrestricted scope.
func (s StudyProgramScope) IDs() []string {
	if s.any {
		return nil
	}
	cp := make([]string, len(s.ids))
	copy(cp, s.ids)
	return cp
}

// Empty reports whether the scope was never set or lists no ids.
func (s StudyProgramScope) Empty() bool {
	return !s.any && len(s.ids) == 0
}

// MarshalJSON encodes the scope as "ALL" or an id array.
func (s StudyProgramScope) MarshalJSON() ([]byte, error) {
	if s.any {
		return json.Marshal(AllStudyPrograms)
	}
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

// UnmarshalJSON accepts "ALL" or an array of non-empty ids.
func (s *StudyProgramScope) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw != AllStudyPrograms {
			return fmt.Errorf("study_programs must be %q or a list of ids", AllStudyPrograms)
		}
		*s = AnyStudyProgram()
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("study_programs must be %q or a list of ids", AllStudyPrograms)
	}
	for _, id := range ids {
		if id == "" {
			return errors.New("study_programs contains an empty id")
		}
	}
	*s = SpecificStudyPrograms(ids...)
	return nil
}

// Value persists the scope as JSONB.
func (s StudyProgramScope) Value() (driver.Value, error) {
	return s.MarshalJSON()
}

// Scan reads the JSONB representation.
func (s *StudyProgramScope) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = StudyProgramScope{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported type %T for StudyProgramScope", value)
	}
}

// Position is an open role applicants can apply for.
type Position struct {
	ID              string            `db:"id" json:"id"`
	Name            string            `db:"name" json:"name"`
	MinimumGraduate GraduateLevel     `db:"minimum_graduate" json:"minimum_graduate"`
	StudyPrograms   StudyProgramScope `db:"study_programs" json:"study_programs"`
	MinimumGPA      float64           `db:"minimum_gpa" json:"minimum_gpa"`
	Details         string            `db:"details" json:"details"`
	Status          Status            `db:"status" json:"status"`
	CreatedBy       string            `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time         `db:"created_at" json:"createdAt"`
	UpdatedBy       *string           `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt       *time.Time        `db:"updated_at" json:"updatedAt,omitempty"`
}

// PositionFilter narrows position listings.
type PositionFilter struct {
	Status *Status
}

// StudyProgramRef is one resolved entry of a position's study program list.
// Missing marks ids whose program no longer exists; Name and Degree are then null.
type StudyProgramRef struct {
	ID      string         `json:"id"`
	Name    *string        `json:"name"`
	Degree  *GraduateLevel `json:"degree"`
	Missing bool           `json:"missing,omitempty"`
}

// ResolvedScope is the response form of StudyProgramScope.
type ResolvedScope struct {
	Any      bool
	Programs []StudyProgramRef
}

// MarshalJSON encodes "ALL" or the resolved entries.
func (r ResolvedScope) MarshalJSON() ([]byte, error) {
	if r.Any {
		return json.Marshal(AllStudyPrograms)
	}
	if r.Programs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Programs)
}

// ResolvedPosition is a position whose study program references were expanded.
type ResolvedPosition struct {
	Position
	StudyPrograms ResolvedScope `json:"study_programs"`
}
