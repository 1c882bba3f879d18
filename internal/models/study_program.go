package models

import "time"

// GraduateLevel enumerates education degrees used by study programs and position requirements.
type GraduateLevel string

const (
	GraduateDiploma  GraduateLevel = "DIPLOMA"
	GraduateSarjana  GraduateLevel = "SARJANA"
	GraduateMagister GraduateLevel = "MAGISTER"
	GraduateDoktor   GraduateLevel = "DOKTOR"
)

// StudyProgram is an academic program applicants may graduate from.
type StudyProgram struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Degree    GraduateLevel `db:"degree" json:"degree"`
	CreatedBy string        `db:"created_by" json:"createdBy"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedBy *string       `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt *time.Time    `db:"updated_at" json:"updatedAt,omitempty"`
}
