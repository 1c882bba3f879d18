package models

import (
	"fmt"
	"strconv"
	"time"
)

// Stage is the pipeline step a submission is at. Values are persisted and
// exchanged as integers.
type Stage int

const (
	StageSubmitted      Stage = 0
	StageAdministration Stage = 1
	StagePsikotes       Stage = 2
	StageInterview      Stage = 3
	StageDecision       Stage = 4
	StageAgreement      Stage = 5
	StageCompleted      Stage = 6
)

var stageNames = map[Stage]string{
	StageSubmitted:      "SUBMITTED",
	StageAdministration: "ADMINISTRATION",
	StagePsikotes:       "PSIKOTES",
	StageInterview:      "INTERVIEW",
	StageDecision:       "DECISION",
	StageAgreement:      "AGREEMENT",
	StageCompleted:      "COMPLETED",
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Decision is the tri-state outcome used by the passed and determination axes.
type Decision int

const (
	DecisionPending  Decision = 0
	DecisionRejected Decision = 1
	DecisionAccepted Decision = 2
)

// Valid reports whether d is pending, rejected or accepted.
func (d Decision) Valid() bool {
	return d >= DecisionPending && d <= DecisionAccepted
}

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "PENDING"
	case DecisionRejected:
		return "REJECTED"
	case DecisionAccepted:
		return "ACCEPTED"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// DecisionAxis names which decision column a transition targets.
type DecisionAxis string

const (
	AxisPassed        DecisionAxis = "passed"
	AxisDetermination DecisionAxis = "determination"
)

// Column returns the submissions column backing the axis.
func (a DecisionAxis) Column() (string, error) {
	switch a {
	case AxisPassed:
		return "passed", nil
	case AxisDetermination:
		return "determination", nil
	}
	return "", fmt.Errorf("unknown decision axis %q", a)
}

// Score holds the named sub-scores of a submission.
type Score struct {
	AcademicScore  float64 `db:"academic_score" json:"academicScore"`
	PsikotesScore  float64 `db:"psikotes_score" json:"psikotesScore"`
	InterviewScore float64 `db:"interview_score" json:"interviewScore"`
}

// ScorePatch carries sub-scores to change; nil fields keep their stored value.
type ScorePatch struct {
	AcademicScore  *float64 `json:"academicScore" validate:"omitempty,gte=0"`
	PsikotesScore  *float64 `json:"psikotesScore" validate:"omitempty,gte=0"`
	InterviewScore *float64 `json:"interviewScore" validate:"omitempty,gte=0"`
}

// Empty reports whether the patch changes nothing.
func (p ScorePatch) Empty() bool {
	return p.AcademicScore == nil && p.PsikotesScore == nil && p.InterviewScore == nil
}

// Submission is one applicant's record moving through the recruitment pipeline.
type Submission struct {
	ID             string     `db:"id" json:"id"`
	FullName       string     `db:"full_name" json:"fullName"`
	Email          string     `db:"email" json:"email"`
	Address        string     `db:"address" json:"address"`
	OriginFrom     string     `db:"origin_from" json:"originFrom"`
	DateOfBirth    Date       `db:"date_of_birth" json:"dateOfBirth"`
	Gender         string     `db:"gender" json:"gender"`
	PhoneNumber    string     `db:"phone_number" json:"phoneNumber"`
	LastEducation  string     `db:"last_education" json:"lastEducation"`
	PositionID     string     `db:"position_id" json:"positionId"`
	PeriodID       string     `db:"period_id" json:"periodId"`
	ToeflScore     *float64   `db:"toefl_score" json:"toeflScore"`
	ToeflFile      *string    `db:"toefl_file" json:"toeflFile"`
	Score360       *float64   `db:"score_360" json:"_360Score"`
	File360        *string    `db:"file_360" json:"_360File"`
	CVFile         *string    `db:"cv_file" json:"cvFile"`
	ProfilePicture *string    `db:"profile_picture" json:"profilePicture"`
	Status         Stage      `db:"status" json:"status"`
	Score          Score      `db:"score" json:"score"`
	Passed         Decision   `db:"passed" json:"passed"`
	Determination  Decision   `db:"determination" json:"determination"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	Status        *Stage
	PositionID    string
	PeriodID      string
	Passed        *Decision
	Determination *Decision
	Search        string
	Page          int
	PageSize      int
}

// BulkStatusFailure reports one id a bulk status update could not change.
type BulkStatusFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkStatusResult summarises a bulk status update.
type BulkStatusResult struct {
	Applicants    []string            `json:"applicants"`
	UpdatedStatus Stage               `json:"updatedStatus"`
	Updated       []string            `json:"updated"`
	Failed        []BulkStatusFailure `json:"failed"`
}

// ApplyLegacy maps the single filter/filterValue query pair onto the filter.
// An empty field defaults to status.
func (f *SubmissionFilter) ApplyLegacy(field, value string) error {
	if value == "" {
		return nil
	}
	switch field {
	case "", "status":
		n, err := strconv.Atoi(value)
		if err != nil || !Stage(n).Valid() {
			return fmt.Errorf("filterValue %q is not a valid status", value)
		}
		stage := Stage(n)
		f.Status = &stage
	case "positionId":
		f.PositionID = value
	case "periodId":
		f.PeriodID = value
	case "passed", "determination":
		n, err := strconv.Atoi(value)
		if err != nil || !Decision(n).Valid() {
			return fmt.Errorf("filterValue %q is not a valid decision", value)
		}
		d := Decision(n)
		if field == "passed" {
			f.Passed = &d
		} else {
			f.Determination = &d
		}
	default:
		return fmt.Errorf("unsupported filter %q", field)
	}
	return nil
}
