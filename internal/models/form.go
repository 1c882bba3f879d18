package models

import "time"

// Form is a named application form definition referenced by timelines.
type Form struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	CreatedBy string     `db:"created_by" json:"createdBy"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedBy *string    `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// Form setting keys persisted in form_settings.
const (
	FormSettingShowToefl = "show_toefl"
	FormSettingShow360   = "show_360"
)

// FormSetting is one persisted key/value row of the form settings singleton.
type FormSetting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *string   `db:"updated_by" json:"updatedBy,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// FormSettings are the global applicant form toggles.
type FormSettings struct {
	ShowToefl bool `json:"showToefl"`
	Show360   bool `json:"show360"`
}
