package dto

// CreateFormRequest names a new form.
type CreateFormRequest struct {
	Name string `json:"name" validate:"required,max=150"`
}

// UpdateFormRequest merges onto an existing form.
type UpdateFormRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=150"`
}

// UpdateFormSettingsRequest toggles applicant form features; nil keeps the stored value.
type UpdateFormSettingsRequest struct {
	ShowToefl *bool `json:"showToefl"`
	Show360   *bool `json:"show360"`
}
