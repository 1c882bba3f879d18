package models

import "time"

// User is a staff account identified by its NIP (staff number).
type User struct {
	ID           string     `db:"id" json:"id"`
	NIP          string     `db:"nip" json:"nip"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Status       Status     `db:"status" json:"status"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
	UpdatedBy    *string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Status    *Status
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
