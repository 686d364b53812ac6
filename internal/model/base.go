package model

import "time"

// BaseModel carries the surrogate key and audit timestamps shared by every
// table.
type BaseModel struct {
	ID        int64     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SoftDelete marks rows as removed without losing history. Queries must
// filter deleted_at IS NULL.
type SoftDelete struct {
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

func (s *SoftDelete) IsDeleted() bool { return s.DeletedAt != nil }
