package models

import (
	"time"
)

// User roles
const (
	RoleReporter = "reporter"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// User is both an account and the per-reporter score record. Reporters are
// created implicitly on first login or on the first review touching one of
// their issues; TotalPoints is maintained by the review engine and rebuilt by
// the recomputation job.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:200;not null" json:"username"` // GitHub login
	Password    string     `gorm:"size:255" json:"-"`                             // bcrypt hash, empty for OAuth users
	Role        string     `gorm:"size:20;default:reporter" json:"role"`          // reporter, reviewer, admin
	TotalPoints int        `gorm:"default:0" json:"total_points"`
	AuthType    string     `gorm:"size:20;default:github" json:"auth_type"` // github, local
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsReviewer reports whether the user may classify issues. Admins review too.
func (u *User) IsReviewer() bool {
	return u.Role == RoleReviewer || u.Role == RoleAdmin
}
