package models

import (
	"encoding/json"
	"time"
)

// Issue statuses. Reviews only ever move an issue between valid and invalid;
// closed is forced by upstream closure and unreviewed is the creation default.
const (
	StatusUnreviewed = "unreviewed"
	StatusValid      = "valid"
	StatusInvalid    = "invalid"
	StatusClosed     = "closed"
)

// Issue is the local mirror of one upstream GitHub issue. GitHubIssueID is the
// immutable external key; records are never deleted once created.
type Issue struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	GitHubIssueID int64  `gorm:"column:github_issue_id;uniqueIndex;not null" json:"github_issue_id"`
	GitHubNumber  int    `gorm:"column:github_number" json:"github_number"`
	Repo          string `gorm:"size:200;index" json:"repo"`
	Org           string `gorm:"size:200" json:"org"`
	Title         string `gorm:"size:500" json:"title"`
	Body          string `gorm:"type:text" json:"body"`
	URL           string `gorm:"size:500" json:"url"`
	Reporter      string `gorm:"size:200;index" json:"reporter"`
	Labels        string `gorm:"type:text" json:"-"` // JSON array of label names

	GitHubCreatedAt time.Time `gorm:"column:github_created_at" json:"github_created_at"`
	GitHubUpdatedAt time.Time `gorm:"column:github_updated_at" json:"github_updated_at"`
	ReceivedAt      time.Time `json:"received_at"`

	Status    string     `gorm:"size:20;default:unreviewed;index" json:"status"`
	MarkedBy  string     `gorm:"size:200" json:"marked_by"`
	MarkedAt  *time.Time `json:"marked_at"`
	Immutable bool       `gorm:"default:false" json:"immutable"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Issue) TableName() string { return "issues" }

// ValidReviewStatus reports whether s is a status a reviewer may set directly.
func ValidReviewStatus(s string) bool {
	return s == StatusValid || s == StatusInvalid
}

// LabelNames decodes the stored label list. A corrupt or empty value decodes
// to nil rather than failing the caller.
func (i *Issue) LabelNames() []string {
	if i.Labels == "" {
		return nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(i.Labels), &labels); err != nil {
		return nil
	}
	return labels
}

// SetLabelNames encodes labels into the stored JSON form.
func (i *Issue) SetLabelNames(labels []string) {
	if len(labels) == 0 {
		i.Labels = ""
		return
	}
	data, err := json.Marshal(labels)
	if err != nil {
		i.Labels = ""
		return
	}
	i.Labels = string(data)
}
