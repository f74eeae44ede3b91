package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Status is a Submission's lifecycle: pending (draft, not handed in yet),
// submitted (handed in, awaiting grading), graded (frozen).
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusGraded    Status = "graded"
)

var AllStatuses = []Status{StatusPending, StatusSubmitted, StatusGraded}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusGraded:
		return true
	}
	return false
}

var (
	contentOrFileTag  = "content_or_file"
	contentOrFileText = "one of content or file_url is required"
)

func init() {
	core.Validate.RegisterStructValidation(newSubmissionStructValidation, NewSubmission{})
	core.RegisterCustomTranslation(core.Validate, core.Translator, contentOrFileTag, contentOrFileText)
}

type Submission struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment_id"`
	StudentID    string    `json:"student_id"`
	Content      string    `json:"content,omitempty"`
	FileURL      string    `json:"file_url,omitempty"`
	Status       Status    `json:"status"`
	Score        *int      `json:"score,omitempty"`
	Feedback     string    `json:"feedback,omitempty"`
	GradedBy     string    `json:"graded_by,omitempty"`
	GradedAt     time.Time `json:"graded_at,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"`   // UTC
}

func (s *Submission) IsGraded() bool { return s.Status == StatusGraded }

// NewSubmission contains the work a student hands in (or saves as a draft).
type NewSubmission struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Content      string `json:"content"`
	FileURL      string `json:"file_url" validate:"omitempty,url"`
	Draft        bool   `json:"draft"` // save as pending instead of handing in
}

func (ns *NewSubmission) Validate() error {
	ns.AssignmentID = core.CleanString(ns.AssignmentID)
	ns.Content = core.CleanString(ns.Content)
	ns.FileURL = core.CleanString(ns.FileURL)
	return core.Validate.Struct(ns)
}

func newSubmissionStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewSubmission)
	if !ok {
		return
	}
	if ns.Content == "" && ns.FileURL == "" {
		sl.ReportError(ns.Content, "content", "Content", contentOrFileTag, "")
		sl.ReportError(ns.FileURL, "file_url", "FileURL", contentOrFileTag, "")
	}
}

// GradeSubmission contains a teacher's grading decision.
type GradeSubmission struct {
	Score    *int   `json:"score" validate:"required"`
	Feedback string `json:"feedback"`
}

func (gs *GradeSubmission) Validate() error { return core.Validate.Struct(gs) }

type QueryFilter struct {
	AssignmentID string `query:"assignment_id"`
	StudentID    string `query:"student_id"`
	Status       Status `query:"status"`

	// None short-circuits the query to match nothing; set by fail-closed scoping.
	None bool `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.AssignmentID == "" && qf.StudentID == "" && qf.Status == "" && !qf.None
}
