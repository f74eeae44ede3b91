package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Status is the publication axis of an Assignment: whether students can see it
// and hand work in. Submission progress lives on the Submission itself.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
)

var AllStatuses = []Status{StatusDraft, StatusPublished, StatusClosed}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusClosed:
		return true
	}
	return false
}

var (
	statusTag  = "assignmentstatus"
	statusText = "invalid status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(core.Validate, core.Translator, statusTag, statusText)
}

type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CourseID    string    `json:"course_id"`
	TeacherID   string    `json:"teacher_id"`
	DueDate     time.Time `json:"due_date"`
	Status      Status    `json:"status"`
	MaxScore    int       `json:"max_score"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (a *Assignment) IsPublished() bool { return a.Status == StatusPublished }

// NewAssignment contains information needed to create a new Assignment.
// TeacherID is never taken from the payload; the API stamps the acting teacher.
type NewAssignment struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	CourseID    string    `json:"course_id" validate:"required"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	Status      Status    `json:"status" validate:"omitempty,assignmentstatus"`
	MaxScore    int       `json:"max_score" validate:"gte=0"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.CourseID = core.CleanString(na.CourseID)
	return core.Validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an existing Assignment.
type UpdateAssignment struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Status      Status    `json:"status" validate:"omitempty,assignmentstatus"`
	MaxScore    int       `json:"max_score" validate:"gte=0"`
}

func (ua *UpdateAssignment) Validate() error {
	ua.Title = core.CleanString(ua.Title)
	return core.Validate.Struct(ua)
}

type QueryFilter struct {
	Search    string `query:"search"`
	CourseID  string `query:"course_id"`
	TeacherID string `query:"teacher_id"`
	Status    Status `query:"status"`

	// CourseIDs narrows to a resolved set of courses (student scoping); not bindable.
	CourseIDs []string `query:"-"`
	// None short-circuits the query to match nothing; set by fail-closed scoping.
	None bool `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CourseID == "" && qf.TeacherID == "" && qf.Status == "" &&
		qf.CourseIDs == nil && !qf.None
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
