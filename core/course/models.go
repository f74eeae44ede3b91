package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusCompleted Status = "completed"
)

var AllStatuses = []Status{StatusActive, StatusInactive, StatusCompleted}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusCompleted:
		return true
	}
	return false
}

var (
	statusTag  = "coursestatus"
	statusText = "invalid status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(core.Validate, core.Translator, statusTag, statusText)
}

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	TeacherID   string    `json:"teacher_id"`
	StudentIDs  []string  `json:"student_ids"`
	Schedule    string    `json:"schedule,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// HasStudent reports whether the student is enrolled in the course.
func (c *Course) HasStudent(id string) bool {
	for _, sid := range c.StudentIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// NewCourse contains information needed to create a new Course.
// TeacherID may be left empty by teacher principals; the API sets it to the acting teacher.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	TeacherID   string `json:"teacher_id"`
	Schedule    string `json:"schedule"`
	Status      Status `json:"status" validate:"omitempty,coursestatus"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.TeacherID = core.CleanString(nc.TeacherID)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Ownership (TeacherID) and enrollment are changed through dedicated operations, not here.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
	Status      Status `json:"status" validate:"omitempty,coursestatus"`
}

func (uc *UpdateCourse) Validate() error {
	uc.Title = core.CleanString(uc.Title)
	return core.Validate.Struct(uc)
}

type QueryFilter struct {
	Search    string `query:"search"`
	TeacherID string `query:"teacher_id"`
	StudentID string `query:"student_id"`
	Status    Status `query:"status"`

	// None short-circuits the query to match nothing; set by fail-closed scoping.
	None bool `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.TeacherID == "" && qf.StudentID == "" && qf.Status == "" && !qf.None
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
