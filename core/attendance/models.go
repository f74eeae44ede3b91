package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

var AllStatuses = []Status{StatusPresent, StatusAbsent, StatusLate}

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

var (
	statusTag  = "attendancestatus"
	statusText = "invalid status"
)

func init() {
	_ = core.Validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(core.Validate, core.Translator, statusTag, statusText)
}

type Attendance struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // calendar day, UTC midnight
	Status    Status    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// MarkAttendance contains a teacher's attendance record for a student on a given day.
type MarkAttendance struct {
	StudentID string    `json:"student_id" validate:"required"`
	CourseID  string    `json:"course_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    Status    `json:"status" validate:"required,attendancestatus"`
}

func (ma *MarkAttendance) Validate() error {
	ma.StudentID = core.CleanString(ma.StudentID)
	ma.CourseID = core.CleanString(ma.CourseID)
	return core.Validate.Struct(ma)
}

type QueryFilter struct {
	CourseID  string    `query:"course_id"`
	StudentID string    `query:"student_id"`
	Status    Status    `query:"status"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`

	// CourseIDs narrows to a resolved set of courses (teacher scoping); not bindable.
	CourseIDs []string `query:"-"`
	// None short-circuits the query to match nothing; set by fail-closed scoping.
	None bool `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CourseID == "" && qf.StudentID == "" && qf.Status == "" &&
		qf.DateFrom.IsZero() && qf.DateTo.IsZero() && qf.CourseIDs == nil && !qf.None
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
