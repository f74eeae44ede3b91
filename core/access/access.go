// Package access is the single place where "who can see or touch what" is
// decided. It turns a Principal into store query filters for reads and into
// allow/deny decisions for writes. It holds no state of its own: every
// decision is a pure function of the principal and a handful of store reads,
// and every ambiguous input fails closed.
package access

import (
	"context"
	"errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/core/user"
)

// Op is a write operation being authorized.
type Op string

const (
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Principal is the authenticated identity making a request.
type Principal struct {
	ID   string
	Role user.Role
}

func NewPrincipal(usr user.User) Principal {
	return Principal{ID: usr.ID, Role: usr.Role}
}

func (p Principal) IsZero() bool { return p.ID == "" }

// ErrUnauthenticated is returned when no valid principal is provided;
// it short-circuits any scoping logic.
var ErrUnauthenticated = errors.New("not authenticated")

// Denial reasons.
const (
	ReasonForbidden        = "forbidden"
	ReasonNotEnrolled      = "not_enrolled"
	ReasonInvalidReference = "invalid_reference"
)

// DeniedError is an authorization rejection: the principal is known but not
// permitted. It is a final, local decision and is never retried.
type DeniedError struct {
	Reason string
}

func (e DeniedError) Error() string { return e.Reason }

func deny(reason string) error { return DeniedError{Reason: reason} }

// IsDenied reports whether err is an authorization rejection and returns its reason.
func IsDenied(err error) (string, bool) {
	var derr DeniedError
	if errors.As(err, &derr) {
		return derr.Reason, true
	}
	return "", false
}

type (
	// UserStore, CourseStore and AssignmentStore are the read-only slices of
	// the entity stores the engine needs for its decisions.
	UserStore interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
	}

	CourseStore interface {
		GetCourseByID(ctx context.Context, id string) (course.Course, error)
		FilterCourses(ctx context.Context, filter course.QueryFilter, orderings ...core.DBOrdering) ([]course.Course, error)
	}

	AssignmentStore interface {
		GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error)
	}

	SubmissionStore interface {
		GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error)
	}

	// Engine makes all scoping and authorization decisions.
	Engine struct {
		users       UserStore
		courses     CourseStore
		assignments AssignmentStore
		submissions SubmissionStore
	}
)

func NewEngine(users UserStore, courses CourseStore, assignments AssignmentStore, submissions SubmissionStore) *Engine {
	return &Engine{
		users:       users,
		courses:     courses,
		assignments: assignments,
		submissions: submissions,
	}
}

// enrolledCourseIDs resolves the ids of the courses a student is enrolled in.
// This is the first leg of the two-step scoping reads; the store may change
// between the two legs and no atomicity is assumed.
func (e *Engine) enrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	crss, err := e.courses.FilterCourses(ctx, course.QueryFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(crss))
	for _, crs := range crss {
		ids = append(ids, crs.ID)
	}
	return ids, nil
}

// ownedCourseIDs resolves the ids of the courses a teacher owns.
func (e *Engine) ownedCourseIDs(ctx context.Context, teacherID string) ([]string, error) {
	crss, err := e.courses.FilterCourses(ctx, course.QueryFilter{TeacherID: teacherID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(crss))
	for _, crs := range crss {
		ids = append(ids, crs.ID)
	}
	return ids, nil
}

// Courses

// ScopeCourseRead returns the course filter the principal may read through:
// admins see all courses, teachers their own, students the ones they are
// enrolled in. Anything else matches nothing.
func (e *Engine) ScopeCourseRead(p Principal) (course.QueryFilter, error) {
	if p.IsZero() {
		return course.QueryFilter{None: true}, ErrUnauthenticated
	}
	switch p.Role {
	case user.RoleAdmin:
		return course.QueryFilter{}, nil
	case user.RoleTeacher:
		return course.QueryFilter{TeacherID: p.ID}, nil
	case user.RoleStudent:
		return course.QueryFilter{StudentID: p.ID}, nil
	}
	return course.QueryFilter{None: true}, nil
}

// AuthorizeCourseRead decides whether the principal may read a single course.
// Out-of-scope courses are reported as not found, not as forbidden.
func (e *Engine) AuthorizeCourseRead(ctx context.Context, p Principal, courseID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	crs, err := e.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if crs.TeacherID == p.ID {
			return nil
		}
	case user.RoleStudent:
		if crs.HasStudent(p.ID) {
			return nil
		}
	}
	return course.ErrNotFound
}

// AuthorizeCourseCreate decides whether the principal may create a course
// owned by teacherID. The teacher reference must resolve to an actual teacher.
func (e *Engine) AuthorizeCourseCreate(ctx context.Context, p Principal, teacherID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	switch p.Role {
	case user.RoleAdmin:
	case user.RoleTeacher:
		if teacherID != p.ID {
			return deny(ReasonForbidden)
		}
	default:
		return deny(ReasonForbidden)
	}

	owner, err := e.users.GetUserByID(ctx, teacherID)
	if err != nil {
		if err == user.ErrNotFound {
			return deny(ReasonInvalidReference)
		}
		return err
	}
	if !owner.IsTeacher() {
		return deny(ReasonInvalidReference)
	}
	return nil
}

// AuthorizeCourseWrite decides whether the principal may update or delete a
// course. Updates are open to the owning teacher or an admin; deletion is
// admin only, a teacher owns the course's content but not its existence.
func (e *Engine) AuthorizeCourseWrite(ctx context.Context, p Principal, courseID string, op Op) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	crs, err := e.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if op == OpDelete {
			break // course deletion is an admin matter
		}
		if crs.TeacherID == p.ID {
			return nil
		}
	}
	return deny(ReasonForbidden)
}

// AuthorizeEnrollment decides whether the principal may enroll (or withdraw)
// studentID in the course. Enrollment is authorized like a course write and
// the student reference must resolve to an actual student.
func (e *Engine) AuthorizeEnrollment(ctx context.Context, p Principal, courseID, studentID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	crs, err := e.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
	case user.RoleTeacher:
		if crs.TeacherID != p.ID {
			return deny(ReasonForbidden)
		}
	default:
		return deny(ReasonForbidden)
	}

	student, err := e.users.GetUserByID(ctx, studentID)
	if err != nil {
		if err == user.ErrNotFound {
			return deny(ReasonInvalidReference)
		}
		return err
	}
	if !student.IsStudent() {
		return deny(ReasonInvalidReference)
	}
	return nil
}

// Assignments

// ScopeAssignmentRead returns the assignment filter the principal may read
// through. For students this takes two sequential store reads: resolve the
// enrolled course ids first, then filter assignments down to those courses.
// Enrollment may change between the two reads; occasional staleness is fine,
// leaking assignments from non-enrolled courses is not.
func (e *Engine) ScopeAssignmentRead(ctx context.Context, p Principal) (assignment.QueryFilter, error) {
	if p.IsZero() {
		return assignment.QueryFilter{None: true}, ErrUnauthenticated
	}
	switch p.Role {
	case user.RoleAdmin:
		return assignment.QueryFilter{}, nil
	case user.RoleTeacher:
		return assignment.QueryFilter{TeacherID: p.ID}, nil
	case user.RoleStudent:
		ids, err := e.enrolledCourseIDs(ctx, p.ID)
		if err != nil {
			return assignment.QueryFilter{None: true}, err
		}
		if len(ids) == 0 {
			return assignment.QueryFilter{None: true}, nil
		}
		// students only see published work
		return assignment.QueryFilter{CourseIDs: ids, Status: assignment.StatusPublished}, nil
	}
	return assignment.QueryFilter{None: true}, nil
}

// AuthorizeAssignmentRead decides whether the principal may read a single assignment.
func (e *Engine) AuthorizeAssignmentRead(ctx context.Context, p Principal, assignmentID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	asg, err := e.assignments.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if asg.TeacherID == p.ID {
			return nil
		}
	case user.RoleStudent:
		if !asg.IsPublished() {
			break
		}
		crs, err := e.courses.GetCourseByID(ctx, asg.CourseID)
		if err != nil {
			return err
		}
		if crs.HasStudent(p.ID) {
			return nil
		}
	}
	return assignment.ErrNotFound
}

// AuthorizeAssignmentCreate decides whether the principal may create an
// assignment in the course: its teacher, or an admin. A teacher can never
// attach an assignment to a course they do not own.
func (e *Engine) AuthorizeAssignmentCreate(ctx context.Context, p Principal, courseID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	crs, err := e.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if crs.TeacherID == p.ID {
			return nil
		}
	}
	return deny(ReasonForbidden)
}

// AuthorizeAssignmentWrite decides whether the principal may update or delete an assignment.
func (e *Engine) AuthorizeAssignmentWrite(ctx context.Context, p Principal, assignmentID string, op Op) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	asg, err := e.assignments.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if asg.TeacherID == p.ID {
			return nil
		}
	}
	return deny(ReasonForbidden)
}

// Submissions

// AuthorizeSubmissionCreate decides whether the principal may hand in work for
// the assignment: students only, and only when enrolled in the assignment's
// course.
func (e *Engine) AuthorizeSubmissionCreate(ctx context.Context, p Principal, assignmentID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	if p.Role != user.RoleStudent {
		return deny(ReasonForbidden)
	}
	asg, err := e.assignments.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	crs, err := e.courses.GetCourseByID(ctx, asg.CourseID)
	if err != nil {
		return err
	}
	if !crs.HasStudent(p.ID) {
		return deny(ReasonNotEnrolled)
	}
	return nil
}

// ScopeSubmissionRead narrows a requested submission filter to what the
// principal may read. Students only ever see their own submissions: any
// requested student filter is overridden with their own id.
func (e *Engine) ScopeSubmissionRead(p Principal, filter submission.QueryFilter) (submission.QueryFilter, error) {
	if p.IsZero() {
		return submission.QueryFilter{None: true}, ErrUnauthenticated
	}
	switch p.Role {
	case user.RoleAdmin, user.RoleTeacher:
		return filter, nil
	case user.RoleStudent:
		filter.StudentID = p.ID
		return filter, nil
	}
	return submission.QueryFilter{None: true}, nil
}

// AuthorizeSubmissionRead decides whether the principal may read a single submission.
func (e *Engine) AuthorizeSubmissionRead(ctx context.Context, p Principal, submissionID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	sub, err := e.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin, user.RoleTeacher:
		return nil
	case user.RoleStudent:
		if sub.StudentID == p.ID {
			return nil
		}
	}
	return submission.ErrNotFound
}

// AuthorizeSubmissionGrade decides whether the principal may grade the
// submission: an admin, or the teacher of the submission's assignment.
func (e *Engine) AuthorizeSubmissionGrade(ctx context.Context, p Principal, submissionID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	sub, err := e.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		asg, err := e.assignments.GetAssignmentByID(ctx, sub.AssignmentID)
		if err != nil {
			return err
		}
		if asg.TeacherID == p.ID {
			return nil
		}
	}
	return deny(ReasonForbidden)
}

// Attendance

// ScopeAttendanceRead narrows a requested attendance filter to what the
// principal may read: admins everything, teachers their own courses (two-step
// resolution like assignments), students their own records.
func (e *Engine) ScopeAttendanceRead(ctx context.Context, p Principal, filter attendance.QueryFilter) (attendance.QueryFilter, error) {
	if p.IsZero() {
		return attendance.QueryFilter{None: true}, ErrUnauthenticated
	}
	switch p.Role {
	case user.RoleAdmin:
		return filter, nil
	case user.RoleTeacher:
		ids, err := e.ownedCourseIDs(ctx, p.ID)
		if err != nil {
			return attendance.QueryFilter{None: true}, err
		}
		if len(ids) == 0 {
			return attendance.QueryFilter{None: true}, nil
		}
		filter.CourseIDs = ids
		return filter, nil
	case user.RoleStudent:
		filter.StudentID = p.ID
		return filter, nil
	}
	return attendance.QueryFilter{None: true}, nil
}

// AuthorizeAttendanceMark decides whether the principal may mark attendance
// for the course: its teacher, or an admin.
func (e *Engine) AuthorizeAttendanceMark(ctx context.Context, p Principal, courseID string) error {
	if p.IsZero() {
		return ErrUnauthenticated
	}
	crs, err := e.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if crs.TeacherID == p.ID {
			return nil
		}
	}
	return deny(ReasonForbidden)
}
