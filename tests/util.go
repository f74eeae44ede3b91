package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/core/user"
)

// NewConfig returns an app config suitable for tests.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = true
	conf.TestMode = true
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	role user.Role,
	status user.Status,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	title, teacherID string,
	status course.Status,
	studentIDs ...string,
) course.Course {
	t.Helper()

	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:     title,
		TeacherID: teacherID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	for _, sid := range studentIDs {
		if err := repo.AddStudent(context.Background(), crs.ID, sid); err != nil {
			t.Fatalf("CreateCourse() failed enrolling student: %v", err)
		}
	}
	crs, err = repo.GetCourseByID(context.Background(), crs.ID)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	title, courseID, teacherID string,
	status assignment.Status,
	dueDate ...time.Time,
) assignment.Assignment {
	t.Helper()

	now := time.Now().UTC()
	due := now.Add(7 * 24 * time.Hour)
	if len(dueDate) > 0 {
		due = dueDate[0].UTC()
	}
	asg, err := repo.CreateAssignment(context.Background(), assignment.Assignment{
		Title:     title,
		CourseID:  courseID,
		TeacherID: teacherID,
		DueDate:   due,
		MaxScore:  100,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	assignmentID, studentID string,
	status submission.Status,
) submission.Submission {
	t.Helper()

	now := time.Now().UTC()
	sub, err := repo.CreateSubmission(context.Background(), submission.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      "my work",
		Status:       status,
		SubmittedAt:  now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}

func CreateAttendance(
	t *testing.T,
	repo attendance.Repository,
	studentID, courseID, markedBy string,
	status attendance.Status,
	date ...time.Time,
) attendance.Attendance {
	t.Helper()

	day := attendance.Day(time.Now())
	if len(date) > 0 {
		day = attendance.Day(date[0])
	}
	now := time.Now().UTC()
	att, err := repo.UpsertAttendance(context.Background(), attendance.Attendance{
		StudentID: studentID,
		CourseID:  courseID,
		Date:      day,
		Status:    status,
		MarkedBy:  markedBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAttendance() failed: %v", err)
	}
	return att
}
