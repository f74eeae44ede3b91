package submission_test

import (
	"context"
	"testing"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/core/user"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func intPtr(n int) *int { return &n }

// validationCause unwraps the sentinel behind a *core.ValidationError, if any.
func validationCause(err error) error {
	if verr, ok := err.(*core.ValidationError); ok {
		return verr.Err
	}
	return err
}

func setupSubmissionSvc(t *testing.T) (*submission.Service, assignment.Repository, submission.Repository, user.User, assignment.Assignment, assignment.Assignment) {
	t.Helper()

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	asgRepo := inmemdb.NewAssignmentRepository(db)
	subRepo := inmemdb.NewSubmissionRepository(db)

	teacher := testutil.CreateUser(t, usrRepo, "Teach", "teach", "teach@test.cd", "", user.RoleTeacher, user.StatusActive)
	student := testutil.CreateUser(t, usrRepo, "Stud", "stud", "stud@test.cd", "", user.RoleStudent, user.StatusActive)
	crs := testutil.CreateCourse(t, crsRepo, "Algebra", teacher.ID, "active", student.ID)
	published := testutil.CreateAssignment(t, asgRepo, "HW 1", crs.ID, teacher.ID, assignment.StatusPublished)
	draft := testutil.CreateAssignment(t, asgRepo, "HW 2", crs.ID, teacher.ID, assignment.StatusDraft)

	return submission.NewService(subRepo, asgRepo), asgRepo, subRepo, student, published, draft
}

func TestService_Submit(t *testing.T) {
	svc, _, subRepo, student, published, draft := setupSubmissionSvc(t)
	ctx := context.Background()

	t.Run("unpublished assignment is closed", func(t *testing.T) {
		_, err := svc.Submit(ctx, student.ID, submission.NewSubmission{AssignmentID: draft.ID, Content: "early bird"})
		if validationCause(err) != submission.ErrNotOpen {
			t.Errorf("Submit() error = %v, want %v", err, submission.ErrNotOpen)
		}
	})

	t.Run("unknown assignment", func(t *testing.T) {
		_, err := svc.Submit(ctx, student.ID, submission.NewSubmission{AssignmentID: "nope", Content: "lost"})
		if err != assignment.ErrNotFound {
			t.Errorf("Submit() error = %v, want %v", err, assignment.ErrNotFound)
		}
	})

	t.Run("draft then hand-in keeps a single submission", func(t *testing.T) {
		sub, err := svc.Submit(ctx, student.ID, submission.NewSubmission{AssignmentID: published.ID, Content: "wip", Draft: true})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if sub.Status != submission.StatusPending {
			t.Errorf("Submit() status = %v, want %v", sub.Status, submission.StatusPending)
		}

		final, err := svc.Submit(ctx, student.ID, submission.NewSubmission{AssignmentID: published.ID, Content: "done"})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if final.ID != sub.ID {
			t.Errorf("Submit() created a second submission: %v != %v", final.ID, sub.ID)
		}
		if final.Status != submission.StatusSubmitted {
			t.Errorf("Submit() status = %v, want %v", final.Status, submission.StatusSubmitted)
		}
		if final.Content != "done" {
			t.Errorf("Submit() content = %q, want %q", final.Content, "done")
		}

		all, err := subRepo.FilterSubmissions(ctx, submission.QueryFilter{AssignmentID: published.ID, StudentID: student.ID})
		if err != nil {
			t.Fatalf("FilterSubmissions() error = %v", err)
		}
		if len(all) != 1 {
			t.Errorf("FilterSubmissions() count = %d, want 1", len(all))
		}
	})

	t.Run("graded work is frozen", func(t *testing.T) {
		if _, err := svc.Grade(ctx, "grader", mustSubmissionID(t, svc, published.ID, student.ID), submission.GradeSubmission{Score: intPtr(80)}); err != nil {
			t.Fatalf("Grade() error = %v", err)
		}
		_, err := svc.Submit(ctx, student.ID, submission.NewSubmission{AssignmentID: published.ID, Content: "second thoughts"})
		if validationCause(err) != submission.ErrAlreadyGraded {
			t.Errorf("Submit() error = %v, want %v", err, submission.ErrAlreadyGraded)
		}
	})
}

func mustSubmissionID(t *testing.T, svc *submission.Service, assignmentID, studentID string) string {
	t.Helper()
	subs, err := svc.Query(context.Background(), &submission.QueryFilter{AssignmentID: assignmentID, StudentID: studentID})
	if err != nil || len(subs) != 1 {
		t.Fatalf("Query() = %v, %v; want exactly one submission", subs, err)
	}
	return subs[0].ID
}

func TestService_Grade(t *testing.T) {
	svc, _, subRepo, student, published, _ := setupSubmissionSvc(t)
	ctx := context.Background()

	pending := testutil.CreateSubmission(t, subRepo, published.ID, student.ID, submission.StatusPending)

	t.Run("pending work cannot be graded", func(t *testing.T) {
		_, err := svc.Grade(ctx, "grader", pending.ID, submission.GradeSubmission{Score: intPtr(50)})
		if validationCause(err) != submission.ErrNotSubmitted {
			t.Errorf("Grade() error = %v, want %v", err, submission.ErrNotSubmitted)
		}
	})

	t.Run("unknown submission", func(t *testing.T) {
		_, err := svc.Grade(ctx, "grader", "nope", submission.GradeSubmission{Score: intPtr(50)})
		if err != submission.ErrNotFound {
			t.Errorf("Grade() error = %v, want %v", err, submission.ErrNotFound)
		}
	})

	t.Run("missing score", func(t *testing.T) {
		_, err := svc.Grade(ctx, "grader", pending.ID, submission.GradeSubmission{})
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("Grade() error = %v, want *core.ValidationError", err)
		}
	})

	handIn := func(t *testing.T) submission.Submission {
		t.Helper()
		sub, err := svc.Submit(ctx, student.ID, submission.NewSubmission{AssignmentID: published.ID, Content: "done"})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		return sub
	}

	t.Run("score outside assignment range", func(t *testing.T) {
		sub := handIn(t)
		for _, score := range []int{-1, 101} {
			if _, err := svc.Grade(ctx, "grader", sub.ID, submission.GradeSubmission{Score: intPtr(score)}); err == nil {
				t.Errorf("Grade(score=%d) error = nil, want validation error", score)
			}
		}
	})

	t.Run("grading freezes the submission", func(t *testing.T) {
		sub := handIn(t)
		graded, err := svc.Grade(ctx, "grader", sub.ID, submission.GradeSubmission{Score: intPtr(85), Feedback: "good"})
		if err != nil {
			t.Fatalf("Grade() error = %v", err)
		}
		if graded.Status != submission.StatusGraded {
			t.Errorf("Grade() status = %v, want %v", graded.Status, submission.StatusGraded)
		}
		if graded.Score == nil || *graded.Score != 85 {
			t.Errorf("Grade() score = %v, want 85", graded.Score)
		}
		if graded.GradedBy != "grader" || graded.GradedAt.IsZero() {
			t.Errorf("Grade() grader info not recorded: %+v", graded)
		}

		_, err = svc.Grade(ctx, "grader", sub.ID, submission.GradeSubmission{Score: intPtr(90)})
		if validationCause(err) != submission.ErrAlreadyGraded {
			t.Errorf("Grade() error = %v, want %v", err, submission.ErrAlreadyGraded)
		}
	})
}
