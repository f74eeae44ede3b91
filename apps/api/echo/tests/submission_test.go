package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/submission"
	testutil "github.com/trezcool/shule/tests"
)

func Test_submissionApi_submissionCreate(t *testing.T) {
	fix := newFixture(t)

	published := testutil.CreateAssignment(t, asgRepo, "HW 1", fix.course1.ID, fix.teacher1.ID, assignment.StatusPublished)
	draft := testutil.CreateAssignment(t, asgRepo, "HW 2 (draft)", fix.course1.ID, fix.teacher1.ID, assignment.StatusDraft)

	newSub := func(assignmentID, content string, isDraft bool) []byte {
		return marchallObj(t, submission.NewSubmission{AssignmentID: assignmentID, Content: content, Draft: isDraft})
	}

	tests := []httpTest{
		{
			name: "teacher cannot hand in work", body: newSub(published.ID, "my essay", false), token: getToken(t, fix.teacher1),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "forbidden"}),
		},
		{
			name: "non-enrolled student is rejected", body: newSub(published.ID, "my essay", false), token: getToken(t, fix.student2),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "not_enrolled"}),
		},
		{
			name: "content or file required", body: newSub(published.ID, "", false), token: getToken(t, fix.student1),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"content":  "one of content or file_url is required",
				"file_url": "one of content or file_url is required",
			}),
		},
		{
			name: "unpublished assignments reject work", body: newSub(draft.ID, "too soon", false), token: getToken(t, fix.student1),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: submission.ErrNotOpen.Error()}),
		},
		{name: "enrolled student drafts", body: newSub(published.ID, "work in progress", true), token: getToken(t, fix.student1), wantCode: http.StatusCreated, extra: submission.StatusPending},
		{name: "enrolled student hands in", body: newSub(published.ID, "my essay", false), token: getToken(t, fix.student1), wantCode: http.StatusCreated, extra: submission.StatusSubmitted},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/submissions"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
				}
				var respData submission.Submission
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.StudentID != fix.student1.ID {
					t.Errorf("failed! student_id = %v; want %v", respData.StudentID, fix.student1.ID)
				}
				if want := tt.extra.(submission.Status); respData.Status != want {
					t.Errorf("failed! status = %v; want %v", respData.Status, want)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_submissionApi_submissionQuery(t *testing.T) {
	fix := newFixture(t)

	asg1 := testutil.CreateAssignment(t, asgRepo, "HW 1", fix.course1.ID, fix.teacher1.ID, assignment.StatusPublished)
	asg2 := testutil.CreateAssignment(t, asgRepo, "Lab report", fix.course2.ID, fix.teacher2.ID, assignment.StatusPublished)
	sub1 := testutil.CreateSubmission(t, subRepo, asg1.ID, fix.student1.ID, submission.StatusSubmitted)
	sub2 := testutil.CreateSubmission(t, subRepo, asg2.ID, fix.student2.ID, submission.StatusSubmitted)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/submissions", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin sees all", path: "/v1/submissions", token: getToken(t, fix.admin), wantData: marchallList(t, sub1, sub2)},
		{name: "teacher filters by assignment", path: "/v1/submissions?assignment_id=" + asg1.ID, token: getToken(t, fix.teacher1), wantData: marchallList(t, sub1)},
		{name: "student sees only their own", path: "/v1/submissions", token: getToken(t, fix.student1), wantData: marchallList(t, sub1)},
		{name: "student cannot peek at a peer", path: "/v1/submissions?student_id=" + fix.student2.ID, token: getToken(t, fix.student1), wantData: marchallList(t, sub1)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_submissionApi_submissionRetrieve(t *testing.T) {
	fix := newFixture(t)

	asg := testutil.CreateAssignment(t, asgRepo, "HW 1", fix.course1.ID, fix.teacher1.ID, assignment.StatusPublished)
	sub := testutil.CreateSubmission(t, subRepo, asg.ID, fix.student1.ID, submission.StatusSubmitted)

	notFound := marchallObj(t, httpErr{Error: submission.ErrNotFound.Error()})
	tests := []httpTest{
		{name: "owner reads", path: "/v1/submissions/" + sub.ID, token: getToken(t, fix.student1), wantCode: http.StatusOK, wantData: marchallObj(t, sub)},
		{name: "peer student cannot read", path: "/v1/submissions/" + sub.ID, token: getToken(t, fix.student2), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "teacher reads", path: "/v1/submissions/" + sub.ID, token: getToken(t, fix.teacher1), wantCode: http.StatusOK, wantData: marchallObj(t, sub)},
		{name: "unknown submission", path: "/v1/submissions/nope", token: getToken(t, fix.admin), wantCode: http.StatusNotFound, wantData: notFound},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_submissionApi_submissionGrade(t *testing.T) {
	fix := newFixture(t)

	asg := testutil.CreateAssignment(t, asgRepo, "HW 1", fix.course1.ID, fix.teacher1.ID, assignment.StatusPublished)
	sub := testutil.CreateSubmission(t, subRepo, asg.ID, fix.student1.ID, submission.StatusSubmitted)
	path := "/v1/submissions/" + sub.ID + "/grade"

	grade := func(score int, feedback string) []byte {
		return marchallObj(t, submission.GradeSubmission{Score: &score, Feedback: feedback})
	}

	t.Run("student cannot grade", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, fix.student1), grade(100, "gg"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("foreign teacher cannot grade", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "forbidden"})}
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, fix.teacher2), grade(100, "gg"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("score required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"score": "this field is required"})}
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, fix.teacher1), marchallObj(t, submission.GradeSubmission{}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("score capped at the assignment max", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"score": "score must be between 0 and 100"})}
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, fix.teacher1), grade(101, "gg"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("assignment teacher grades", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, fix.teacher1), grade(85, "good work"))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var respData submission.Submission
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Errorf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Status != submission.StatusGraded {
			t.Errorf("failed! status = %v; want %v", respData.Status, submission.StatusGraded)
		}
		if respData.Score == nil || *respData.Score != 85 {
			t.Errorf("failed! score = %v; want 85", respData.Score)
		}
		if respData.GradedBy != fix.teacher1.ID {
			t.Errorf("failed! graded_by = %v; want %v", respData.GradedBy, fix.teacher1.ID)
		}
	})

	t.Run("grading is final", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: submission.ErrAlreadyGraded.Error()})}
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, fix.admin), grade(100, "bump"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
