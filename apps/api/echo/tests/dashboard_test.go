package tests

import (
	"net/http"
	"testing"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/submission"
	testutil "github.com/trezcool/shule/tests"
)

func Test_dashboardApi_retrieve(t *testing.T) {
	fix := newFixture(t)

	asg1 := testutil.CreateAssignment(t, asgRepo, "HW 1", fix.course1.ID, fix.teacher1.ID, assignment.StatusPublished)
	testutil.CreateAssignment(t, asgRepo, "HW 2 (draft)", fix.course1.ID, fix.teacher1.ID, assignment.StatusDraft)
	asg3 := testutil.CreateAssignment(t, asgRepo, "Lab report", fix.course2.ID, fix.teacher2.ID, assignment.StatusPublished)
	testutil.CreateSubmission(t, subRepo, asg1.ID, fix.student1.ID, submission.StatusSubmitted)
	testutil.CreateSubmission(t, subRepo, asg3.ID, fix.student2.ID, submission.StatusGraded)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin sees the whole school", token: getToken(t, fix.admin),
			wantData: marchallObj(t, echoapi.DashboardResponse{
				Role:           "admin",
				Courses:        2,
				Assignments:    3,
				Submissions:    2,
				PendingGrading: 1,
				Students:       2,
				Teachers:       2,
			}),
		},
		{
			name: "teacher sees own courses and grading backlog", token: getToken(t, fix.teacher1),
			wantData: marchallObj(t, echoapi.DashboardResponse{
				Role:           "teacher",
				Courses:        1,
				Assignments:    2,
				Submissions:    1,
				PendingGrading: 1,
				Students:       1,
			}),
		},
		{
			name: "teacher with everything graded has no backlog", token: getToken(t, fix.teacher2),
			wantData: marchallObj(t, echoapi.DashboardResponse{
				Role:        "teacher",
				Courses:     1,
				Assignments: 1,
				Submissions: 1,
				Students:    1,
			}),
		},
		{
			name: "student sees own activity, drafts excluded", token: getToken(t, fix.student1),
			wantData: marchallObj(t, echoapi.DashboardResponse{
				Role:        "student",
				Courses:     1,
				Assignments: 1,
				Submissions: 1,
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/dashboard"
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
