package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/core/user"
)

type (
	dashboardDeps struct {
		usrSvc user.Service
		crsSvc *course.Service
		asgSvc *assignment.Service
		subSvc *submission.Service
		engine *access.Engine
	}

	dashboardApi struct {
		deps *dashboardDeps
	}

	// DashboardResponse is a role-scoped activity summary; zero sections are omitted.
	DashboardResponse struct {
		Role           string `json:"role"`
		Courses        int    `json:"courses"`
		Assignments    int    `json:"assignments"`
		Submissions    int    `json:"submissions"`
		PendingGrading int    `json:"pending_grading,omitempty"`
		Students       int    `json:"students,omitempty"`
		Teachers       int    `json:"teachers,omitempty"`
	}
)

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *dashboardDeps) {
	api := dashboardApi{deps: deps}
	g.GET("/dashboard", api.retrieve, jwt)
}

// retrieve builds the summary through the same scoping rules as the list
// endpoints, so every count reflects exactly what the caller may see.
func (api *dashboardApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}
	reqCtx := ctx.Request().Context()

	resp := DashboardResponse{Role: string(p.Role)}

	crsFilter, err := api.deps.engine.ScopeCourseRead(p)
	if err != nil {
		return err
	}
	courses, err := api.deps.crsSvc.Query(reqCtx, &crsFilter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	resp.Courses = len(courses)

	asgFilter, err := api.deps.engine.ScopeAssignmentRead(reqCtx, p)
	if err != nil {
		return err
	}
	asgs, err := api.deps.asgSvc.Query(reqCtx, &asgFilter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	resp.Assignments = len(asgs)

	subFilter, err := api.deps.engine.ScopeSubmissionRead(p, submission.QueryFilter{})
	if err != nil {
		return err
	}
	subs, err := api.deps.subSvc.Query(reqCtx, &subFilter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if p.Role == user.RoleTeacher {
		// only submissions on this teacher's assignments
		asgIDs := make(map[string]struct{}, len(asgs))
		for _, asg := range asgs {
			asgIDs[asg.ID] = struct{}{}
		}
		var own, pending int
		for _, sub := range subs {
			if _, ok := asgIDs[sub.AssignmentID]; !ok {
				continue
			}
			own++
			if sub.Status == submission.StatusSubmitted {
				pending++
			}
		}
		resp.Submissions = own
		resp.PendingGrading = pending
	} else {
		resp.Submissions = len(subs)
		if p.Role == user.RoleAdmin {
			for _, sub := range subs {
				if sub.Status == submission.StatusSubmitted {
					resp.PendingGrading++
				}
			}
		}
	}

	switch p.Role {
	case user.RoleAdmin:
		students, err := api.deps.usrSvc.Query(reqCtx, &user.QueryFilter{Role: user.RoleStudent})
		if err != nil {
			return errors.Wrap(err, "querying students")
		}
		teachers, err := api.deps.usrSvc.Query(reqCtx, &user.QueryFilter{Role: user.RoleTeacher})
		if err != nil {
			return errors.Wrap(err, "querying teachers")
		}
		resp.Students = len(students)
		resp.Teachers = len(teachers)
	case user.RoleTeacher:
		// distinct students across owned courses
		seen := make(map[string]struct{})
		for _, crs := range courses {
			for _, sid := range crs.StudentIDs {
				seen[sid] = struct{}{}
			}
		}
		resp.Students = len(seen)
	}

	return ctx.JSON(http.StatusOK, resp)
}
