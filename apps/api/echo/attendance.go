package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/attendance"
)

type attendanceApi struct {
	svc    *attendance.Service
	engine *access.Engine
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, engine *access.Engine) {
	api := attendanceApi{svc: svc, engine: engine}

	ag := g.Group("/attendance", jwt)
	ag.GET("", api.query)
	ag.POST("", api.mark, staffMiddleware())
}

func (api *attendanceApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Attendance{})
	}

	scoped, err := api.engine.ScopeAttendanceRead(ctx.Request().Context(), p, *filter)
	if err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	atts, err := api.svc.Query(ctx.Request().Context(), &scoped, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if atts == nil {
		atts = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.engine.AuthorizeAttendanceMark(ctx.Request().Context(), p, data.CourseID); err != nil {
		return err
	}

	att, err := api.svc.Mark(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, att)
}
