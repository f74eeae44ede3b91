package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/assignment"
)

type assignmentApi struct {
	svc    *assignment.Service
	engine *access.Engine
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service, engine *access.Engine) {
	api := assignmentApi{svc: svc, engine: engine}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, staffMiddleware())

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
}

func (api *assignmentApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	filter := new(assignment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assignment.Assignment{})
	}
	filter.Clean()

	// narrow the caller's filter down to what their role may see
	scope, err := api.engine.ScopeAssignmentRead(ctx.Request().Context(), p)
	if err != nil {
		return err
	}
	filter.None = filter.None || scope.None
	if scope.TeacherID != "" {
		filter.TeacherID = scope.TeacherID
	}
	if scope.CourseIDs != nil {
		filter.CourseIDs = scope.CourseIDs
	}
	if scope.Status != "" {
		filter.Status = scope.Status
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	asgs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.engine.AuthorizeAssignmentCreate(ctx.Request().Context(), p, data.CourseID); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), p.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	if err := api.engine.AuthorizeAssignmentRead(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return err
	}
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.engine.AuthorizeAssignmentWrite(ctx.Request().Context(), p, ctx.Param("id"), access.OpUpdate); err != nil {
		return err
	}

	asg, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	if err := api.engine.AuthorizeAssignmentWrite(ctx.Request().Context(), p, ctx.Param("id"), access.OpDelete); err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
