package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/user"
)

type courseApi struct {
	svc    *course.Service
	engine *access.Engine
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, engine *access.Engine) {
	api := courseApi{svc: svc, engine: engine}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, staffMiddleware())

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, staffMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/students", api.enroll, staffMiddleware())
	dg.DELETE("/students/:student_id", api.withdraw, staffMiddleware())
}

func (api *courseApi) query(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()

	// narrow the caller's filter down to what their role may see
	scope, err := api.engine.ScopeCourseRead(p)
	if err != nil {
		return err
	}
	filter.None = filter.None || scope.None
	if scope.TeacherID != "" {
		filter.TeacherID = scope.TeacherID
	}
	if scope.StudentID != "" {
		filter.StudentID = scope.StudentID
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if data.TeacherID == "" && p.Role == user.RoleTeacher {
		data.TeacherID = p.ID
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.engine.AuthorizeCourseCreate(ctx.Request().Context(), p, data.TeacherID); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	if err := api.engine.AuthorizeCourseRead(ctx.Request().Context(), p, ctx.Param("id")); err != nil {
		return err
	}
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.engine.AuthorizeCourseWrite(ctx.Request().Context(), p, ctx.Param("id"), access.OpUpdate); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	if err := api.engine.AuthorizeCourseWrite(ctx.Request().Context(), p, ctx.Param("id"), access.OpDelete); err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	var data EnrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollmentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.engine.AuthorizeEnrollment(ctx.Request().Context(), p, ctx.Param("id"), data.StudentID); err != nil {
		return err
	}
	if err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), data.StudentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) withdraw(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting principal")
	}

	studentID := ctx.Param("student_id")
	if err := api.engine.AuthorizeEnrollment(ctx.Request().Context(), p, ctx.Param("id"), studentID); err != nil {
		return err
	}
	if err := api.svc.Withdraw(ctx.Request().Context(), ctx.Param("id"), studentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type EnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

func (er *EnrollmentRequest) Validate() error {
	return core.Validate.Struct(er)
}
