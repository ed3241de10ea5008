package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cebe/gestao/core"
	"github.com/cebe/gestao/core/school"
	"github.com/cebe/gestao/core/session"
)

const portalEventCount = 5

type schoolApi struct {
	conf   *core.Config
	roster school.Roster
	router *session.Router
}

func registerSchoolAPI(g *echo.Group, jwt, live echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{conf: deps.Conf, roster: deps.Roster, router: deps.Router}

	adm := g.Group("/admin", jwt, live, adminMiddleware())
	adm.GET("/dashboard", api.dashboard)
	adm.GET("/reports", api.reports)
	adm.GET("/financial", api.financial)
	adm.GET("/students", api.students)

	g.GET("/portal", api.portal, jwt, live, guardianMiddleware())
}

func (api *schoolApi) load(ctx echo.Context) ([]school.Student, []school.Course, error) {
	rctx := ctx.Request().Context()
	students, err := api.roster.QueryStudents(rctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying students")
	}
	courses, err := api.roster.QueryCourses(rctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying courses")
	}
	return students, courses, nil
}

// Handlers

func (api *schoolApi) dashboard(ctx echo.Context) error {
	students, courses, err := api.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, school.Dashboard(students, courses))
}

func (api *schoolApi) reports(ctx echo.Context) error {
	students, courses, err := api.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, school.Reports(students, courses))
}

func (api *schoolApi) financial(ctx echo.Context) error {
	students, courses, err := api.load(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, school.Financial(students, courses))
}

func (api *schoolApi) students(ctx echo.Context) error {
	students, err := api.roster.QueryStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) portal(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	rt := api.router.Resolve(rctx, getContextSession(ctx), "")
	if rt.View != session.ViewGuardianPortal {
		if rt.Err() == nil {
			return errHttpForbidden
		}
		return errors.Wrap(rt.Err(), "resolving guardian portal")
	}

	std, err := api.roster.GetStudent(rctx, rt.StudentID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	data := PortalResponse{Student: std, PixKey: api.conf.School.PixKey}
	if crs, err := api.roster.GetCourse(rctx, std.EnrolledCourseID); err == nil {
		data.Course = &crs
	} else if !errors.Is(err, school.ErrCourseNotFound) {
		return errors.Wrap(err, "getting course")
	}
	events, err := api.roster.QueryEvents(rctx)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	data.Events = school.UpcomingEvents(events, portalEventCount)

	return ctx.JSON(http.StatusOK, data)
}

// Bindings

type PortalResponse struct {
	Student school.Student         `json:"student"`
	Course  *school.Course         `json:"course"`
	Events  []school.CalendarEvent `json:"events"`
	PixKey  string                 `json:"pix_key"`
}
