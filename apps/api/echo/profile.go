package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core/profile"
	"github.com/gautamcse27/tuition-app/core/user"
)

type profileApi struct {
	svc      profile.Service
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := profileApi{
		svc:      deps.ProfileSvc,
		validate: deps.Validate,
	}

	pg := g.Group("/profile", jwt)
	pg.GET("", api.retrieveOwn, roleMiddleware(user.RoleTutor))
	pg.PUT("", api.upsert, roleMiddleware(user.RoleTutor))

	g.GET("/tutors/:id/profile", api.retrieve, jwt)
}

func (api *profileApi) retrieveOwn(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	prof, err := api.svc.GetByTutor(actor.ID)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	tutorID, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	prof, err := api.svc.GetByTutor(tutorID)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) upsert(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	var data profile.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	prof, err := api.svc.Upsert(actor, data)
	if err != nil {
		return errors.Wrap(err, "saving profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}
