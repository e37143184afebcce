package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/access"
	"github.com/gautamcse27/tuition-app/core/user"
)

type accessApi struct {
	svc      access.Service
	userSvc  user.Service
	validate *validator.Validate
}

func registerAccessAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := accessApi{
		svc:      deps.AccessSvc,
		userSvc:  deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/access", jwt)
	ag.GET("", api.query, roleMiddleware(user.RoleAdmin))
	ag.POST("", api.grant, managerMiddleware())
	ag.DELETE("", api.revoke, managerMiddleware())
}

func (api *accessApi) query(ctx echo.Context) error {
	grants, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying grants")
	}
	if grants == nil {
		grants = []access.Grant{}
	}
	return ctx.JSON(http.StatusOK, grants)
}

func (api *accessApi) grant(ctx echo.Context) error {
	pair, err := api.bindPair(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Grant(pair.TutorID, pair.StudentID); err != nil {
		return errors.Wrap(err, "granting access")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accessApi) revoke(ctx echo.Context) error {
	pair, err := api.bindPair(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Revoke(pair.TutorID, pair.StudentID); err != nil {
		return errors.Wrap(err, "revoking access")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// bindPair binds and checks the tutor/student pair: both must exist and
// carry the expected role.
func (api *accessApi) bindPair(ctx echo.Context) (GrantRequest, error) {
	var data GrantRequest
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to GrantRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return data, err
	}

	tutor, err := api.userSvc.GetByID(data.TutorID)
	if err != nil || tutor.Role != user.RoleTutor {
		return data, core.NewValidationError(nil, core.FieldError{Field: "tutor_id", Error: "not a tutor"})
	}
	stu, err := api.userSvc.GetByID(data.StudentID)
	if err != nil || stu.Role != user.RoleStudent {
		return data, core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "not a student"})
	}
	return data, nil
}

type GrantRequest struct {
	TutorID   int `json:"tutor_id" validate:"required"`
	StudentID int `json:"student_id" validate:"required"`
}

func (gr GrantRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(gr)
}
