package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/user"
)

type userApi struct {
	svc      user.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		svc:      deps.UserSvc,
		conf:     deps.Conf,
		validate: deps.Validate,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register-student", api.registerStudent)
	ug.POST("/register-tutor", api.registerTutor)
	ug.POST("/login", api.login)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)

	// operator endpoints
	ag.GET("", api.query, roleMiddleware(user.RoleAdmin))
	ag.POST("", api.createAdmin, managerMiddleware())
	ag.PUT("/:id/active", api.setActive, managerMiddleware())
	ag.DELETE("/:id", api.destroy, managerMiddleware())
}

// Handlers

func (api *userApi) register(ctx echo.Context, role string) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, role, api.svc); err != nil {
		return err
	}

	var usr user.User
	var err error
	if role == user.RoleStudent {
		usr, err = api.svc.RegisterStudent(data)
	} else {
		usr, err = api.svc.RegisterTutor(data)
	}
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) registerStudent(ctx echo.Context) error {
	return api.register(ctx, user.RoleStudent)
}

func (api *userApi) registerTutor(ctx echo.Context) error {
	return api.register(ctx, user.RoleTutor)
}

func (api *userApi) createAdmin(ctx echo.Context) error {
	var data user.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdmin")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.CreateAdmin(data)
	if err != nil {
		return errors.Wrap(err, "creating admin")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Login
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Login")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(data, api.svc, api.conf)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(data.Role, data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) me(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(actor.ID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	users, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) setActive(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data SetActiveRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetActiveRequest")
	}
	if data.IsActive == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "is_active", Error: "this field is required"})
	}

	usr, err := api.svc.SetActive(id, *data.IsActive)
	if err != nil {
		return errors.Wrap(err, "setting active")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	// ctxUser cannot delete themselves
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if actor.ID == id {
		return errHttpForbidden
	}

	if err = api.svc.Delete(id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Role  string `json:"role" validate:"required,oneof=student tutor admin"`
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	SetActiveRequest struct {
		IsActive *bool `json:"is_active"`
	}
)

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Role = core.CleanString(pr.Role, true /* lower */)
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
