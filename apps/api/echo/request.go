package echoapi

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/access"
	"github.com/gautamcse27/tuition-app/core/authz"
	"github.com/gautamcse27/tuition-app/core/request"
	"github.com/gautamcse27/tuition-app/core/user"
)

type requestApi struct {
	svc       request.Service
	userSvc   user.Service
	accessSvc access.Service
	conf      *core.Config
	validate  *validator.Validate
}

func registerRequestAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := requestApi{
		svc:       deps.RequestSvc,
		userSvc:   deps.UserSvc,
		accessSvc: deps.AccessSvc,
		conf:      deps.Conf,
		validate:  deps.Validate,
	}

	rg := g.Group("/requests", jwt)

	rg.GET("", api.query)
	rg.POST("", api.create, roleMiddleware(user.RoleStudent))
	rg.GET("/mine", api.mine, roleMiddleware(user.RoleStudent))
	rg.GET("/assigned", api.assigned, roleMiddleware(user.RoleTutor))
	rg.GET("/pending-verification", api.pendingVerification, roleMiddleware(user.RoleAdmin))

	rg.GET("/:id", api.retrieve)
	rg.DELETE("/:id", api.destroy)
	rg.GET("/:id/document", api.document)
	rg.POST("/:id/receipt", api.submitReceipt, roleMiddleware(user.RoleTutor))
	rg.GET("/:id/receipt", api.receipt)

	// operator actions
	rg.PUT("/:id/approve", api.approve, managerMiddleware())
	rg.PUT("/:id/revoke", api.revoke, managerMiddleware())
	rg.PUT("/:id/assign", api.assign, managerMiddleware())
	rg.PUT("/:id/verify-payment", api.verifyPayment, managerMiddleware())
	rg.PUT("/:id/reject-payment", api.rejectPayment, managerMiddleware())
}

// Views

type (
	// requestView decorates a request with the posting student's contact
	// identity, masked unless the viewer holds an access grant.
	requestView struct {
		request.Request
		StudentName  string `json:"student_name,omitempty"`
		StudentEmail string `json:"student_email,omitempty"`
		StudentPhone string `json:"student_phone,omitempty"`
	}

	pageView struct {
		Items    []requestView `json:"items"`
		Total    int           `json:"total"`
		Page     int           `json:"page"`
		PageSize int           `json:"page_size"`
	}
)

func (api *requestApi) buildView(actor user.Actor, req request.Request) (requestView, error) {
	view := requestView{Request: req}

	stu, err := api.userSvc.GetByID(req.StudentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return view, nil
		}
		return view, errors.Wrap(err, "finding student")
	}
	view.StudentName = stu.Name

	var granted bool
	if actor.IsTutor() {
		if granted, err = api.accessSvc.IsGranted(actor.ID, req.StudentID); err != nil {
			return view, errors.Wrap(err, "checking access grant")
		}
	}
	if authz.CanViewUnmasked(actor, granted) || (actor.IsStudent() && actor.ID == req.StudentID) {
		view.StudentEmail = stu.Email
		view.StudentPhone = stu.Phone
	} else {
		view.StudentEmail = core.MaskEmail(stu.Email)
		view.StudentPhone = core.MaskPhone(stu.Phone)
	}
	return view, nil
}

func (api *requestApi) buildViews(actor user.Actor, reqs []request.Request) ([]requestView, error) {
	views := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		view, err := api.buildView(actor, req)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Handlers

func (api *requestApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	filter := new(request.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, pageView{Items: []requestView{}})
	}
	filter.PageSize = api.conf.Request.PageSize
	// only operators see unapproved requests
	if !actor.IsOperator() {
		approved := true
		filter.Approved = &approved
	}

	page, err := api.svc.Paginate(*filter)
	if err != nil {
		return errors.Wrap(err, "querying requests")
	}
	views, err := api.buildViews(actor, page.Items)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pageView{
		Items:    views,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

func (api *requestApi) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	data := request.NewRequest{
		Subject:      ctx.FormValue("subject"),
		StudentClass: ctx.FormValue("student_class"),
		Mode:         ctx.FormValue("mode"),
		Address:      ctx.FormValue("address"),
		Description:  ctx.FormValue("description"),
	}
	if data.Document, data.DocumentName, err = readFormFile(ctx, "document"); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.Post(actor, data)
	if err != nil {
		return errors.Wrap(err, "posting request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *requestApi) mine(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	reqs, err := api.svc.Filter(request.QueryFilter{StudentID: actor.ID})
	if err != nil {
		return errors.Wrap(err, "querying requests")
	}
	if reqs == nil {
		reqs = []request.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *requestApi) assigned(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	reqs, err := api.svc.Filter(request.QueryFilter{TutorID: actor.ID})
	if err != nil {
		return errors.Wrap(err, "querying requests")
	}
	views, err := api.buildViews(actor, reqs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *requestApi) pendingVerification(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	reqs, err := api.svc.Filter(request.QueryFilter{PendingVerification: true})
	if err != nil {
		return errors.Wrap(err, "querying requests")
	}
	views, err := api.buildViews(actor, reqs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *requestApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	req, err := api.svc.Get(id)
	if err != nil {
		return errors.Wrap(err, "finding request")
	}
	// students may only see their own requests
	if actor.IsStudent() && req.StudentID != actor.ID {
		return errHttpNotFound
	}
	view, err := api.buildView(actor, req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *requestApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	if err = api.svc.Close(actor, id); err != nil {
		return errors.Wrap(err, "closing request")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *requestApi) document(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	data, name, err := api.svc.Document(actor, id)
	if err != nil {
		return errors.Wrap(err, "fetching document")
	}
	return sendAttachment(ctx, data, name)
}

func (api *requestApi) receipt(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	data, name, err := api.svc.Receipt(actor, id)
	if err != nil {
		return errors.Wrap(err, "fetching receipt")
	}
	return sendAttachment(ctx, data, name)
}

func (api *requestApi) submitReceipt(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	file, name, err := readFormFile(ctx, "receipt")
	if err != nil {
		return err
	}
	req, err := api.svc.SubmitReceipt(actor, id, file, name)
	if err != nil {
		return errors.Wrap(err, "submitting receipt")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *requestApi) operatorAction(ctx echo.Context, action func(user.Actor, int) (request.Request, error), desc string) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	req, err := action(actor, id)
	if err != nil {
		return errors.Wrap(err, desc)
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *requestApi) approve(ctx echo.Context) error {
	return api.operatorAction(ctx, api.svc.Approve, "approving request")
}

func (api *requestApi) revoke(ctx echo.Context) error {
	return api.operatorAction(ctx, api.svc.Revoke, "revoking request")
}

func (api *requestApi) verifyPayment(ctx echo.Context) error {
	return api.operatorAction(ctx, api.svc.VerifyPayment, "verifying payment")
}

func (api *requestApi) rejectPayment(ctx echo.Context) error {
	return api.operatorAction(ctx, api.svc.RejectPayment, "rejecting payment")
}

func (api *requestApi) assign(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data AssignRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignRequest")
	}
	if data.TutorID == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "tutor_id", Error: "this field is required"})
	}
	// the assignee must be an active tutor
	tutor, err := api.userSvc.GetByID(data.TutorID)
	if err != nil || tutor.Role != user.RoleTutor || !tutor.IsActive {
		return core.NewValidationError(nil, core.FieldError{Field: "tutor_id", Error: "not an active tutor"})
	}

	req, err := api.svc.Assign(actor, id, data.TutorID)
	if err != nil {
		return errors.Wrap(err, "assigning tutor")
	}
	return ctx.JSON(http.StatusOK, req)
}

type AssignRequest struct {
	TutorID int `json:"tutor_id"`
}

// readFormFile reads an optional multipart upload; returns nil bytes when
// the field is absent.
func readFormFile(ctx echo.Context, field string) ([]byte, string, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, "", nil
		}
		// no multipart form at all
		return nil, "", nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, "", errors.Wrap(err, "reading uploaded file")
	}
	return data, fh.Filename, nil
}

func sendAttachment(ctx echo.Context, data []byte, name string) error {
	if name != "" {
		ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	}
	return ctx.Blob(http.StatusOK, "application/pdf", data)
}
