package request

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/crypt"
	"github.com/gautamcse27/tuition-app/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("tuition request not found")

	errNoTutorAssigned = errors.New("no tutor assigned to this request")
	errNoReceipt       = errors.New("no receipt has been submitted for this request")
)

type (
	Repository interface {
		CreateRequest(req Request) (Request, error)
		GetRequestByID(id int) (Request, error)
		// FilterRequests applies AND operation on available QueryFilter
		// fields, ordered by CreatedAt descending, paginated when
		// Page/PageSize are set.
		FilterRequests(filter QueryFilter) ([]Request, error)
		CountRequests(filter QueryFilter) (int, error)
		// UpdateRequest persists the full row in a single atomic write:
		// either the whole transition commits or none of it does.
		UpdateRequest(req Request) (Request, error)
		// DeleteRequest removes the request and any dependent rows in one
		// transaction.
		DeleteRequest(id int) error
	}

	Service interface {
		Post(actor user.Actor, nr NewRequest) (Request, error)
		Get(id int) (Request, error)
		Filter(filter QueryFilter) ([]Request, error)
		Paginate(filter QueryFilter) (Page, error)
		Approve(actor user.Actor, id int) (Request, error)
		Revoke(actor user.Actor, id int) (Request, error)
		Assign(actor user.Actor, id, tutorID int) (Request, error)
		SubmitReceipt(actor user.Actor, id int, file []byte, filename string) (Request, error)
		VerifyPayment(actor user.Actor, id int) (Request, error)
		RejectPayment(actor user.Actor, id int) (Request, error)
		Close(actor user.Actor, id int) error
		Document(actor user.Actor, id int) ([]byte, string, error)
		Receipt(actor user.Actor, id int) ([]byte, string, error)
	}

	service struct {
		repo   Repository
		cipher *crypt.Cipher
		conf   *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, cipher *crypt.Cipher, conf *core.Config) Service {
	return &service{
		repo:   repo,
		cipher: cipher,
		conf:   conf,
	}
}

// Post creates an open request owned by the acting student. An attached
// document is encrypted before it ever reaches the store.
func (svc *service) Post(actor user.Actor, nr NewRequest) (Request, error) {
	if !actor.IsStudent() {
		return Request{}, core.ErrPermissionDenied
	}

	req := Request{
		StudentID:    actor.ID,
		Subject:      nr.Subject,
		StudentClass: nr.StudentClass,
		Mode:         nr.Mode,
		Address:      null.NewString(nr.Address, nr.Address != ""),
		Description:  nr.Description,
		Status:       StatusOpen,
		CreatedAt:    time.Now().UTC(),
	}
	if len(nr.Document) > 0 {
		doc, err := svc.cipher.Encrypt(nr.Document)
		if err != nil {
			return Request{}, errors.Wrap(err, "encrypting document")
		}
		req.Document = doc
		req.DocumentName = nr.DocumentName
	}
	return svc.repo.CreateRequest(req)
}

func (svc *service) Get(id int) (Request, error) {
	return svc.repo.GetRequestByID(id)
}

func (svc *service) Filter(filter QueryFilter) ([]Request, error) {
	return svc.repo.FilterRequests(filter)
}

func (svc *service) Paginate(filter QueryFilter) (Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = svc.conf.Request.PageSize
	}
	total, err := svc.repo.CountRequests(filter)
	if err != nil {
		return Page{}, err
	}
	items, err := svc.repo.FilterRequests(filter)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Request{}
	}
	return Page{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// Approve grants tutor-assignment visibility for the request. Idempotent;
// orthogonal to the payment state.
func (svc *service) Approve(actor user.Actor, id int) (Request, error) {
	return svc.setApproved(actor, id, true)
}

// Revoke withdraws tutor-assignment visibility. Idempotent.
func (svc *service) Revoke(actor user.Actor, id int) (Request, error) {
	return svc.setApproved(actor, id, false)
}

func (svc *service) setApproved(actor user.Actor, id int, approved bool) (Request, error) {
	if !actor.IsOperator() {
		return Request{}, core.ErrPermissionDenied
	}
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return Request{}, err
	}
	if req.Approved == approved {
		return req, nil
	}
	req.Approved = approved
	return svc.repo.UpdateRequest(req)
}

// Assign links a tutor to an open request.
func (svc *service) Assign(actor user.Actor, id, tutorID int) (Request, error) {
	if !actor.IsOperator() {
		return Request{}, core.ErrPermissionDenied
	}
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return Request{}, err
	}
	req.TutorID = null.IntFrom(tutorID)
	if req.Status == StatusOpen {
		req.Status = StatusAssigned
	}
	return svc.repo.UpdateRequest(req)
}

// SubmitReceipt stores an encrypted payment receipt uploaded by the
// request's assigned tutor and puts the request up for admin verification.
// Resubmission after a rejection goes through here again.
func (svc *service) SubmitReceipt(actor user.Actor, id int, file []byte, filename string) (Request, error) {
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return Request{}, err
	}
	if !actor.IsTutor() || !req.IsAssignedTo(actor.ID) {
		return Request{}, core.ErrPermissionDenied
	}
	if len(file) == 0 {
		return Request{}, core.NewValidationError(nil, core.FieldError{Field: "receipt", Error: "receipt file is required"})
	}

	receipt, err := svc.cipher.Encrypt(file)
	if err != nil {
		return Request{}, errors.Wrap(err, "encrypting receipt")
	}
	req.Receipt = receipt
	req.ReceiptName = filename
	req.PaymentVerified = false
	req.Status = StatusReceiptSubmitted
	return svc.repo.UpdateRequest(req)
}

// VerifyPayment confirms the submitted receipt. Idempotent. A request
// without an assigned tutor cannot be verified unless the
// LegacyVerifyAssign compatibility flag is on, in which case the verifying
// actor is linked as tutor.
func (svc *service) VerifyPayment(actor user.Actor, id int) (Request, error) {
	if !actor.IsOperator() {
		return Request{}, core.ErrPermissionDenied
	}
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return Request{}, err
	}
	if req.PaymentVerified {
		return req, nil
	}
	if !req.HasReceipt() {
		return Request{}, core.NewValidationError(errNoReceipt, core.FieldError{Field: "receipt", Error: errNoReceipt.Error()})
	}
	if !req.TutorID.Valid {
		if !svc.conf.Request.LegacyVerifyAssign {
			return Request{}, core.NewValidationError(errNoTutorAssigned, core.FieldError{Field: "tutor_id", Error: errNoTutorAssigned.Error()})
		}
		req.TutorID = null.IntFrom(actor.ID)
	}
	req.PaymentVerified = true
	req.Status = StatusVerified
	return svc.repo.UpdateRequest(req)
}

// RejectPayment marks the submitted receipt as rejected; the tutor may
// resubmit.
func (svc *service) RejectPayment(actor user.Actor, id int) (Request, error) {
	if !actor.IsOperator() {
		return Request{}, core.ErrPermissionDenied
	}
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return Request{}, err
	}
	if !req.HasReceipt() {
		return Request{}, core.NewValidationError(errNoReceipt, core.FieldError{Field: "receipt", Error: errNoReceipt.Error()})
	}
	req.PaymentVerified = false
	req.Status = StatusReceiptRejected
	return svc.repo.UpdateRequest(req)
}

// Close deletes the request and its dependent rows. Only the owning student
// (or an operator) may close a request.
func (svc *service) Close(actor user.Actor, id int) error {
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return err
	}
	if !(actor.IsOperator() || (actor.IsStudent() && req.StudentID == actor.ID)) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteRequest(id)
}

// Document decrypts and returns the attached requirement PDF. Disclosure is
// limited to the owning student, the assigned tutor and operators; a
// decryption failure surfaces as not-found.
func (svc *service) Document(actor user.Actor, id int) ([]byte, string, error) {
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return nil, "", err
	}
	allowed := actor.IsOperator() ||
		(actor.IsStudent() && req.StudentID == actor.ID) ||
		(actor.IsTutor() && req.IsAssignedTo(actor.ID))
	if !allowed {
		return nil, "", core.ErrPermissionDenied
	}
	if !req.HasDocument() {
		return nil, "", ErrNotFound
	}
	doc, err := svc.cipher.Decrypt(req.Document)
	if err != nil {
		// do not leak cryptographic detail
		return nil, "", ErrNotFound
	}
	return doc, req.DocumentName, nil
}

// Receipt decrypts and returns the uploaded payment receipt, for operators
// and the tutor who uploaded it.
func (svc *service) Receipt(actor user.Actor, id int) ([]byte, string, error) {
	req, err := svc.repo.GetRequestByID(id)
	if err != nil {
		return nil, "", err
	}
	allowed := actor.IsOperator() || (actor.IsTutor() && req.IsAssignedTo(actor.ID))
	if !allowed {
		return nil, "", core.ErrPermissionDenied
	}
	if !req.HasReceipt() {
		return nil, "", ErrNotFound
	}
	receipt, err := svc.cipher.Decrypt(req.Receipt)
	if err != nil {
		return nil, "", ErrNotFound
	}
	return receipt, req.ReceiptName, nil
}
