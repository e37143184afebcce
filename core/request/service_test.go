package request_test

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/crypt"
	"github.com/gautamcse27/tuition-app/core/request"
	"github.com/gautamcse27/tuition-app/core/user"
	inmemdb "github.com/gautamcse27/tuition-app/storage/database/inmem"
	testutil "github.com/gautamcse27/tuition-app/tests"
)

var (
	student      = user.Actor{ID: 1, Role: user.RoleStudent}
	otherStudent = user.Actor{ID: 2, Role: user.RoleStudent}
	tutor        = user.Actor{ID: 3, Role: user.RoleTutor}
	otherTutor   = user.Actor{ID: 4, Role: user.RoleTutor}
	admin        = user.Actor{ID: 9, Role: user.RoleAdmin, IsAdmin: true}
)

func setup(t *testing.T) (request.Service, request.Repository, *core.Config) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmemdb.NewRequestRepository(db)

	cipher, err := crypt.New("test-document-secret")
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := core.NewTestConfig()
	return request.NewService(repo, cipher, conf), repo, conf
}

func isValidationErr(err error) bool {
	_, ok := errors.Cause(err).(*core.ValidationError)
	return ok
}

func TestService_Post(t *testing.T) {
	svc, _, _ := setup(t)

	doc := []byte("%PDF-1.4 requirements")
	nr := request.NewRequest{
		Subject:      "Mathematics",
		StudentClass: "10",
		Mode:         request.ModeOnline,
		Description:  "algebra twice a week",
		Document:     doc,
		DocumentName: "requirements.pdf",
	}

	if _, err := svc.Post(tutor, nr); err != core.ErrPermissionDenied {
		t.Errorf("Post() by tutor: error = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.Post(admin, nr); err != core.ErrPermissionDenied {
		t.Errorf("Post() by admin: error = %v, want ErrPermissionDenied", err)
	}

	req, err := svc.Post(student, nr)
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}
	if req.Status != request.StatusOpen {
		t.Errorf("Post() status = %s, want %s", req.Status, request.StatusOpen)
	}
	if req.StudentID != student.ID {
		t.Errorf("Post() studentID = %d, want %d", req.StudentID, student.ID)
	}
	if req.Approved || req.PaymentVerified {
		t.Error("Post() must not pre-approve or pre-verify")
	}
	// the document must not be stored in the clear
	if bytes.Contains(req.Document, doc) {
		t.Error("Post() stored the document unencrypted")
	}

	// the owner gets the original bytes back
	got, name, err := svc.Document(student, req.ID)
	if err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	if !bytes.Equal(got, doc) {
		t.Error("Document() did not round-trip the original bytes")
	}
	if name != "requirements.pdf" {
		t.Errorf("Document() name = %s, want requirements.pdf", name)
	}
}

func TestService_ApproveRevoke(t *testing.T) {
	svc, repo, _ := setup(t)
	req := testutil.CreateRequest(t, repo, student.ID, "Physics", request.ModeOnline)

	if _, err := svc.Approve(student, req.ID); err != core.ErrPermissionDenied {
		t.Errorf("Approve() by student: error = %v, want ErrPermissionDenied", err)
	}

	req, err := svc.Approve(admin, req.ID)
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}
	if !req.Approved {
		t.Error("Approve() did not set the flag")
	}

	// idempotent
	if req, err = svc.Approve(admin, req.ID); err != nil || !req.Approved {
		t.Errorf("Approve() twice: req.Approved = %v, err = %v", req.Approved, err)
	}

	if req, err = svc.Revoke(admin, req.ID); err != nil || req.Approved {
		t.Errorf("Revoke(): req.Approved = %v, err = %v", req.Approved, err)
	}
}

func TestService_ReceiptLifecycle(t *testing.T) {
	svc, repo, _ := setup(t)
	req := testutil.CreateRequest(t, repo, student.ID, "Chemistry", request.ModeOffline)

	if _, err := svc.Assign(tutor, req.ID, tutor.ID); err != core.ErrPermissionDenied {
		t.Errorf("Assign() by tutor: error = %v, want ErrPermissionDenied", err)
	}

	req, err := svc.Assign(admin, req.ID, tutor.ID)
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if req.Status != request.StatusAssigned {
		t.Errorf("Assign() status = %s, want %s", req.Status, request.StatusAssigned)
	}
	if !req.IsAssignedTo(tutor.ID) {
		t.Error("Assign() did not link the tutor")
	}

	receipt := []byte("payment receipt scan")

	// only the assigned tutor may submit
	if _, err = svc.SubmitReceipt(otherTutor, req.ID, receipt, "receipt.pdf"); err != core.ErrPermissionDenied {
		t.Errorf("SubmitReceipt() by other tutor: error = %v, want ErrPermissionDenied", err)
	}
	if _, err = svc.SubmitReceipt(tutor, req.ID, nil, "receipt.pdf"); !isValidationErr(err) {
		t.Errorf("SubmitReceipt() without file: error = %v, want ValidationError", err)
	}

	req, err = svc.SubmitReceipt(tutor, req.ID, receipt, "receipt.pdf")
	if err != nil {
		t.Fatalf("SubmitReceipt() failed: %v", err)
	}
	if req.Status != request.StatusReceiptSubmitted {
		t.Errorf("SubmitReceipt() status = %s, want %s", req.Status, request.StatusReceiptSubmitted)
	}
	if req.PaymentVerified {
		t.Error("SubmitReceipt() must leave the payment unverified")
	}

	// rejection allows resubmission
	req, err = svc.RejectPayment(admin, req.ID)
	if err != nil {
		t.Fatalf("RejectPayment() failed: %v", err)
	}
	if req.Status != request.StatusReceiptRejected {
		t.Errorf("RejectPayment() status = %s, want %s", req.Status, request.StatusReceiptRejected)
	}
	if req, err = svc.SubmitReceipt(tutor, req.ID, receipt, "receipt2.pdf"); err != nil || req.Status != request.StatusReceiptSubmitted {
		t.Errorf("SubmitReceipt() after rejection: status = %s, err = %v", req.Status, err)
	}

	// verification
	if _, err = svc.VerifyPayment(tutor, req.ID); err != core.ErrPermissionDenied {
		t.Errorf("VerifyPayment() by tutor: error = %v, want ErrPermissionDenied", err)
	}
	req, err = svc.VerifyPayment(admin, req.ID)
	if err != nil {
		t.Fatalf("VerifyPayment() failed: %v", err)
	}
	if req.Status != request.StatusVerified || !req.PaymentVerified {
		t.Errorf("VerifyPayment() status = %s, verified = %v", req.Status, req.PaymentVerified)
	}

	// idempotent
	if req, err = svc.VerifyPayment(admin, req.ID); err != nil || !req.PaymentVerified {
		t.Errorf("VerifyPayment() twice: verified = %v, err = %v", req.PaymentVerified, err)
	}

	// the uploading tutor can read the receipt back
	got, _, err := svc.Receipt(tutor, req.ID)
	if err != nil {
		t.Fatalf("Receipt() failed: %v", err)
	}
	if !bytes.Equal(got, receipt) {
		t.Error("Receipt() did not round-trip the original bytes")
	}
	if _, _, err = svc.Receipt(student, req.ID); err != core.ErrPermissionDenied {
		t.Errorf("Receipt() by student: error = %v, want ErrPermissionDenied", err)
	}
}

func TestService_VerifyPayment_requiresReceipt(t *testing.T) {
	svc, repo, _ := setup(t)
	req := testutil.CreateRequest(t, repo, student.ID, "Biology", request.ModeOnline)

	if _, err := svc.VerifyPayment(admin, req.ID); !isValidationErr(err) {
		t.Errorf("VerifyPayment() without receipt: error = %v, want ValidationError", err)
	}
}

func TestService_VerifyPayment_unassigned(t *testing.T) {
	svc, repo, conf := setup(t)

	// a receipt without an assigned tutor only exists in legacy data
	cipher, _ := crypt.New("test-document-secret")
	receipt, _ := cipher.Encrypt([]byte("orphan receipt"))
	req := testutil.CreateRequest(t, repo, student.ID, "History", request.ModeOnline)
	req.Receipt = receipt
	req.ReceiptName = "receipt.pdf"
	req.Status = request.StatusReceiptSubmitted
	if _, err := repo.UpdateRequest(req); err != nil {
		t.Fatalf("UpdateRequest() failed: %v", err)
	}

	if _, err := svc.VerifyPayment(admin, req.ID); !isValidationErr(err) {
		t.Errorf("VerifyPayment() unassigned: error = %v, want ValidationError", err)
	}

	conf.Request.LegacyVerifyAssign = true
	got, err := svc.VerifyPayment(admin, req.ID)
	if err != nil {
		t.Fatalf("VerifyPayment() with legacy flag failed: %v", err)
	}
	if !got.IsAssignedTo(admin.ID) {
		t.Error("VerifyPayment() with legacy flag must link the verifying actor")
	}
	if got.Status != request.StatusVerified || !got.PaymentVerified {
		t.Errorf("VerifyPayment() with legacy flag: status = %s, verified = %v", got.Status, got.PaymentVerified)
	}
}

func TestService_Close(t *testing.T) {
	svc, repo, _ := setup(t)
	req := testutil.CreateRequest(t, repo, student.ID, "English", request.ModeOnline)

	if err := svc.Close(otherStudent, req.ID); err != core.ErrPermissionDenied {
		t.Errorf("Close() by other student: error = %v, want ErrPermissionDenied", err)
	}
	if err := svc.Close(tutor, req.ID); err != core.ErrPermissionDenied {
		t.Errorf("Close() by tutor: error = %v, want ErrPermissionDenied", err)
	}

	if err := svc.Close(student, req.ID); err != nil {
		t.Fatalf("Close() by owner failed: %v", err)
	}
	if _, err := svc.Get(req.ID); errors.Cause(err) != request.ErrNotFound {
		t.Errorf("Get() after close: error = %v, want ErrNotFound", err)
	}
}

func TestService_Document_access(t *testing.T) {
	svc, repo, _ := setup(t)

	doc := []byte("syllabus")
	nr := request.NewRequest{
		Subject:      "Geography",
		StudentClass: "8",
		Mode:         request.ModeOnline,
		Description:  "map reading",
		Document:     doc,
		DocumentName: "syllabus.pdf",
	}
	req, err := svc.Post(student, nr)
	if err != nil {
		t.Fatalf("Post() failed: %v", err)
	}

	// unassigned tutors and other students are shut out
	if _, _, err = svc.Document(tutor, req.ID); err != core.ErrPermissionDenied {
		t.Errorf("Document() by unassigned tutor: error = %v, want ErrPermissionDenied", err)
	}
	if _, _, err = svc.Document(otherStudent, req.ID); err != core.ErrPermissionDenied {
		t.Errorf("Document() by other student: error = %v, want ErrPermissionDenied", err)
	}

	if req, err = svc.Assign(admin, req.ID, tutor.ID); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if got, _, err := svc.Document(tutor, req.ID); err != nil || !bytes.Equal(got, doc) {
		t.Errorf("Document() by assigned tutor: got = %q, err = %v", got, err)
	}
	if got, _, err := svc.Document(admin, req.ID); err != nil || !bytes.Equal(got, doc) {
		t.Errorf("Document() by admin: got = %q, err = %v", got, err)
	}

	// a request without a document
	bare := testutil.CreateRequest(t, repo, student.ID, "Art", request.ModeOnline)
	if _, _, err = svc.Document(student, bare.ID); errors.Cause(err) != request.ErrNotFound {
		t.Errorf("Document() without document: error = %v, want ErrNotFound", err)
	}

	// tampered ciphertext must not surface cryptographic detail
	req.Document[len(req.Document)-1] ^= 0xff
	if _, err = repo.UpdateRequest(req); err != nil {
		t.Fatalf("UpdateRequest() failed: %v", err)
	}
	if _, _, err = svc.Document(student, req.ID); errors.Cause(err) != request.ErrNotFound {
		t.Errorf("Document() with tampered data: error = %v, want ErrNotFound", err)
	}
}

func TestService_Paginate(t *testing.T) {
	svc, repo, _ := setup(t)

	for i := 0; i < 5; i++ {
		testutil.CreateRequest(t, repo, student.ID, "Subject", request.ModeOnline)
	}

	page, err := svc.Paginate(request.QueryFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}
	if len(page.Items) != 2 || page.Total != 5 || page.Page != 1 || page.PageSize != 2 {
		t.Errorf("Paginate() page = %+v", page)
	}

	page, err = svc.Paginate(request.QueryFilter{Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("Paginate() failed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("Paginate() last page items = %d, want 1", len(page.Items))
	}
}
