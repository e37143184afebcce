package request

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/gautamcse27/tuition-app/core"
)

// Modes
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Statuses. A request starts open, gets a tutor linked (assigned), collects
// a payment receipt (receipt_submitted) and ends up verified or
// receipt_rejected; a rejected receipt may be resubmitted. Deletion is
// terminal from any status.
const (
	StatusOpen             = "open"
	StatusAssigned         = "assigned"
	StatusReceiptSubmitted = "receipt_submitted"
	StatusVerified         = "verified"
	StatusReceiptRejected  = "receipt_rejected"
)

// Request represents one posted tutoring need.
type Request struct {
	ID              int         `json:"id"`
	StudentID       int         `json:"student_id"`
	TutorID         null.Int    `json:"tutor_id"`
	Subject         string      `json:"subject"`
	StudentClass    string      `json:"student_class"`
	Mode            string      `json:"mode"`
	Address         null.String `json:"address"` // set iff Mode == offline
	Description     string      `json:"description"`
	Document        []byte      `json:"-"` // encrypted at rest
	DocumentName    string      `json:"document_name,omitempty"`
	Receipt         []byte      `json:"-"` // encrypted at rest
	ReceiptName     string      `json:"receipt_name,omitempty"`
	Status          string      `json:"status"`
	Approved        bool        `json:"approved"`
	PaymentVerified bool        `json:"payment_verified"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
}

func (r Request) HasDocument() bool { return len(r.Document) > 0 }
func (r Request) HasReceipt() bool  { return len(r.Receipt) > 0 }

// IsAssignedTo reports whether the given tutor is the request's assigned tutor.
func (r Request) IsAssignedTo(tutorID int) bool {
	return r.TutorID.Valid && r.TutorID.Int == tutorID
}

// NewRequest contains information needed to post a tuition request.
// Document carries the raw uploaded PDF; it is encrypted before persistence.
type NewRequest struct {
	Subject      string `json:"subject" validate:"required,max=120"`
	StudentClass string `json:"student_class" validate:"required,max=50"`
	Mode         string `json:"mode" validate:"required,oneof=online offline"`
	Address      string `json:"address" validate:"omitempty,max=255"`
	Description  string `json:"description" validate:"required,max=300"`
	Document     []byte `json:"document,omitempty"`
	DocumentName string `json:"document_name,omitempty"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Subject = core.CleanString(nr.Subject)
	nr.StudentClass = core.CleanString(nr.StudentClass)
	nr.Mode = core.CleanString(nr.Mode, true /* lower */)
	nr.Address = core.CleanString(nr.Address)
	nr.Description = core.CleanString(nr.Description)
	if nr.Mode == ModeOnline {
		// address only makes sense for in-person tuition
		nr.Address = ""
	}
	return validate.Struct(nr)
}

// QueryFilter narrows request listings. Zero-valued fields are ignored.
type QueryFilter struct {
	StudentID int `query:"-"`
	TutorID   int `query:"-"`
	// PendingVerification selects requests with a receipt awaiting admin
	// verification.
	PendingVerification bool  `query:"-"`
	Approved            *bool `query:"approved"`
	Page                int   `query:"page"`
	PageSize            int   `query:"-"`
}

// Page of requests with pagination info.
type Page struct {
	Items    []Request `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// InitValidators registers this package's validators; call once at startup.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(newRequestStructValidation, NewRequest{})
	core.RegisterCustomTranslation(validate, translator, addressRequiredTag, addressRequiredText)
}

var (
	addressRequiredTag  = "address_required"
	addressRequiredText = "address is required for offline tuition"
)

// newRequestStructValidation enforces: address set iff mode == offline.
func newRequestStructValidation(sl validator.StructLevel) {
	nr := sl.Current().Interface().(NewRequest)
	if nr.Mode == ModeOffline && nr.Address == "" {
		sl.ReportError(nr.Address, "address", "Address", addressRequiredTag, "")
	}
}
