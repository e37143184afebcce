package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/gautamcse27/tuition-app/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTutor   = "tutor"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleTutor, RoleAdmin}

// Actor is the unified authenticated-actor context injected into every
// domain operation: a role tag and an identifier, never ambient session
// state.
type Actor struct {
	ID      int    `json:"id"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin,omitempty"` // elevated operator
}

func (a Actor) IsStudent() bool { return a.Role == RoleStudent }
func (a Actor) IsTutor() bool   { return a.Role == RoleTutor }
func (a Actor) IsOperator() bool {
	return a.Role == RoleAdmin
}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"` // admin accounts only
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsTutor() bool   { return u.Role == RoleTutor }
func (u User) IsOperator() bool {
	return u.Role == RoleAdmin
}

// Actor returns the authenticated-actor context for this account.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role, IsAdmin: u.IsAdmin}
}

// NewUser contains information needed to register a new Student or Tutor.
// The role is fixed by the registration endpoint, never by the caller.
type NewUser struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,phone"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, role string, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(role, nu.Email, nu.Phone, "")
}

// NewAdmin contains information needed to create an operator account.
type NewAdmin struct {
	Username        string `json:"username" validate:"required,min=6,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	IsAdmin         bool   `json:"is_admin"`
}

func (na *NewAdmin) Validate(validate *validator.Validate, svc Service) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.Email = core.CleanString(na.Email, true /* lower */)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckUniqueness(RoleAdmin, na.Email, "", na.Username)
}

// Login identifies an account by role and one of email, phone (students and
// tutors) or username (admins).
type Login struct {
	Role     string `json:"role" validate:"required,oneof=student tutor admin"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Username string `json:"username"`
	Password string `json:"password" validate:"required"`
}

func (l *Login) Validate(validate *validator.Validate) error {
	l.Role = core.CleanString(l.Role, true /* lower */)
	l.Email = core.CleanString(l.Email, true /* lower */)
	l.Phone = core.CleanString(l.Phone)
	l.Username = core.CleanString(l.Username, true /* lower */)
	return validate.Struct(l)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

// InitValidators registers this package's validators; call once at startup.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	initValidators(validate, translator)
}
