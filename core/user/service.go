package user

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/gautamcse27/tuition-app/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrPhoneExists    = errors.New("a user with this phone number already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CheckUniqueness reports ErrEmailExists, ErrPhoneExists or
		// ErrUsernameExists when another account of the same role already
		// holds one of the given identifiers.
		CheckUniqueness(role, email, phone, username string, excludedUsers ...User) error
		CreateUser(usr User) (User, error)
		GetUserByID(id int) (User, error)
		GetUserByEmail(role, email string) (User, error)
		GetUserByPhone(role, phone string) (User, error)
		GetUserByUsername(username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// User.Name, User.Email or User.Phone.
		FilterUsers(filter QueryFilter) ([]User, error)
		UpdateUser(usr User, isActive *bool) (User, error)
		// DeleteUser removes the account and everything it owns: its tuition
		// requests and any access grants referencing it.
		DeleteUser(id int) error
	}

	Service interface {
		CheckUniqueness(role, email, phone, username string, excludedUsers ...User) error
		RegisterStudent(nu NewUser) (User, error)
		RegisterTutor(nu NewUser) (User, error)
		CreateAdmin(na NewAdmin) (User, error)
		Authenticate(l Login) (User, error)
		SetLastLogin(usr User) (User, error)
		GetByID(id int) (User, error)
		GetByEmail(role, email string) (User, error)
		Filter(filter QueryFilter) ([]User, error)
		SetActive(id int, active bool) (User, error)
		Delete(id int) error
		RequestPasswordReset(role, email string) error
		ResetPassword(rp ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(role, email, phone, username string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(role, email, phone, username, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrEmailExists:
			field = "email"
		case ErrPhoneExists:
			field = "phone"
		case ErrUsernameExists:
			field = "username"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) register(nu NewUser, role string) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

func (svc *service) RegisterStudent(nu NewUser) (User, error) {
	return svc.register(nu, RoleStudent)
}

func (svc *service) RegisterTutor(nu NewUser) (User, error) {
	return svc.register(nu, RoleTutor)
}

func (svc *service) CreateAdmin(na NewAdmin) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      na.Username,
		Username:  na.Username,
		Email:     na.Email,
		Role:      RoleAdmin,
		IsAdmin:   na.IsAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(na.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

// Authenticate finds the account matching the Login identifier and checks
// its password. Disabled accounts are excluded from authentication.
func (svc *service) Authenticate(l Login) (User, error) {
	var usr User
	var err error
	switch {
	case l.Username != "":
		usr, err = svc.repo.GetUserByUsername(l.Username)
	case l.Email != "":
		usr, err = svc.repo.GetUserByEmail(l.Role, l.Email)
	default:
		usr, err = svc.repo.GetUserByPhone(l.Role, l.Phone)
	}
	if err != nil {
		return User{}, err
	}
	if usr.Role != l.Role {
		return User{}, ErrNotFound
	}
	if err = usr.CheckPassword(l.Password); err != nil {
		return User{}, ErrNotFound
	}
	if !usr.IsActive {
		return User{}, core.ErrPermissionDenied
	}
	return usr, nil
}

func (svc *service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(usr, nil)
}

func (svc *service) GetByID(id int) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *service) GetByEmail(role, email string) (User, error) {
	return svc.repo.GetUserByEmail(role, core.CleanString(email, true /* lower */))
}

func (svc *service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(filter)
}

// SetActive soft-enables or -disables an account. The account and everything
// attached to it is kept; it is only excluded from future authentication.
func (svc *service) SetActive(id int, active bool) (User, error) {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(usr, &active)
}

func (svc *service) Delete(id int) error {
	return svc.repo.DeleteUser(id)
}

func (svc *service) RequestPasswordReset(role, email string) error {
	usr, err := svc.GetByEmail(role, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr, svc.conf)
	if err != nil {
		return
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nYou requested a password reset. Follow the link below to set a new password:\n\n"+
			"%s/password-reset-confirm?uid=%s&token=%s\n\n"+
			"If you did not request this, you can safely ignore this email.",
		usr.Name, svc.conf.FrontendBaseURL, EncodeUID(usr), token,
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Password Reset",
		BodyStr: body,
	})
}

func (svc *service) ResetPassword(rp ResetUserPassword) error {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return ErrNotFound
	}
	usr, err := svc.repo.GetUserByID(uid)
	if err != nil {
		return err
	}
	if err = verifyToken(usr, rp.Token, svc.conf); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(usr, nil)
	return errors.Wrap(err, "updating user password")
}
