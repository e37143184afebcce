package user

import (
	"github.com/gautamcse27/tuition-app/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose password-reset mail is sent
// synchronously so tests can assert on it.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			conf:    conf,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(role, email string) error {
	usr, err := svc.GetByEmail(role, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
