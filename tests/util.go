package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/gautamcse27/tuition-app/core/request"
	"github.com/gautamcse27/tuition-app/core/user"
)

// RandomEmail returns a unique address for fixtures.
func RandomEmail() string {
	return uuid.New().String()[:8] + "@test.cd"
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, phone, role, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Phone:     phone,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAdmin(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd string,
	super bool,
) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      user.RoleAdmin,
		IsAdmin:   super,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateAdmin() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return usr
}

func CreateRequest(
	t *testing.T,
	repo request.Repository,
	studentID int,
	subject, mode string,
	createdAt ...time.Time,
) request.Request {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	req := request.Request{
		StudentID:    studentID,
		Subject:      subject,
		StudentClass: "10",
		Mode:         mode,
		Description:  "need help with " + subject,
		Status:       request.StatusOpen,
		CreatedAt:    tstamp,
	}
	if mode == request.ModeOffline {
		req.Address = null.StringFrom("12 Main Street")
	}
	req, err := repo.CreateRequest(req)
	if err != nil {
		t.Fatalf("CreateRequest() failed: %v", err)
	}
	return req
}
