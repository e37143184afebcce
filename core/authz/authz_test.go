package authz_test

import (
	"testing"

	"github.com/volatiletech/null/v8"

	"github.com/gautamcse27/tuition-app/core/authz"
	"github.com/gautamcse27/tuition-app/core/request"
	"github.com/gautamcse27/tuition-app/core/user"
)

var (
	student = user.Actor{ID: 1, Role: user.RoleStudent}
	tutor   = user.Actor{ID: 2, Role: user.RoleTutor}
	plain   = user.Actor{ID: 3, Role: user.RoleAdmin}
	super   = user.Actor{ID: 4, Role: user.RoleAdmin, IsAdmin: true}
)

func TestCanManage(t *testing.T) {
	tests := []struct {
		name  string
		actor user.Actor
		want  bool
	}{
		{"student", student, false},
		{"tutor", tutor, false},
		{"plain admin", plain, false},
		{"elevated admin", super, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanManage(tt.actor); got != tt.want {
				t.Errorf("CanManage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanViewUnmasked(t *testing.T) {
	tests := []struct {
		name    string
		actor   user.Actor
		granted bool
		want    bool
	}{
		{"ungranted tutor", tutor, false, false},
		{"granted tutor", tutor, true, true},
		{"student never", student, true, false},
		{"operator always", plain, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanViewUnmasked(tt.actor, tt.granted); got != tt.want {
				t.Errorf("CanViewUnmasked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanModifyRequest(t *testing.T) {
	owned := request.Request{ID: 1, StudentID: student.ID, TutorID: null.IntFrom(tutor.ID)}
	foreign := request.Request{ID: 2, StudentID: 99}

	tests := []struct {
		name  string
		actor user.Actor
		req   request.Request
		want  bool
	}{
		{"owning student", student, owned, true},
		{"other student's request", student, foreign, false},
		{"assigned tutor", tutor, owned, true},
		{"unassigned tutor", tutor, foreign, false},
		{"operator", plain, foreign, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.CanModifyRequest(tt.actor, tt.req); got != tt.want {
				t.Errorf("CanModifyRequest() = %v, want %v", got, tt.want)
			}
			if got := authz.CanViewDocument(tt.actor, tt.req); got != tt.want {
				t.Errorf("CanViewDocument() = %v, want %v", got, tt.want)
			}
		})
	}
}
