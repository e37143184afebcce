package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gautamcse27/tuition-app/core/access"
	"github.com/gautamcse27/tuition-app/core/user"
	testutil "github.com/gautamcse27/tuition-app/tests"
)

func TestAccessAPI(t *testing.T) {
	server := setup(t)

	stu := testutil.CreateUser(t, usrRepo, "Asha", "asha@test.cd", "+243970000001", user.RoleStudent, "", true)
	tut := testutil.CreateUser(t, usrRepo, "Biko", "biko@test.cd", "+243970000002", user.RoleTutor, "", true)
	plain := testutil.CreateAdmin(t, usrRepo, "helpdesk", "helpdesk@test.cd", "", false)
	super := testutil.CreateAdmin(t, usrRepo, "root", "root@test.cd", "", true)

	pair := []byte(fmt.Sprintf(`{"tutor_id":%d,"student_id":%d}`, tut.ID, stu.ID))

	tests := []httpTest{
		{
			name:     "granting is manager-only",
			method:   http.MethodPost,
			path:     "/v1/access",
			token:    getToken(t, plain),
			body:     pair,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "tutors may not list grants",
			method:   http.MethodGet,
			path:     "/v1/access",
			token:    getToken(t, tut),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "both sides of the pair are checked",
			method:   http.MethodPost,
			path:     "/v1/access",
			token:    getToken(t, super),
			body:     []byte(fmt.Sprintf(`{"tutor_id":%d,"student_id":%d}`, stu.ID, tut.ID)),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"tutor_id": "not a tutor"}),
		},
		{
			name:     "grant",
			method:   http.MethodPost,
			path:     "/v1/access",
			token:    getToken(t, super),
			body:     pair,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "admins list grants",
			method:   http.MethodGet,
			path:     "/v1/access",
			token:    getToken(t, plain),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []access.Grant{{TutorID: tut.ID, StudentID: stu.ID}}),
		},
		{
			name:     "revoke",
			method:   http.MethodDelete,
			path:     "/v1/access",
			token:    getToken(t, super),
			body:     pair,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "listing after revoke is empty",
			method:   http.MethodGet,
			path:     "/v1/access",
			token:    getToken(t, plain),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []access.Grant{}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
