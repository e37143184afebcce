package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gautamcse27/tuition-app/core/profile"
	"github.com/gautamcse27/tuition-app/core/user"
	testutil "github.com/gautamcse27/tuition-app/tests"
)

func TestProfileAPI(t *testing.T) {
	server := setup(t)

	stu := testutil.CreateUser(t, usrRepo, "Asha", "asha@test.cd", "+243970000001", user.RoleStudent, "", true)
	tut := testutil.CreateUser(t, usrRepo, "Biko", "biko@test.cd", "+243970000002", user.RoleTutor, "", true)

	stuToken := getToken(t, stu)
	tutToken := getToken(t, tut)

	form := []byte(`{"subjects":["Mathematics","Physics"],"mode":"both","skill":"expert",` +
		`"methodology":"practice first, theory after"}`)

	t.Run("students may not edit a profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", stuToken, form)
		server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("missing profile is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/profile", tutToken)
		server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("incomplete form is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", tutToken,
			[]byte(`{"subjects":[],"mode":"both","skill":"expert","methodology":"x"}`))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("upsert code = %d, want 400", rec.Code)
		}
	})

	var saved profile.Profile
	t.Run("tutor saves their profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", tutToken, form)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("upsert code = %d, body = %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
			t.Fatalf("unmarshalling profile: %v", err)
		}
		if saved.TutorID != tut.ID || len(saved.Subjects) != 2 {
			t.Errorf("saved profile = %+v", saved)
		}
	})

	t.Run("tutor reads their own profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/profile", tutToken)
		server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, saved)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("students read a tutor's profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/tutors/%d/profile", tut.ID), stuToken)
		server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, saved)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown tutor is a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/tutors/999/profile", stuToken)
		server.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound}
		checkCodeAndData(t, tt, rec)
	})
}
