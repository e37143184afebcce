package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/gautamcse27/tuition-app/apps/api/echo"
	"github.com/gautamcse27/tuition-app/core"
	"github.com/gautamcse27/tuition-app/core/access"
	"github.com/gautamcse27/tuition-app/core/crypt"
	"github.com/gautamcse27/tuition-app/core/profile"
	"github.com/gautamcse27/tuition-app/core/request"
	"github.com/gautamcse27/tuition-app/core/user"
	emailsvc "github.com/gautamcse27/tuition-app/services/email"
	inmemdb "github.com/gautamcse27/tuition-app/storage/database/inmem"
)

var (
	conf *core.Config

	usrRepo  user.Repository
	reqRepo  request.Repository
	accRepo  access.Repository
	profRepo profile.Repository

	accSvc access.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) echoapi.Server {
	conf = core.NewTestConfig()
	conf.Debug = false // keep error payloads stable

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	reqRepo = inmemdb.NewRequestRepository(db)
	accRepo = inmemdb.NewAccessRepository(db)
	profRepo = inmemdb.NewProfileRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, conf)

	cipher, err := crypt.New(conf.DocumentKey)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	reqSvc := request.NewService(reqRepo, cipher, conf)
	accSvc = access.NewService(accRepo)
	profSvc := profile.NewService(profRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	request.InitValidators(validate, translator)

	// set up server
	return echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         nopLogger{},
			UserSvc:        usrSvc,
			RequestSvc:     reqSvc,
			AccessSvc:      accSvc,
			ProfileSvc:     profSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newMultipartRequest builds a multipart/form-data request with the given
// fields and an optional file part.
func newMultipartRequest(
	t *testing.T,
	method, path, token string,
	fields map[string]string,
	fileField, fileName string,
	fileData []byte,
) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
		if _, err = io.Copy(fw, bytes.NewReader(fileData)); err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newMultipartRequest() failed: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(usr, conf)
	token, err := echoapi.GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
