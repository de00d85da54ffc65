package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegocio/backend/internal/domain/identity"
)

// HTTPTestCase drives one handler call. Actor and Params are applied before
// Setup, so Setup can still override them.
type HTTPTestCase struct {
	Name    string
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	Actor   *identity.Actor
	Params  map[string]string

	ExpectedStatus int
	// ExpectedCode is the error code of a failure envelope
	ExpectedCode string

	Setup    func(t *testing.T, tc *TestContext)
	Validate func(t *testing.T, tc *TestContext)
}

func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

func RunHTTPTestCase(t *testing.T, handler gin.HandlerFunc, tc HTTPTestCase) {
	t.Helper()

	var body io.Reader
	if tc.Body != nil {
		raw, err := json.Marshal(tc.Body)
		require.NoError(t, err, "marshal request body")
		body = bytes.NewReader(raw)
	}

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	path := tc.Path
	if path == "" {
		path = "/"
	}
	req := httptest.NewRequest(method, path, body)
	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tc.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	testCtx := &TestContext{Context: c, Recorder: w}

	if tc.Actor != nil {
		testCtx.SetActor(*tc.Actor)
	}
	for k, v := range tc.Params {
		testCtx.SetParam(k, v)
	}
	if tc.Setup != nil {
		tc.Setup(t, testCtx)
	}

	handler(c)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "status code")
	}
	if tc.ExpectedCode != "" {
		AssertErrorResponse(t, testCtx, tc.ExpectedCode)
	}
	if tc.Validate != nil {
		tc.Validate(t, testCtx)
	}
}

// JSONResponse parses the response body as a JSON object
func JSONResponse(t *testing.T, tc *TestContext) map[string]any {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &result), "parse JSON response")
	return result
}

// ResponseData returns the data member of a success envelope
func ResponseData(t *testing.T, tc *TestContext) map[string]any {
	t.Helper()
	data, ok := JSONResponse(t, tc)["data"].(map[string]any)
	require.True(t, ok, "expected data object in response")
	return data
}

// ErrorDetails returns error.details of a failure envelope, such as the
// field map of a validation error or available_stock of a stock rejection
func ErrorDetails(t *testing.T, tc *TestContext) map[string]any {
	t.Helper()
	errMap, ok := JSONResponse(t, tc)["error"].(map[string]any)
	require.True(t, ok, "expected error object in response")
	details, ok := errMap["details"].(map[string]any)
	require.True(t, ok, "expected error details in response")
	return details
}

func AssertSuccessResponse(t *testing.T, tc *TestContext) {
	t.Helper()
	resp := JSONResponse(t, tc)
	assert.Equal(t, true, resp["success"], "success flag")
	assert.Nil(t, resp["error"])
}

func AssertErrorResponse(t *testing.T, tc *TestContext, expectedCode string) {
	t.Helper()
	resp := JSONResponse(t, tc)
	assert.Equal(t, false, resp["success"], "success flag")

	errMap, ok := resp["error"].(map[string]any)
	require.True(t, ok, "expected error object in response")
	assert.Equal(t, expectedCode, errMap["code"], "error code")
}
