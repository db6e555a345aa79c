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
)

// HTTPTestCase drives one handler call. Method defaults to GET and Body,
// when set, is sent as JSON.
type HTTPTestCase struct {
	Name           string
	Method         string
	Body           interface{}
	ExpectedStatus int
	Setup          func(t *testing.T, tc *TestContext)
	Validate       func(t *testing.T, tc *TestContext)
}

// RunHTTPTestCases calls handler once per case, each in its own subtest.
func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()

	for _, hc := range cases {
		t.Run(hc.Name, func(t *testing.T) {
			tc := newCaseContext(t, hc)
			if hc.Setup != nil {
				hc.Setup(t, tc)
			}

			handler(tc.Context)

			if hc.ExpectedStatus != 0 {
				assert.Equal(t, hc.ExpectedStatus, tc.ResponseCode(), "response: %s", tc.ResponseBody())
			}
			if hc.Validate != nil {
				hc.Validate(t, tc)
			}
		})
	}
}

func newCaseContext(t *testing.T, hc HTTPTestCase) *TestContext {
	method := hc.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if hc.Body != nil {
		raw, err := json.Marshal(hc.Body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", body)
	if hc.Body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// JSONResponse decodes the recorded body as a generic JSON object.
func JSONResponse(t *testing.T, tc *TestContext) map[string]interface{} {
	t.Helper()
	return JSONResponseAs[map[string]interface{}](t, tc)
}

// JSONResponseAs decodes the recorded body into T.
func JSONResponseAs[T any](t *testing.T, tc *TestContext) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &out), "body: %s", tc.ResponseBody())
	return out
}

func AssertSuccessResponse(t *testing.T, tc *TestContext) {
	t.Helper()

	resp := JSONResponse(t, tc)
	assert.Equal(t, true, resp["success"])
	assert.Nil(t, resp["error"])
}

// AssertErrorResponse checks the envelope reports failure with the given error code.
func AssertErrorResponse(t *testing.T, tc *TestContext, code string) {
	t.Helper()

	resp := JSONResponse(t, tc)
	assert.Equal(t, false, resp["success"])
	errBody, ok := resp["error"].(map[string]interface{})
	require.True(t, ok, "missing error object: %s", tc.ResponseBody())
	assert.Equal(t, code, errBody["code"])
}
