package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var complianceStatuses = []interface{}{"compliant", "needs_attention", "violation", "inconclusive"}

// Scenario A: photo analysis with a category, then the admin view of the stored record.
func TestScenarioA_PhotoAnalysisVisibleToAdmin(t *testing.T) {
	app := newTestApp(t)
	photo := noisyJPEG(t)
	app.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(violationJSON, nil).Once()

	w := app.postForm("/api/v1/analyze", map[string]string{"message": "check my fence", "guidelineSlug": "fencing"}, "image", "fence.png", photo)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	submissionID, _ := body["submissionId"].(string)
	require.NotEmpty(t, submissionID)
	analysis := body["analysis"].(map[string]interface{})
	assert.Contains(t, complianceStatuses, analysis["compliance_status"])

	w = app.adminGet("/api/v1/admin/submissions/"+submissionID, app.adminToken())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	record := decode(t, w)
	photoPath, ok := record["photo_path"].(string)
	require.True(t, ok, "photo_path is set")
	assert.True(t, strings.HasSuffix(photoPath, ".jpg"), "extension comes from the detected format")
	assert.Equal(t, "fencing", record["guideline_slug"])
	assert.Equal(t, "violation", record["compliance_status"])

	// the stored image is served back with a fixed content type
	w = app.serve(httptest.NewRequest(http.MethodGet, "/api/v1/uploads/"+photoPath, nil), true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, photo, w.Body.Bytes())
}

// Scenario B: a text-only question is always inconclusive with no findings.
func TestScenarioB_TextOnlyIsInconclusive(t *testing.T) {
	app := newTestApp(t)
	app.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(violationJSON, nil).Once()

	w := app.postForm("/api/v1/analyze", map[string]string{"message": "What colors are allowed?"}, "", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	analysis := decode(t, w)["analysis"].(map[string]interface{})
	assert.Equal(t, "inconclusive", analysis["compliance_status"])
	assert.Equal(t, []interface{}{}, analysis["issues"])
}

// Scenario C: the same question twice hits the cache the second time.
func TestScenarioC_RepeatedQuestionServedFromCache(t *testing.T) {
	app := newTestApp(t)
	app.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(violationJSON, nil).Once()

	fields := map[string]string{"message": "How tall can my backyard fence be?", "guidelineSlug": "fencing"}
	first := app.postForm("/api/v1/analyze", fields, "", "", nil)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := app.postForm("/api/v1/analyze", fields, "", "", nil)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	assert.Equal(t, decode(t, first)["analysis"], decode(t, second)["analysis"])
	assert.NotEqual(t, decode(t, first)["submissionId"], decode(t, second)["submissionId"])
	app.llm.AssertNumberOfCalls(t, "Complete", 1)
}

// Scenario D: bad admin credentials and missing or garbage bearer tokens are rejected.
func TestScenarioD_AdminAuthRejected(t *testing.T) {
	app := newTestApp(t)

	w := app.postJSON("/api/v1/admin/login", map[string]string{"username": adminUser, "password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.NotContains(t, body, "token")
	assert.Equal(t, "Invalid credentials", body["error"])

	w = app.adminGet("/api/v1/admin/reports", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = app.adminGet("/api/v1/admin/reports", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["error"])
}

// Scenario E: the passcode gate.
func TestScenarioE_PasscodeGate(t *testing.T) {
	app := newTestApp(t)

	blocked := app.serve(httptest.NewRequest(http.MethodGet, "/api/v1/guidelines", nil), false)
	require.Equal(t, http.StatusFound, blocked.Code)
	assert.Equal(t, "/gate?from=%2Fapi%2Fv1%2Fguidelines", blocked.Header().Get("Location"))

	w := app.postJSON("/api/v1/gate", map[string]string{"passcode": "wrong", "from": "/api/v1/guidelines"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	w = app.postJSON("/api/v1/gate", map[string]string{"passcode": testPasscode, "from": "/api/v1/guidelines"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "/api/v1/guidelines", body["redirectTo"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "hoa_access", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Zero(t, cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/guidelines", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	w = app.serve(req, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["categories"], 19)

	// open redirects are not followed
	w = app.postJSON("/api/v1/gate", map[string]string{"passcode": testPasscode, "from": "//evil.example"}, false)
	assert.Equal(t, "/", decode(t, w)["redirectTo"])
}
