package model_test

import (
	"errors"
	"testing"

	"hoa-advisor-go/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAnalysis = `{
  "compliance_status": "needs_attention",
  "summary": "The fence looks taller than allowed.",
  "issues": [{"element": "Rear fence", "status": "needs_attention", "detail": "Appears over 6 feet."}],
  "recommendations": ["Measure the fence height."],
  "not_assessed": ["Roof"],
  "message": "Thanks for checking in!"
}`

func TestParseAnalysis_Valid(t *testing.T) {
	a, err := model.ParseAnalysis(validAnalysis)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNeedsAttention, a.ComplianceStatus)
	require.Len(t, a.Issues, 1)
	assert.Equal(t, "Rear fence", a.Issues[0].Element)
	assert.Equal(t, "Thanks for checking in!", a.Message)
}

func TestParseAnalysis_StripsCodeFences(t *testing.T) {
	for _, wrapped := range []string{
		"```json\n" + validAnalysis + "\n```",
		"```JSON " + validAnalysis + "```",
		"```\n" + validAnalysis + "\n```\n",
		"  " + validAnalysis + "  ",
	} {
		a, err := model.ParseAnalysis(wrapped)
		require.NoError(t, err)
		assert.Equal(t, model.StatusNeedsAttention, a.ComplianceStatus)
	}
}

func TestParseAnalysis_FailsClosed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"prose":            "Your fence looks fine!",
		"array":            `[1,2,3]`,
		"missing message":  `{"compliance_status":"compliant","summary":"s","issues":[],"recommendations":[],"not_assessed":[]}`,
		"null issues":      `{"compliance_status":"compliant","summary":"s","issues":null,"recommendations":[],"not_assessed":[],"message":"m"}`,
		"bad status":       `{"compliance_status":"great","summary":"s","issues":[],"recommendations":[],"not_assessed":[],"message":"m"}`,
		"pending status":   `{"compliance_status":"pending","summary":"s","issues":[],"recommendations":[],"not_assessed":[],"message":"m"}`,
		"wrong type":       `{"compliance_status":"compliant","summary":5,"issues":[],"recommendations":[],"not_assessed":[],"message":"m"}`,
		"bad issue status": `{"compliance_status":"violation","summary":"s","issues":[{"element":"Fence","status":"bad","detail":"d"}],"recommendations":[],"not_assessed":[],"message":"m"}`,
		"issue no element": `{"compliance_status":"violation","summary":"s","issues":[{"status":"violation","detail":"d"}],"recommendations":[],"not_assessed":[],"message":"m"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			a, err := model.ParseAnalysis(raw)
			assert.Nil(t, a)
			var perr *model.ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %v", err)
			assert.NotEmpty(t, perr.Reason)
		})
	}
}

func TestAnalysis_AsTextOnly(t *testing.T) {
	a, err := model.ParseAnalysis(validAnalysis)
	require.NoError(t, err)

	text := a.AsTextOnly()
	assert.Equal(t, model.StatusInconclusive, text.ComplianceStatus)
	assert.NotNil(t, text.Issues)
	assert.Empty(t, text.Issues)
	assert.Equal(t, a.Summary, text.Summary)
	// the original is untouched
	assert.Len(t, a.Issues, 1)
}

func TestSubmissionBeforeCreate_GeneratesUUID(t *testing.T) {
	s := &model.Submission{}
	require.NoError(t, s.BeforeCreate(nil))
	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, s.ComplianceStatus)

	existing := uuid.NewString()
	s = &model.Submission{ID: existing, ComplianceStatus: model.StatusCompliant}
	require.NoError(t, s.BeforeCreate(nil))
	assert.Equal(t, existing, s.ID)
	assert.Equal(t, model.StatusCompliant, s.ComplianceStatus)
}

func TestReportStatus_Valid(t *testing.T) {
	assert.True(t, model.ReportInvestigating.Valid())
	assert.False(t, model.ReportStatus("closed").Valid())

	r := &model.ViolationReport{}
	require.NoError(t, r.BeforeCreate(nil))
	assert.Equal(t, model.ReportPending, r.Status)
	assert.NotEmpty(t, r.ID)
}
