package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Analysis 是模型必须返回的结构化结果。
type Analysis struct {
	ComplianceStatus ComplianceStatus `json:"compliance_status" validate:"oneof=compliant needs_attention violation inconclusive"`
	Summary          string           `json:"summary"`
	Issues           []Finding        `json:"issues" validate:"dive"`
	Recommendations  []string         `json:"recommendations"`
	NotAssessed      []string         `json:"not_assessed"`
	Message          string           `json:"message"`
}

// ParseError 表示模型输出无法解析为 Analysis，Reason 仅用于日志。
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "malformed model output: " + e.Reason
}

var requiredAnalysisFields = []string{
	"compliance_status", "summary", "issues", "recommendations", "not_assessed", "message",
}

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```\\s*$")
	validate   = validator.New()
)

// StripCodeFences 去掉模型输出外层的 markdown 代码块标记。
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseAnalysis 严格解析模型输出：缺少任一字段、字段类型不符、枚举值非法或包含多余内容都会返回 *ParseError。
func ParseAnalysis(raw string) (*Analysis, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, &ParseError{Reason: "empty output"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, &ParseError{Reason: "not a JSON object: " + err.Error()}
	}
	for _, name := range requiredAnalysisFields {
		v, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, &ParseError{Reason: "missing field " + name}
		}
	}

	var a Analysis
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&a); err != nil {
		return nil, &ParseError{Reason: "field type mismatch: " + err.Error()}
	}
	if err := validate.Struct(&a); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid value: %v", err)}
	}
	a.normalize()
	return &a, nil
}

// normalize 保证列表字段序列化为 [] 而不是 null。
func (a *Analysis) normalize() {
	if a.Issues == nil {
		a.Issues = []Finding{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.NotAssessed == nil {
		a.NotAssessed = []string{}
	}
}

// AsTextOnly 返回没有照片时的结果：状态强制为 inconclusive，清空判定列表。
func (a Analysis) AsTextOnly() Analysis {
	a.ComplianceStatus = StatusInconclusive
	a.Issues = []Finding{}
	a.normalize()
	return a
}
