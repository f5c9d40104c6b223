package model

import "time"

// DisplayTimeFormat 是导出报表中使用的时间格式。
const DisplayTimeFormat = "2006-01-02 15:04:05"

// FormatTime 将时间格式化为 "YYYY-MM-DD HH:MM:SS"，零值返回空字符串。
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayTimeFormat)
}

// Deref 返回字符串指针的值，nil 返回空字符串。
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr 返回 s 的指针，空字符串返回 nil。
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
