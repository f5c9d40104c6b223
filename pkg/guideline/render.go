package guideline

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxItemDepth     = 3
	maxHeadingWords  = 8
	maxHeadingLength = 80
)

// 编号的每一段都必须以点结尾（"1." / "1.2." / "1.2.3."），"1.5 inches" 这类正文不算编号。
var numberedLine = regexp.MustCompile(`^((?:\d+\.)+)\s+(\S.*)$`)

var numberSegment = regexp.MustCompile(`\d+`)

// RenderHTML 是逐行的启发式格式化器：
// 空行分段；带编号前缀的行渲染为缩进条目，深度为编号段数（上限 3）；
// 短、无逗号、非数字开头、不以句号结尾的行视为标题；其余行以单个空格拼接成段落。
// 没有逗号的短陈述句会被误判为标题，这是已知的取舍。
func RenderHTML(text string) string {
	var out strings.Builder
	var para []string

	flush := func() {
		if len(para) == 0 {
			return
		}
		out.WriteString("<p>")
		out.WriteString(html.EscapeString(strings.Join(para, " ")))
		out.WriteString("</p>\n")
		para = para[:0]
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}

		if m := numberedLine.FindStringSubmatch(line); m != nil {
			flush()
			depth := len(numberSegment.FindAllString(m[1], -1))
			if depth > maxItemDepth {
				depth = maxItemDepth
			}
			fmt.Fprintf(&out, "<div class=\"guideline-item depth-%d\"><span class=\"guideline-num\">%s</span> %s</div>\n",
				depth, html.EscapeString(m[1]), html.EscapeString(m[2]))
			continue
		}

		if isHeading(line) {
			flush()
			out.WriteString("<h3 class=\"guideline-heading\">")
			out.WriteString(html.EscapeString(line))
			out.WriteString("</h3>\n")
			continue
		}

		para = append(para, line)
	}
	flush()
	return out.String()
}

func isHeading(line string) bool {
	if len(line) > maxHeadingLength {
		return false
	}
	if strings.Contains(line, ",") || strings.HasSuffix(line, ".") {
		return false
	}
	first := []rune(line)[0]
	if unicode.IsDigit(first) {
		return false
	}
	if len(strings.Fields(line)) > maxHeadingWords {
		return false
	}
	return strings.IndexFunc(line, unicode.IsLetter) >= 0
}
