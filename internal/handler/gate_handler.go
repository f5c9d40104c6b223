package handler

import (
	"net/http"
	"strings"

	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// GateHandler 处理访问口令的校验与口令页。
type GateHandler struct {
	gate         *token.GateToken
	cookieName   string
	cookieSecure bool
}

// NewGateHandler 创建一个新的 GateHandler 实例。
func NewGateHandler(gate *token.GateToken, cookieName string, cookieSecure bool) *GateHandler {
	return &GateHandler{gate: gate, cookieName: cookieName, cookieSecure: cookieSecure}
}

// GateRequest 定义了口令校验 API 的请求体结构。
type GateRequest struct {
	Passcode string `json:"passcode"`
	From     string `json:"from"`
}

// Submit 校验口令。通过后写入访问 cookie（会话级，HttpOnly，SameSite=Lax）。
func (h *GateHandler) Submit(c *gin.Context) {
	var req GateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Gate: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request."})
		return
	}
	if !h.gate.CheckPasscode(req.Passcode) {
		log.Warnf("Gate: 口令错误, clientIP=%s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect passcode."})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, h.gate.Expected(), 0, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"ok": true, "redirectTo": SafeRedirectTarget(req.From)})
}

// SafeRedirectTarget 只接受站内绝对路径，拒绝协议相对地址。
func SafeRedirectTarget(from string) string {
	if strings.HasPrefix(from, "/") && !strings.HasPrefix(from, "//") && !strings.Contains(from, "\\") {
		return from
	}
	return "/"
}

// Page 返回口令输入页。
func (h *GateHandler) Page(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(gatePage))
}

const gatePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Community Access</title>
<style>
body{font-family:system-ui,sans-serif;background:#f5f5f4;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0}
form{background:#fff;padding:2rem;border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.1);width:18rem}
input,button{width:100%;box-sizing:border-box;padding:.6rem;margin-top:.75rem;font-size:1rem}
#err{color:#b91c1c;min-height:1.2em;margin-top:.5rem}
</style>
</head>
<body>
<form id="gate">
<h1>Residents only</h1>
<p>Enter the community passcode to continue.</p>
<input id="passcode" type="password" autocomplete="current-password" required>
<button type="submit">Continue</button>
<div id="err"></div>
</form>
<script>
document.getElementById('gate').addEventListener('submit', async function (e) {
  e.preventDefault();
  var from = new URLSearchParams(location.search).get('from') || '/';
  var res = await fetch('/api/v1/gate', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({passcode: document.getElementById('passcode').value, from: from})
  });
  var body = await res.json();
  if (res.ok) { location.href = body.redirectTo; } else { document.getElementById('err').textContent = body.error; }
});
</script>
</body>
</html>
`
