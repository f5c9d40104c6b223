package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// GateToken 由共享密钥与口令推导出确定性的访问令牌：hex(HMAC-SHA256(key=secret, msg=passcode))。
type GateToken struct {
	secret   []byte
	passcode string
}

// NewGateToken 创建一个新的 GateToken 实例。
func NewGateToken(secret, passcode string) *GateToken {
	return &GateToken{secret: []byte(secret), passcode: passcode}
}

// Compute 返回给定口令对应的令牌。
func (g *GateToken) Compute(passcode string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(passcode))
	return hex.EncodeToString(mac.Sum(nil))
}

// Expected 返回当前配置口令对应的令牌，每次调用都重新计算。
func (g *GateToken) Expected() string {
	return g.Compute(g.passcode)
}

// CheckPasscode 以常量时间比较口令。空口令永远不通过。
func (g *GateToken) CheckPasscode(passcode string) bool {
	if passcode == "" || g.passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(passcode), []byte(g.passcode)) == 1
}

// Valid 以常量时间比较 cookie 中的令牌与期望值。
func (g *GateToken) Valid(cookieValue string) bool {
	if cookieValue == "" {
		return false
	}
	return hmac.Equal([]byte(cookieValue), []byte(g.Expected()))
}
