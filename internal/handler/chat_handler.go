package handler

import (
	"net/http"

	"hoa-advisor-go/internal/service"
	"hoa-advisor-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 处理会话续聊请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest 定义了续聊 API 的请求体结构。
type ChatRequest struct {
	SubmissionID string `json:"submissionId"`
	Message      string `json:"message"`
}

// Continue 在已有检查会话上追加一轮对话。
func (h *ChatHandler) Continue(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "submissionId and message are required."})
		return
	}

	reply, err := h.chatService.Continue(c.Request.Context(), req.SubmissionID, req.Message)
	if err != nil {
		respondError(c, err, "Failed to get a response. Please try again.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": reply})
}
