package admin

import (
	"github.com/commerce-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// loginRequest 登录请求体
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 管理员登录
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
	})
}
