package handler

import (
	"time"

	"github.com/bitfantasy/compras/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	sessions  *service.SessionService
	purchases *service.PurchaseService
}

func NewAuthHandler(sessions *service.SessionService, purchases *service.PurchaseService) *AuthHandler {
	return &AuthHandler{sessions: sessions, purchases: purchases}
}

// Logout 注销会话：吊销令牌并清空聚合缓存
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := c.GetString("jti")
	if jti != "" && h.sessions != nil {
		ttl := time.Hour
		if exp, ok := c.Get("token_expires"); ok {
			if numeric, ok := exp.(*jwt.NumericDate); ok && numeric != nil {
				ttl = time.Until(numeric.Time)
			}
		}
		if err := h.sessions.Revoke(c.Request.Context(), jti, ttl); err != nil {
			respondError(c, err)
			return
		}
	}
	h.purchases.ClearQuantityCache()
	respondOK(c, nil)
}

// Me 返回当前登录用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	respondOK(c, gin.H{
		"user_id": c.GetString("user_id"),
		"name":    c.GetString("user_name"),
		"email":   c.GetString("user_email"),
	})
}
