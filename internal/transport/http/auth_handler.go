package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-cricket-service/internal/auth"
	"quiz-cricket-service/internal/domain"
)

// AuthHandler serves the token endpoints gating tournament stages.
type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: svc}
}

func (h *AuthHandler) Register(r gin.IRouter) {
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/code", h.Redeem)
	r.POST("/api/auth/guest", h.Guest)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required fields: username, password",
		})
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if errors.Is(err, domain.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Invalid username or password",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": token,
			"stage": domain.StageFinals,
		},
	})
}

func (h *AuthHandler) Redeem(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Missing required field: code",
		})
		return
	}

	token, stage, err := h.auth.Redeem(req.Code)
	if errors.Is(err, domain.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Invalid access code",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": token,
			"stage": stage,
		},
	})
}

func (h *AuthHandler) Guest(c *gin.Context) {
	token, err := h.auth.Guest()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": token,
			"stage": domain.StageGroup,
		},
	})
}
