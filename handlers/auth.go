package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trading-journal/auth"
	"trading-journal/service"
)

type AuthInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshInput struct {
	Refresh string `json:"refresh" binding:"required"`
}

type Accounts struct {
	Users  *service.Users
	Issuer *auth.Issuer
	Logger *zap.Logger
}

func (h *Accounts) Register(g *gin.RouterGroup) {
	g.POST("/user/register/", h.Signup)
	g.POST("/token/", h.Login)
	g.POST("/token/refresh/", h.Refresh)
	g.POST("/token/revoke/", h.Logout)
}

func (h *Accounts) Signup(c *gin.Context) {
	var input AuthInput
	if err := readJSON(c, &input); err != nil {
		writeError(c, h.Logger, "signup", err)
		return
	}
	user, err := h.Users.Register(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		writeError(c, h.Logger, "signup", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func (h *Accounts) Login(c *gin.Context) {
	var input AuthInput
	if err := readJSON(c, &input); err != nil {
		writeError(c, h.Logger, "login", err)
		return
	}
	user, err := h.Users.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		writeError(c, h.Logger, "login", err)
		return
	}
	pair, err := h.Issuer.Issue(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.Logger, "login", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Accounts) Refresh(c *gin.Context) {
	var input RefreshInput
	if err := readJSON(c, &input); err != nil {
		writeError(c, h.Logger, "refresh", err)
		return
	}
	access, err := h.Issuer.RefreshAccess(c.Request.Context(), input.Refresh)
	if err != nil {
		writeError(c, h.Logger, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// Logout revokes a refresh token so it can no longer mint access tokens.
func (h *Accounts) Logout(c *gin.Context) {
	var input RefreshInput
	if err := readJSON(c, &input); err != nil {
		writeError(c, h.Logger, "logout", err)
		return
	}
	if err := h.Issuer.Revoke(c.Request.Context(), input.Refresh); err != nil {
		writeError(c, h.Logger, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func readJSON(c *gin.Context, into any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return err
	}
	return decode(raw, into)
}
