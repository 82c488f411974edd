package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/retailsync/catalog-sync/internal/core/cache"
	"github.com/retailsync/catalog-sync/internal/httpapi/response"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login issues a session-backed JWT for the single operator account.
func (d *Deps) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	if req.Username != d.Admin.Username {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.Admin.PasswordHash), []byte(req.Password)); err != nil {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	token, expiresAt, err := d.JWT.GenerateToken(req.Username, d.JWTTTL)
	if err != nil {
		response.InternalError(c, "failed to issue token")
		return
	}

	now := time.Now().UTC()
	if err := d.Store.CreateSession(c.Request.Context(), cache.Session{
		Token:     token,
		Username:  req.Username,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		response.InternalError(c, "failed to create session")
		return
	}

	response.OK(c, 200, gin.H{"token": token, "expires_at": expiresAt})
}

// Logout revokes the caller's session row; the JWT itself still expires
// naturally, but Auth checks the session row so this is enough to cut
// access off immediately.
func (d *Deps) Logout(c *gin.Context) {
	token, _ := c.Get("session_token")
	if tok, ok := token.(string); ok {
		_ = d.Store.DeleteSession(c.Request.Context(), tok)
	}
	response.OK(c, 200, gin.H{"logged_out": true})
}

// Check confirms the caller's bearer token is currently valid.
func (d *Deps) Check(c *gin.Context) {
	username, _ := c.Get("username")
	response.OK(c, 200, gin.H{"username": username})
}
