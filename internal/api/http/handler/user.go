package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/service"
)

type registerRequest struct {
	Password string `json:"password"`
	Email    string `json:"email"`
}

// User serves account registration.
type User struct {
	service *service.Users
	logger  *logger.Logger
}

// NewUser creates a new user handler.
func NewUser(service *service.Users, logger *logger.Logger) *User {
	return &User{service: service, logger: logger}
}

// Register handles PUT /user/1.0/:username and answers with the username.
func (h *User) Register(c *gin.Context) {
	var req registerRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		handleError(c, h.logger, apierror.NewErrInvalidJSON())
		return
	}

	username := c.Param("username")
	if _, err := h.service.Register(c.Request.Context(), username, req.Password, req.Email); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, username)
}
