package handler

import (
	"context"
	"net/http"

	"auction-house/internal/models"
	"auction-house/internal/users"
	"auction-house/services/bidding/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type UserServiceInterface interface {
	Register(ctx context.Context, username, email string, role models.Role) (users.Account, error)
	GetUser(ctx context.Context, userID string) (users.Account, error)
}

type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterHandler handles POST /users
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	acc, err := h.service.Register(c.Request.Context(), req.Username, req.Email, models.Role(req.Role))
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, acc, "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{
		"user_id": acc.User.UserID,
		"role":    string(acc.Profile.Role),
	})
}

// GetUserHandler handles GET /users/:user_id
func (h *UserHandler) GetUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	acc, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "GetUserHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, acc, "user retrieved successfully")
	helpers.LogSuccess("GetUserHandler", "user retrieved successfully", map[string]any{"user_id": userID})
}
