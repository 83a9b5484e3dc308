package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"alcyxob/gym-admin/internal/domain"
	"alcyxob/gym-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// TrainerResponse excludes sensitive info like password hash
type TrainerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Trainer TrainerResponse `json:"trainer"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new trainer account
// @Tags Auth
// @Accept json
// @Produce json
// @Param trainer body RegisterRequest true "Registration details"
// @Success 201 {object} TrainerResponse "Trainer created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	trainer, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrHashingFailed) {
			abortWithError(c, http.StatusInternalServerError, "Could not process registration")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapTrainerToResponse(trainer))
}

// Login godoc
// @Summary Log in a trainer
// @Description Authenticates a trainer and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, trainer, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrTokenGeneration) {
			abortWithError(c, http.StatusInternalServerError, "Could not process login")
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   token,
		Trainer: MapTrainerToResponse(trainer),
	})
}

// MapTrainerToResponse converts a domain Trainer to a TrainerResponse DTO.
func MapTrainerToResponse(trainer *domain.Trainer) TrainerResponse {
	if trainer == nil {
		return TrainerResponse{}
	}
	return TrainerResponse{
		ID:        trainer.ID.Hex(),
		Name:      trainer.Name,
		Email:     trainer.Email,
		CreatedAt: trainer.CreatedAt,
	}
}
