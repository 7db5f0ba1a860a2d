package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UsersHandler exposes the user directory.
type UsersHandler struct {
	users       *service.UserService
	assignments *service.AssignmentService
	validate    *validator.Validate
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, assignments *service.AssignmentService, v *validator.Validate) *UsersHandler {
	return &UsersHandler{users: users, assignments: assignments, validate: v}
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return data(c, http.StatusOK, userResponse(principal.User))
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, userResponses(users))
}

// Agents handles GET /users/agents, the assignable staff.
func (h *UsersHandler) Agents(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	users, err := h.assignments.Candidates(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, userResponses(users))
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), service.UserCreateInput{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		Role:         req.Role,
		TempPassword: req.TempPassword,
	}, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, userResponse(user))
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), c.Params("id"), service.UserUpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Role:     req.Role,
		Active:   req.Active,
	}, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, userResponse(user))
}

// SetActive handles POST /users/:id/active.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.SetActiveRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.users.SetActive(c.UserContext(), c.Params("id"), *req.Active, actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, userResponse(user))
}

// SetPassword handles POST /users/:id/password.
func (h *UsersHandler) SetPassword(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.SetPasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.users.SetPassword(c.UserContext(), c.Params("id"), req.Password, actor); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func userResponses(users []domain.User) []dto.UserResponse {
	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, userResponse(&users[i]))
	}
	return resp
}
