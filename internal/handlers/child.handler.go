package handlers

import (
	"strings"
	"time"

	"carebook/internal/app"
	"carebook/internal/handlers/middleware"
	"carebook/internal/logger"
	"carebook/internal/models"
	"carebook/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// ChildHandler manages the guardian's own children; each record is scoped to
// its parent and simple enough to live without a controller layer.
type ChildHandler struct {
	Handler
	childRepo repositories.ChildRepository
}

func NewChildHandler(app app.App, router fiber.Router) *ChildHandler {
	log := logger.New("handlers").File("child_handler")
	return &ChildHandler{
		childRepo: app.Repos.Child,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ChildHandler) Register() {
	children := h.router.Group("/children", h.middleware.RequireAuth(h.middleware.AuthService))
	children.Get("", h.listChildren)
	children.Post("", h.createChild)
}

func (h *ChildHandler) listChildren(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	children, err := h.childRepo.GetByParent(c.UserContext(), user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list children",
		})
	}

	return c.JSON(fiber.Map{
		"children": children,
	})
}

type createChildRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	Notes     string `json:"notes,omitempty"`
}

func (h *ChildHandler) createChild(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req createChildRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	birthDate, err := time.Parse(time.RFC3339, req.BirthDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid birthDate, expected RFC3339",
		})
	}

	if birthDate.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "birthDate cannot be in the future",
		})
	}

	child := &models.Child{
		Name:      name,
		BirthDate: birthDate,
		ParentID:  user.ID,
		Notes:     req.Notes,
	}

	if err := h.childRepo.Create(c.UserContext(), child); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create child",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"child": child,
	})
}
