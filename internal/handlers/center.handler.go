package handlers

import (
	"carebook/internal/app"
	"carebook/internal/logger"
	"carebook/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CenterHandler serves public center browsing. Thin enough that it talks to
// the repository directly; there is no business logic to put behind a
// controller.
type CenterHandler struct {
	Handler
	centerRepo repositories.CenterRepository
}

func NewCenterHandler(app app.App, router fiber.Router) *CenterHandler {
	log := logger.New("handlers").File("center_handler")
	return &CenterHandler{
		centerRepo: app.Repos.Center,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CenterHandler) Register() {
	centers := h.router.Group("/centers")
	centers.Get("", h.listCenters)
	centers.Get("/:id", h.getCenter)
}

func (h *CenterHandler) listCenters(c *fiber.Ctx) error {
	centers, err := h.centerRepo.GetAll(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list centers",
		})
	}

	return c.JSON(fiber.Map{
		"centers": centers,
	})
}

func (h *CenterHandler) getCenter(c *fiber.Ctx) error {
	centerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid center ID",
		})
	}

	center, err := h.centerRepo.GetByID(c.UserContext(), centerID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Center not found",
		})
	}

	return c.JSON(fiber.Map{
		"center": center,
	})
}
