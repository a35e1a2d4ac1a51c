package handlers

import (
	"errors"

	"carebook/internal/app"
	reviewsController "carebook/internal/controllers/reviews"
	"carebook/internal/handlers/middleware"
	"carebook/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	Handler
	reviewsController reviewsController.ReviewsControllerInterface
}

func NewReviewHandler(app app.App, router fiber.Router) *ReviewHandler {
	log := logger.New("handlers").File("review_handler")
	return &ReviewHandler{
		reviewsController: app.Controllers.Reviews,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ReviewHandler) Register() {
	auth := h.middleware.RequireAuth(h.middleware.AuthService)

	// Center-scoped review routes; listing is public browse.
	h.router.Get("/centers/:centerId/reviews", h.listCenterReviews)
	h.router.Post("/centers/:centerId/reviews", auth, h.submitReview)

	reviews := h.router.Group("/reviews", auth)
	reviews.Get("/can-review/:centerId", h.canReview)
	reviews.Delete("/:id", h.deleteReview)
}

func reviewErrorStatus(err error) int {
	switch {
	case errors.Is(err, reviewsController.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, reviewsController.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, reviewsController.ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func reviewErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	status := reviewErrorStatus(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": fallback})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *ReviewHandler) listCenterReviews(c *fiber.Ctx) error {
	centerID, err := uuid.Parse(c.Params("centerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid center ID",
		})
	}

	reviews, err := h.reviewsController.ListForCenter(c.UserContext(), centerID)
	if err != nil {
		return reviewErrorResponse(c, err, "Failed to list reviews")
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
	})
}

func (h *ReviewHandler) submitReview(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	centerID, err := uuid.Parse(c.Params("centerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid center ID",
		})
	}

	var req reviewsController.SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.CenterID = centerID

	review, err := h.reviewsController.SubmitReview(c.UserContext(), user, &req)
	if err != nil {
		return reviewErrorResponse(c, err, "Failed to submit review")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"review": review,
	})
}

func (h *ReviewHandler) canReview(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	centerID, err := uuid.Parse(c.Params("centerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid center ID",
		})
	}

	eligibility, err := h.reviewsController.CanReview(c.UserContext(), user, centerID)
	if err != nil {
		return reviewErrorResponse(c, err, "Failed to check review eligibility")
	}

	return c.JSON(eligibility)
}

func (h *ReviewHandler) deleteReview(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	reviewID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid review ID",
		})
	}

	if err := h.reviewsController.DeleteReview(c.UserContext(), user, reviewID); err != nil {
		return reviewErrorResponse(c, err, "Failed to delete review")
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}
