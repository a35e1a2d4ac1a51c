package handlers

import (
	"errors"

	"carebook/internal/app"
	bookingsController "carebook/internal/controllers/bookings"
	"carebook/internal/handlers/middleware"
	"carebook/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type BookingHandler struct {
	Handler
	bookingsController bookingsController.BookingsControllerInterface
}

func NewBookingHandler(app app.App, router fiber.Router) *BookingHandler {
	log := logger.New("handlers").File("booking_handler")
	return &BookingHandler{
		bookingsController: app.Controllers.Bookings,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *BookingHandler) Register() {
	bookings := h.router.Group("/bookings", h.middleware.RequireAuth(h.middleware.AuthService))
	bookings.Get("", h.listBookings)
	bookings.Post("", h.createBooking)
	bookings.Get("/check-status/:centerId", h.checkBookingStatus)
	bookings.Patch("/:id/cancel", h.cancelBooking)
	bookings.Patch("/:id/reschedule", h.rescheduleBooking)
	bookings.Patch("/:id/complete", h.completeBooking)
}

// bookingErrorStatus maps controller sentinel errors to HTTP status codes.
func bookingErrorStatus(err error) int {
	switch {
	case errors.Is(err, bookingsController.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, bookingsController.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, bookingsController.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, bookingsController.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func bookingErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	status := bookingErrorStatus(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": fallback})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *BookingHandler) listBookings(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	buckets, err := h.bookingsController.ListBookings(c.UserContext(), user)
	if err != nil {
		return bookingErrorResponse(c, err, "Failed to list bookings")
	}

	return c.JSON(buckets)
}

func (h *BookingHandler) createBooking(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req bookingsController.CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	booking, err := h.bookingsController.CreateBooking(c.UserContext(), user, &req)
	if err != nil {
		return bookingErrorResponse(c, err, "Failed to create booking")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"booking": booking,
	})
}

func (h *BookingHandler) checkBookingStatus(c *fiber.Ctx) error {
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

	check, err := h.bookingsController.CheckBookingStatus(c.UserContext(), user, centerID)
	if err != nil {
		return bookingErrorResponse(c, err, "Failed to check booking status")
	}

	return c.JSON(check)
}

func (h *BookingHandler) cancelBooking(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid booking ID",
		})
	}

	if _, err := h.bookingsController.CancelBooking(c.UserContext(), user, bookingID); err != nil {
		return bookingErrorResponse(c, err, "Failed to cancel booking")
	}

	return c.JSON(fiber.Map{
		"message": "Booking cancelled",
	})
}

func (h *BookingHandler) rescheduleBooking(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid booking ID",
		})
	}

	var req bookingsController.RescheduleBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	booking, err := h.bookingsController.RescheduleBooking(c.UserContext(), user, bookingID, &req)
	if err != nil {
		return bookingErrorResponse(c, err, "Failed to reschedule booking")
	}

	return c.JSON(fiber.Map{
		"booking": booking,
	})
}

func (h *BookingHandler) completeBooking(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid booking ID",
		})
	}

	if _, err := h.bookingsController.CompleteBooking(c.UserContext(), user, bookingID); err != nil {
		return bookingErrorResponse(c, err, "Failed to complete booking")
	}

	return c.JSON(fiber.Map{
		"message": "Booking completed",
	})
}
