package handlers

import (
	"errors"

	"carebook/internal/app"
	chatsController "carebook/internal/controllers/chats"
	"carebook/internal/handlers/middleware"
	"carebook/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ChatHandler struct {
	Handler
	chatsController chatsController.ChatsControllerInterface
}

func NewChatHandler(app app.App, router fiber.Router) *ChatHandler {
	log := logger.New("handlers").File("chat_handler")
	return &ChatHandler{
		chatsController: app.Controllers.Chats,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ChatHandler) Register() {
	chats := h.router.Group("/chats", h.middleware.RequireAuth(h.middleware.AuthService))
	chats.Get("", h.listChats)
	chats.Post("", h.createChat)
	chats.Get("/:chatId/messages", h.getMessages)
	chats.Post("/:chatId/messages", h.sendMessage)
	chats.Delete("/:chatId", h.deleteChat)
}

func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, chatsController.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, chatsController.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, chatsController.ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func chatErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	status := chatErrorStatus(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": fallback})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (h *ChatHandler) listChats(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	chats, err := h.chatsController.GetUserChats(c.UserContext(), user)
	if err != nil {
		return chatErrorResponse(c, err, "Failed to list chats")
	}

	return c.JSON(fiber.Map{
		"chats": chats,
	})
}

type createChatRequest struct {
	BookingID uuid.UUID `json:"bookingId"`
}

func (h *ChatHandler) createChat(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req createChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	chat, err := h.chatsController.CreateChatForBooking(c.UserContext(), user, req.BookingID)
	if err != nil {
		return chatErrorResponse(c, err, "Failed to create chat")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"chat": chat,
	})
}

func (h *ChatHandler) getMessages(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat ID",
		})
	}

	messages, err := h.chatsController.GetMessages(c.UserContext(), user, chatID)
	if err != nil {
		return chatErrorResponse(c, err, "Failed to get messages")
	}

	return c.JSON(fiber.Map{
		"messages": messages,
	})
}

func (h *ChatHandler) sendMessage(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat ID",
		})
	}

	var req chatsController.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	message, err := h.chatsController.SendMessage(c.UserContext(), user, chatID, &req)
	if err != nil {
		return chatErrorResponse(c, err, "Failed to send message")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
	})
}

func (h *ChatHandler) deleteChat(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	chatID, err := uuid.Parse(c.Params("chatId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat ID",
		})
	}

	if err := h.chatsController.DeleteChat(c.UserContext(), user, chatID); err != nil {
		return chatErrorResponse(c, err, "Failed to delete chat")
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}
