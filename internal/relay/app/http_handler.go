package app

import (
	"net/http"
	"strconv"

	"github.com/dsneed123/another-social-media-app/pkg/logger"
	"github.com/dsneed123/another-social-media-app/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RelayHTTPHandler serves the REST side: conversations, history, saves, and
// the presence snapshots. Identity always comes from the token middleware.
type RelayHTTPHandler struct {
	roomUC  *RoomUseCase
	mediaUC *MediaUseCase
}

// NewRelayHTTPHandler create RelayHTTPHandler
func NewRelayHTTPHandler(roomUC *RoomUseCase, mediaUC *MediaUseCase) *RelayHTTPHandler {
	return &RelayHTTPHandler{roomUC: roomUC, mediaUC: mediaUC}
}

func requestUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(middlewares.TokenUserID).(string)
	return userID
}

type createChatRequest struct {
	MemberIDs []string `json:"member_ids"`
	IsGroup   bool     `json:"is_group"`
	Name      *string  `json:"name"`
}

// CreateChat POST /chats
func (h *RelayHTTPHandler) CreateChat(c *fiber.Ctx) error {
	userID := requestUserID(c)

	var req createChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	detail, err := h.roomUC.CreateChat(c.Context(), userID, req.MemberIDs, req.IsGroup, req.Name)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(detail)
}

// GetChats GET /chats
func (h *RelayHTTPHandler) GetChats(c *fiber.Ctx) error {
	userID := requestUserID(c)

	chats, err := h.roomUC.GetUserChats(c.Context(), userID)
	if err != nil {
		logger.Log.Error("failed to list chats", zap.String("userID", userID), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list chats"})
	}
	return c.JSON(fiber.Map{"chats": chats})
}

// GetMessages GET /chats/:roomID/messages?before=<messageID>&limit=<n>
func (h *RelayHTTPHandler) GetMessages(c *fiber.Ctx) error {
	userID := requestUserID(c)
	roomID := c.Params("roomID")

	var before *string
	if cursor := c.Query("before"); cursor != "" {
		before = &cursor
	}
	limit, _ := strconv.ParseInt(c.Query("limit", "0"), 10, 64)

	messages, err := h.roomUC.GetMessages(c.Context(), userID, roomID, before, limit)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SaveMessage POST /messages/:messageID/save
func (h *RelayHTTPHandler) SaveMessage(c *fiber.Ctx) error {
	userID := requestUserID(c)
	messageID := c.Params("messageID")

	if err := h.roomUC.SaveMessage(c.Context(), userID, messageID); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"saved": true})
}

// UnsaveMessage DELETE /messages/:messageID/save
func (h *RelayHTTPHandler) UnsaveMessage(c *fiber.Ctx) error {
	userID := requestUserID(c)
	messageID := c.Params("messageID")

	if err := h.roomUC.UnsaveMessage(c.Context(), userID, messageID); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"saved": false})
}

// GetTyping GET /chats/:roomID/typing
func (h *RelayHTTPHandler) GetTyping(c *fiber.Ctx) error {
	userID := requestUserID(c)
	roomID := c.Params("roomID")

	userIDs, err := h.roomUC.TypingUsers(c.Context(), userID, roomID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"typing_user_ids": userIDs})
}

// GetUnread GET /chats/unread
func (h *RelayHTTPHandler) GetUnread(c *fiber.Ctx) error {
	userID := requestUserID(c)

	summary, err := h.roomUC.UnreadSummary(c.Context(), userID)
	if err != nil {
		logger.Log.Error("failed to build unread summary", zap.String("userID", userID), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch unread counts"})
	}
	return c.JSON(fiber.Map{"unread": summary})
}

// GetPresence GET /users/:userID/presence
func (h *RelayHTTPHandler) GetPresence(c *fiber.Ctx) error {
	targetID := c.Params("userID")

	presence, err := h.roomUC.Presence(c.Context(), targetID)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch presence"})
	}
	if presence == nil {
		return c.JSON(fiber.Map{"user_id": targetID, "online": false})
	}
	return c.JSON(presence)
}

// UploadMedia POST /media (multipart: file, optional expires_in_seconds)
func (h *RelayHTTPHandler) UploadMedia(c *fiber.Ctx) error {
	userID := requestUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "no file in request"})
	}
	expiresIn, _ := strconv.ParseInt(c.FormValue("expires_in_seconds", "0"), 10, 64)

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "unreadable file"})
	}
	defer file.Close()

	result, err := h.mediaUC.Upload(
		c.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
		expiresIn,
	)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusCreated).JSON(result)
}
