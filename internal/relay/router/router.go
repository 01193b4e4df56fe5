package router

import (
	"context"

	"github.com/dsneed123/another-social-media-app/internal/relay/app"
	"github.com/dsneed123/another-social-media-app/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the relay surface. Every route sits behind the token
// middleware; the websocket upgrade reads its identity from the verified
// claims, never from the path.
func RegisterRoutes(r *fiber.App, wsHandler *app.RelayWebsocketHandler, httpHandler *app.RelayHTTPHandler) {
	r.Use(middlewares.JWTMiddleware())

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))

	r.Post("/chats", httpHandler.CreateChat)
	r.Get("/chats", httpHandler.GetChats)
	r.Get("/chats/unread", httpHandler.GetUnread)
	r.Get("/chats/:roomID/messages", httpHandler.GetMessages)
	r.Get("/chats/:roomID/typing", httpHandler.GetTyping)

	r.Post("/messages/:messageID/save", httpHandler.SaveMessage)
	r.Delete("/messages/:messageID/save", httpHandler.UnsaveMessage)

	r.Post("/media", httpHandler.UploadMedia)
	r.Get("/users/:userID/presence", httpHandler.GetPresence)
}
