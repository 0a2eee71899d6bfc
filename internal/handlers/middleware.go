package handlers

import (
	"errors"
	"strings"

	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	userIDKey = "userId"

	msgNoToken        = "No token, authorization denied"
	msgInvalidToken   = "Invalid token"
	msgMalformedToken = "Malformed token"
)

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func authenticate(c *fiber.Ctx, secret []byte) error {
	token := bearerToken(c)
	if token == "" {
		return utils.Unauthenticated(msgNoToken)
	}
	id, err := utils.ParseJWT(token, secret)
	if errors.Is(err, utils.ErrMalformedToken) {
		return utils.Unauthenticated(msgMalformedToken)
	}
	if err != nil {
		return utils.Unauthenticated(msgInvalidToken)
	}
	c.Locals(userIDKey, id)
	return nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores the caller's id.
func AuthMiddleware(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, key); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present and never rejects.
func OptionalAuth(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		if bearerToken(c) != "" {
			if err := authenticate(c, key); err != nil {
				c.Locals(userIDKey, nil)
			}
		}
		return c.Next()
	}
}

// currentUser returns the id AuthMiddleware stored.
func currentUser(c *fiber.Ctx) (primitive.ObjectID, error) {
	hex, _ := c.Locals(userIDKey).(string)
	if hex == "" {
		return primitive.NilObjectID, utils.Unauthenticated(msgNoToken)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, utils.Unauthenticated(msgMalformedToken)
	}
	return id, nil
}

// viewer is the optional caller; NilObjectID when anonymous.
func viewer(c *fiber.Ctx) primitive.ObjectID {
	id, _ := currentUser(c)
	return id
}

func paramID(c *fiber.Ctx, name, what string) (primitive.ObjectID, error) {
	return utils.ObjectID(c.Params(name), what)
}
