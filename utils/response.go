package utils

import (
	"github.com/gofiber/fiber/v2"
)

func ErrorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
	})
}

// Created answers 201 with body.
func Created(c *fiber.Ctx, body interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(body)
}

// Upserted answers 201 when the write created a document and 200 when it edited one.
func Upserted(c *fiber.Ctx, created bool, body interface{}) error {
	if created {
		return Created(c, body)
	}
	return c.JSON(body)
}
