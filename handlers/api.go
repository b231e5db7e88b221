package handlers

import (
	"errors"

	"ticket-game-bot/middleware"
	"ticket-game-bot/models"
	"ticket-game-bot/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SetupAdminRoutes exposes the operational HTTP surface: a health probe
// plus token-gated ledger stats and partner-channel management.
func SetupAdminRoutes(app *fiber.App, store services.LedgerStore) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	admin := app.Group("/admin", middleware.AdminAuthMiddleware())

	admin.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := store.Stats(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load stats",
				"cause": err.Error(),
			})
		}
		return c.JSON(stats)
	})

	admin.Get("/channels", func(c *fiber.Ctx) error {
		channels, err := store.ListPartnerChannels(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list channels",
				"cause": err.Error(),
			})
		}
		return c.JSON(channels)
	})

	admin.Post("/channels", func(c *fiber.Ctx) error {
		var ch models.PartnerChannel
		if err := c.BodyParser(&ch); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
				"cause": err.Error(),
			})
		}
		if ch.ChannelName == "" || ch.TicketReward <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "channel_name and a positive ticket_reward are required",
			})
		}
		if ch.Mode != models.ChannelModeClickCount {
			ch.Mode = models.ChannelModeMembership
		}
		ch.ID = uuid.NewString()
		if err := store.AddPartnerChannel(c.Context(), &ch); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to add channel",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(ch)
	})

	admin.Delete("/channels/:name", func(c *fiber.Ctx) error {
		removed, err := store.RemovePartnerChannel(c.Context(), c.Params("name"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to remove channel",
				"cause": err.Error(),
			})
		}
		if !removed {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "channel not found",
			})
		}
		return c.JSON(fiber.Map{"removed": c.Params("name")})
	})

	admin.Get("/withdrawals/pending", func(c *fiber.Ctx) error {
		pending, err := store.PendingWithdrawals(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list pending withdrawals",
				"cause": err.Error(),
			})
		}
		return c.JSON(pending)
	})

	admin.Get("/users/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid user id",
			})
		}
		u, err := store.GetUser(c.Context(), int64(id))
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "user not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load user",
				"cause": err.Error(),
			})
		}
		return c.JSON(u)
	})
}
