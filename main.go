package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"ticket-game-bot/handlers"
	"ticket-game-bot/models"
	"ticket-game-bot/services"
	"ticket-game-bot/utils"
	"ticket-game-bot/workers"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	admins := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	officialChannels := parseList(os.Getenv("OFFICIAL_CHANNELS"))
	if len(officialChannels) == 0 {
		log.Fatal("OFFICIAL_CHANNELS environment variable not set")
	}
	gameGroup := os.Getenv("GAME_GROUP")
	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	opponents, err := utils.LoadOpponents(os.Getenv("OPPONENTS_FILE"))
	if err != nil {
		log.Printf("⚠️  Failed to load opponents file, using defaults: %v", err)
		opponents = utils.DefaultOpponents
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := db.AutoMigrate(
		&models.UserLedger{},
		&models.Withdrawal{},
		&models.GameRecord{},
		&models.PartnerChannel{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Fatal("failed to connect to Telegram:", err)
	}

	store := services.NewGormStore(db)
	locks := services.NewUserLocks()
	notifier := handlers.NewTelegramNotifier(bot)
	oracle := handlers.NewTelegramOracle(bot)

	settlement, err := services.NewSettlementScheduler(store, notifier)
	if err != nil {
		log.Fatal("failed to create settlement scheduler:", err)
	}
	broadcaster := workers.NewBroadcaster(store, notifier)

	rewards := services.NewRewardService(store, oracle, notifier, officialChannels, locks)
	games := services.NewGameService(store, notifier, gameGroup, opponents, locks)
	flows := services.NewFlowService(store, notifier, settlement, broadcaster, admins, locks)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settlement.Start()
	defer settlement.Stop()
	if err := settlement.RecoverPending(ctx); err != nil {
		log.Printf("⚠️  Failed to recover pending withdrawals: %v", err)
	}
	games.StartExpiryScheduler(ctx)

	if gameGroup != "" {
		activity := workers.NewActivityNotifier(notifier, gameGroup, opponents)
		go activity.Start(ctx)
	}

	app := fiber.New()
	handlers.SetupAdminRoutes(app, store)
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	handler := handlers.NewHandler(bot, store, rewards, games, flows, admins, officialChannels)
	go handler.Run(ctx)

	log.Printf("✅ Admin API running on http://localhost:%s", port)
	log.Println("✅ Settlement scheduler running (24h withdrawal maturation)")
	log.Println("✅ Round expiry sweep running (every 1m)")

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func parseAdminIDs(raw string) map[int64]bool {
	admins := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("⚠️  Skipping invalid admin id %q", part)
			continue
		}
		admins[id] = true
	}
	return admins
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
