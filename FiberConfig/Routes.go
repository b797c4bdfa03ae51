package FiberConfig

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"Weighbridge/Billing"
	"Weighbridge/Controllers"
	"Weighbridge/Models"
	"Weighbridge/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func SetupRoutes(app *fiber.App, entryController *Controllers.EntryController) {
	api := app.Group("/api")

	entries := api.Group("/entries")
	entries.Post("/lookup", entryController.Lookup)
	entries.Post("/", entryController.Save)
	entries.Get("/recent", entryController.GetRecentEntries)
	entries.Get("/export/excel", entryController.ExportExcel)
	entries.Post("/:token/stage", entryController.AdvanceStage)
	entries.Get("/:token/bill", entryController.GetBill)
}

func FiberConfig(store Models.EntryStore, tariff Billing.Tariff) {
	fmt.Println("Server Up...")
	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestCompression, // 2
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		MaxAge:       300,
	}))

	recentLimit := 20
	if v := os.Getenv("RECENT_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			recentLimit = parsed
		}
	}
	recentCache := Controllers.NewRecentEntriesCache(store, recentLimit)
	recentCache.Start()
	defer recentCache.Stop()

	billingController := Billing.NewController(store, tariff)
	entryController := Controllers.NewEntryController(billingController, recentCache)
	SetupRoutes(app, entryController)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Server stopped: %v\n", err)
	}
}
