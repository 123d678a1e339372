package routes

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/meinhoongagan/trucktrack/controllers"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/utils"
)

// Handlers groups every controller mounted by NewApp.
type Handlers struct {
	Auth      *controllers.AuthHandler
	Trips     *controllers.TripHandler
	Catalog   *controllers.CatalogHandler
	Dashboard *controllers.DashboardHandler
	Proofs    *controllers.ProofHandler
	Admin     *controllers.AdminHandler
	Health    *controllers.HealthHandler
}

// NewApp builds the fiber application. protected authenticates a request
// and must store the caller for the capability checks. Access logs go to
// accessLog; nil disables them.
func NewApp(h Handlers, protected fiber.Handler, log logging.Logger, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "TruckTrack API",
		ErrorHandler: controllers.ErrorHandler(log),
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(requestid.New(requestid.Config{Generator: utils.GenerateUUID}))
	if accessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
			Output: accessLog,
		}))
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/", h.Health.Health)

	api := app.Group("/api")
	SetupAuthRoutes(api, h.Auth, protected)
	SetupTripRoutes(api, h.Trips, protected)
	SetupCatalogRoutes(api, h.Catalog, protected)
	SetupDashboardRoutes(api, h.Dashboard, protected)
	SetupProofRoutes(api, h.Proofs, protected)
	SetupAdminRoutes(api, h.Admin, protected)

	return app
}
