package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/postflow/postflow/ui/rest"
	"github.com/postflow/postflow/ui/rest/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the scheduling API over http",
	Long:  `Starts the HTTP API plus, unless disabled, the embedded queue worker.`,
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "Postflow Scheduling Engine",
		DisableStartupMessage:   false,
		ServerHeader:            "Hidden",
	}

	if len(appConfig.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = appConfig.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	// Security: RequestID for audit trails
	app.Use(requestid.New())

	origins := strings.Join(appConfig.App.CorsAllowedOrigins, ", ")
	if !strings.Contains(origins, appConfig.App.BaseUrl) {
		origins += ", " + appConfig.App.BaseUrl
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())

	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if appConfig.App.Debug {
		app.Use(logger.New())
	}

	if len(appConfig.App.BasicAuth) == 0 {
		logrus.Fatalln("APP_BASIC_AUTH is required. Nothing should be public; please set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>] and restart.")
	}
	account := basicAuthAccounts(appConfig.App.BasicAuth)

	apiGroup := app.Group(appConfig.App.BasePath + "/api")
	apiGroup.Use(basicauth.New(basicauth.Config{
		Users: account,
		Next: func(c *fiber.Ctx) bool {
			// Allow CORS preflight without credentials.
			return c.Method() == fiber.MethodOptions
		},
	}))

	workerCtx, stopWorker := context.WithCancel(context.Background())

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		stopWorker()
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	rest.InitRestPublication(apiGroup, schedulingUsecase)
	rest.InitRestQueue(apiGroup, schedulingUsecase)
	rest.InitRestOptimal(apiGroup, schedulingUsecase)
	rest.InitRestHealth(apiGroup, schedulingUsecase, appConfig.App.Version)

	// 404 Handler for the API group
	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	if appConfig.Worker.Enabled {
		queueWorker.Start(workerCtx)
		logrus.Info("[REST] Embedded queue worker started")
	} else {
		logrus.Info("[REST] Embedded queue worker disabled, run the worker command separately")
	}

	if err := app.Listen(":" + appConfig.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
