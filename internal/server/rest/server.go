// Package rest exposes the marketplace over HTTP using fiber.
package rest

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the HTTP layer calls into.
type Deps struct {
	Users         UserService
	Cars          CarService
	Notifications NotificationService
	Images        ImageProcessor
	ImageStore    ImageStore
	Health        HealthChecker
	HealthTimeout time.Duration
	TempDir       string
	MaxFileSize   int64
	Logger        logging.Logger
}

// NewApp builds the fiber application with all routes registered.
func NewApp(d Deps) *fiber.App {
	logger := d.Logger.With("module", "http")

	bodyLimit := 4 << 20
	if d.MaxFileSize > 0 {
		bodyLimit = int(d.MaxFileSize)*common.MaxImagesPerRequest + 1<<20
	}

	app := fiber.New(fiber.Config{
		AppName:               "carmarket",
		BodyLimit:             bodyLimit,
		ErrorHandler:          errorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(accessLog(logger))

	healthTimeout := d.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 2 * time.Second
	}

	h := &handlers{
		users:         d.Users,
		cars:          d.Cars,
		notifications: d.Notifications,
		images:        d.Images,
		imageStore:    d.ImageStore,
		health:        d.Health,
		healthTimeout: healthTimeout,
		tempDir:       d.TempDir,
		maxFileSize:   d.MaxFileSize,
		logger:        logger,
	}

	authn := requireUser(d.Users)

	app.Get("/healthz", h.healthz)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", h.signUp)
	authGroup.Post("/signin", h.signIn)

	cars := app.Group("/cars")
	cars.Get("/", h.listCars)
	cars.Get("/:id", h.getCar)
	cars.Post("/", authn, h.createCar)
	cars.Patch("/:id/sold", authn, h.markCarSold)
	cars.Patch("/:id", authn, h.updateCar)
	cars.Delete("/:id", authn, h.deleteCar)

	app.Post("/sell", h.sell)
	app.Post("/enquiry", h.enquiry)

	app.Get(common.PublicImagePrefix+":name", h.serveImage)

	return app
}

type HTTPServer struct {
	address string
	app     *fiber.App
	logger  logging.Logger
}

func NewHTTPServer(address string, d Deps) *HTTPServer {
	return &HTTPServer{
		address: address,
		app:     NewApp(d),
		logger:  d.Logger.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := s.app.Listener(listen); err != nil {
		return err
	}

	return nil
}
