package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/annograph/backend/internal/queue"
	mid "github.com/OFFIS-RIT/annograph/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/annograph/backend/internal/session"
	"github.com/OFFIS-RIT/annograph/backend/internal/setup"
	"github.com/OFFIS-RIT/annograph/backend/internal/util"
	"github.com/OFFIS-RIT/annograph/backend/pkg/answer"
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"
	"github.com/OFFIS-RIT/annograph/backend/pkg/timemachine"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New creates the echo instance with validation, middleware and routes.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &mid.App{
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		MasterUserID: util.GetEnv("MASTER_USER_ID"),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Keyfunc = k.Keyfunc
	}

	client, err := setup.ModelClient()
	if err != nil {
		logger.Fatal("Failed to create model client", "err", err)
	}

	sessions, closeStore, err := setup.SessionStore(ctx)
	if err != nil {
		logger.Fatal("Failed to create session store", "err", err)
	}
	defer closeStore()

	cfg := session.Config{
		Store:     sessions,
		Autosaver: store.NewAutosaver(sessions, util.GetEnvDuration("AUTOSAVE_DELAY", time.Second)),
		Client:    client,
		Answer: answer.Config{
			ResponseModel:    util.GetEnv("AI_RESPONSE_MODEL"),
			ParsingModel:     util.GetEnv("AI_PARSING_MODEL"),
			SelfCorrection:   util.GetEnvBool("SELF_CORRECTION", false),
			ParallelRequests: util.GetEnvInt("AI_PARALLEL_REQ", 4),
		},
		History: []timemachine.Option{
			timemachine.WithMaxSize(util.GetEnvInt("TIME_MACHINE_SIZE", timemachine.DefaultMaxSize)),
		},
	}

	if util.GetEnv("RABBITMQ_HOST") != "" {
		que, err := queue.Init()
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		defer ch.Close()

		if err := queue.SetupQueues(ch, queue.Queues); err != nil {
			logger.Fatal("Failed to set up queues", "err", err)
		}
		cfg.Publisher = queue.NewPublisher(ch)
	}

	app.Sessions = session.NewManager(ctx, cfg)
	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
	app.Sessions.Close(shutdownCtx)
}
