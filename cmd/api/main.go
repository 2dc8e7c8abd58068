package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/nfe-api/internal/bootstrap"
	"github.com/jhoicas/nfe-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/nfe-api/internal/interfaces/http"
	"github.com/jhoicas/nfe-api/pkg/config"
	"github.com/jhoicas/nfe-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("nfe_environment", cfg.NFE.Environment).
		Str("canonicalization", cfg.NFE.Canonicalization).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET no configurado")
	}

	var opts []bootstrap.Option
	if cfg.DB.DatabaseURL != "" {
		pool, err := postgres.NewPool(context.Background(), cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conectar a PostgreSQL")
		}
		defer pool.Close()
		seq := postgres.NewSequenceRepository(pool)
		if err := seq.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("preparar tabla de numeración")
		}
		opts = append(opts, bootstrap.WithSequence(seq))
		log.Info().Msg("numeración de NF-e en PostgreSQL")
	}

	emitter, err := bootstrap.NewEmitter(cfg.NFE, log, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar emisión de NF-e")
	}
	if emitter.Identity == nil {
		log.Warn().Msg("NFE_CERT_PATH no configurado: la emisión responderá error hasta cargar un certificado")
	} else {
		log.Info().
			Str("cnpj", emitter.Identity.SubjectCNPJ()).
			Time("not_after", emitter.Identity.NotAfter()).
			Msg("certificado A1 cargado")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmitInvoice: emitter.UseCase,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if emitter.Identity != nil {
		emitter.Identity.Destroy()
	}

	log.Info().Msg("aplicación detenida")
}
