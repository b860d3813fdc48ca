package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"eventsImporter/internal/cache"
	"eventsImporter/internal/config"
	"eventsImporter/internal/extractor"
	"eventsImporter/internal/graceful"
	"eventsImporter/internal/imagehost"
	"eventsImporter/internal/importer"
	"eventsImporter/internal/metrics"
	"eventsImporter/internal/openrouter"
	"eventsImporter/internal/orchestrator"
	"eventsImporter/internal/pageloader"
	"eventsImporter/internal/relay"
	"eventsImporter/internal/repositories"
	"eventsImporter/internal/responder"
	"eventsImporter/internal/scraper"
	"eventsImporter/internal/storage/s3"
	telegramBot "eventsImporter/internal/telegram"
	"eventsImporter/internal/transport/httpServer"
	"eventsImporter/internal/transport/httpServer/handlers"
	myMiddleware "eventsImporter/internal/transport/httpServer/middleware"
	"eventsImporter/internal/transport/httpServer/routers"
	"eventsImporter/internal/utils"
	"eventsImporter/internal/utils/logger/handlers/slogpretty"
	"eventsImporter/internal/utils/logger/sl"

	"github.com/joho/godotenv"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var Version = "0.1"

func main() {
	// .env необязателен: в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info(
		"starting events importer",
		slog.String("env", cfg.Env),
		slog.String("version", Version),
	)

	ctx := context.Background()
	metricsService := metrics.New()

	repositoryService, err := repositories.New(log, cfg)
	if err != nil {
		log.Error("failed to init repository", sl.Err(err))
		os.Exit(1)
	}

	var relayCache relay.Cache
	var imageCache imagehost.Cache
	var cacheService *cache.Cache
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.New(ctx, log, cfg.RedisConfig)
		if err != nil {
			log.Error("failed to init redis cache", sl.Err(err))
			os.Exit(1)
		}
		relayCache = cacheService.Images("relay:")
		imageCache = cacheService.Images("imagehost:")
	}

	// Extraction pipeline
	registry := extractor.DefaultRegistry()
	if cfg.ExtractorConfig.ProfilesFile != "" {
		profiles, err := extractor.LoadProfiles(cfg.ExtractorConfig.ProfilesFile)
		if err != nil {
			log.Error("failed to load selector profiles", sl.Err(err))
			os.Exit(1)
		}
		for _, p := range profiles {
			registry.Add(p)
		}
	}

	relayClient := utils.NewHTTPClient(cfg.RelayConfig.UploadTimeout)
	discovery := relay.NewPortDiscovery(log, relayClient, cfg.RelayConfig.Host, cfg.RelayConfig.Ports, cfg.RelayConfig.ProbeTimeout)
	imageRelay := relay.New(log, relayClient, discovery, cfg.RelayConfig.UploadTimeout, relayCache, metricsService)
	loader := pageloader.New(log, cfg.ExtractorConfig.LoaderTimeout, cfg.ExtractorConfig.UserAgent)
	importClient := importer.NewClient(log, utils.NewHTTPClient(cfg.ImporterConfig.Timeout), cfg.ImporterConfig.Origins, cfg.ImporterConfig.Timeout)

	responderService := responder.New(
		log,
		registry,
		imageRelay,
		loader,
		importClient,
		cfg.ExtractorConfig.Timeout,
		cfg.ExtractorConfig.ImageTimeout,
		metricsService,
	)

	// Import and image hosting
	importService := importer.NewService(log, repositoryService, cfg.ImporterConfig.Timezone, metricsService)
	hosts := buildImageHosts(ctx, log, cfg.ImageHostConfig)
	downloader := imagehost.NewDownloader(
		utils.NewHTTPClient(cfg.ImageHostConfig.Timeout),
		cfg.ExtractorConfig.UserAgent,
		cfg.ImageHostConfig.MaxBytes,
		cfg.ImageHostConfig.AllowedSourceHosts,
	)
	imageHostService := imagehost.New(log, downloader, hosts, cfg.ImageHostConfig.Timeout, imageCache, metricsService)
	log.Info("image hosts configured", slog.Any("hosts", imageHostService.Hosts()))

	// Background pipeline
	scraperService := scraper.New(log, cfg, responderService, importService, metricsService)

	var aiService *openrouter.Openrouter
	var ai orchestrator.AI
	if cfg.BotConfig.AI.Enabled() {
		aiService = openrouter.NewClient(log, cfg, repositoryService)
		ai = aiService
	}

	var tgBot *telegramBot.Bot
	var notifier orchestrator.Notifier
	if cfg.BotConfig.TgbotApiToken != "" {
		tgBot, err = telegramBot.New(log, cfg, repositoryService)
		if err != nil {
			log.Error("failed to init telegram bot, notifications disabled", sl.Err(err))
		} else {
			notifier = tgBot
		}
	}

	orchestratorService := orchestrator.New(log, cfg, scraperService, ai, notifier, scraperService.CompletedEventsChan)

	// HTTP Server
	auth := myMiddleware.NewAuth(cfg.HttpServer.Secret, cfg.HttpServer.TokenTTL)
	eventHandler := handlers.NewEventHandler(log, repositoryService, orchestratorService)
	pipelineHandler := handlers.NewPipelineHandler(log, responderService, imageHostService, importService, orchestratorService)
	authHandler := handlers.NewAuthHandler(log, auth, cfg.HttpServer.AdminUser, cfg.HttpServer.AdminPassword, cfg.HttpServer.TokenTTL)
	router := routers.NewRouter(
		log,
		eventHandler,
		pipelineHandler,
		authHandler,
		auth,
		metricsService.Handler(),
		cfg.ImageHostConfig.LocalDir,
		cfg.ImageHostConfig.PublicPath,
	)
	httpSrv := httpServer.NewHttpServer(log, router, cfg)

	ops := map[string]graceful.Operation{
		"HTTP server": func(ctx context.Context) error {
			return httpSrv.Shutdown(ctx)
		},
		"Orchestrator service": func(ctx context.Context) error {
			return orchestratorService.Shutdown(ctx)
		},
		"Scraper service": func(ctx context.Context) error {
			return scraperService.Shutdown(ctx)
		},
		"Repository service": func(ctx context.Context) error {
			return repositoryService.Shutdown(ctx)
		},
	}
	if aiService != nil {
		ops["AI service"] = func(ctx context.Context) error {
			return aiService.Shutdown(ctx)
		}
	}
	if notifier != nil {
		ops["Telegram bot"] = func(ctx context.Context) error {
			return tgBot.Shutdown(ctx)
		}
	}
	if cacheService != nil {
		ops["Redis cache"] = func(ctx context.Context) error {
			return cacheService.Shutdown(ctx)
		}
	}

	maxSecond := 15 * time.Second
	waitShutdown := graceful.GracefulShutdown(context.Background(), maxSecond, ops, log)

	if aiService != nil {
		go aiService.Start()
	}
	if notifier != nil {
		go tgBot.Start(30)
	}
	go scraperService.Start()
	go orchestratorService.Start()
	go httpSrv.Listen()

	<-waitShutdown
}

// buildImageHosts собирает цепочку хостингов в порядке из конфига.
// s3 пропускается, если не задан bucket или не удалось загрузить AWS-конфиг.
func buildImageHosts(ctx context.Context, log *slog.Logger, cfg config.ImageHostConfig) []imagehost.Host {
	client := utils.NewHTTPClient(cfg.Timeout)
	hosts := make([]imagehost.Host, 0, len(cfg.Hosts))

	for _, name := range cfg.Hosts {
		switch name {
		case imagehost.NameFileIO:
			hosts = append(hosts, imagehost.NewFileIO(client, cfg.FileIOURL))
		case imagehost.NameCatbox:
			hosts = append(hosts, imagehost.NewCatbox(client, cfg.CatboxURL))
		case imagehost.NameS3:
			if cfg.S3.Bucket == "" {
				log.Info("s3 image host skipped: no bucket configured")
				continue
			}
			store, err := s3.New(ctx, s3.Options{
				Region:       cfg.S3.Region,
				Profile:      cfg.S3.Profile,
				Endpoint:     cfg.S3.Endpoint,
				UsePathStyle: cfg.S3.UsePathStyle,
			})
			if err != nil {
				log.Error("s3 image host skipped", sl.Err(err))
				continue
			}
			hosts = append(hosts, imagehost.NewS3(store, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.PublicBaseURL))
		case imagehost.NameLocal:
			hosts = append(hosts, imagehost.NewLocal(cfg.LocalDir, cfg.PublicPath))
		default:
			log.Warn("unknown image host", slog.String("host", name))
		}
	}

	return hosts
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(slog.LevelDebug)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = setupPrettySlog(slog.LevelInfo)
	default: // If env config is invalid, set prod settings by default due to security
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
