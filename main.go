package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"LumeChat/global/config"
	"LumeChat/logger"
	"LumeChat/middleware/security"
	"LumeChat/module/chat/handler"
	chatservice "LumeChat/module/chat/service"
	"LumeChat/service/feed"
	"LumeChat/service/gateway"
	"LumeChat/service/objstore"
	"LumeChat/service/storage"
	"LumeChat/store/pg"
	jwtlib "LumeChat/tools/security"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := pg.New(ctx, cfg.Postgres.URL)
	if err != nil {
		logger.Errorf("connect postgres: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := storage.InitRedis(ctx, storage.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		logger.Errorf("connect redis: %v", err)
		os.Exit(1)
	}
	defer func() { _ = storage.CloseRedis() }()

	bus, err := feed.Connect(feed.Config{Servers: cfg.Nats.Servers, Name: cfg.Nats.Name})
	if err != nil {
		logger.Errorf("connect nats: %v", err)
		os.Exit(1)
	}
	defer func() { _ = bus.Close() }()

	files, err := objstore.NewFS(cfg.Storage.Root, cfg.Storage.BaseURL, cfg.Chat.MaxUploadBytes)
	if err != nil {
		logger.Errorf("init object storage: %v", err)
		os.Exit(1)
	}

	svc := chatservice.New(st, bus, chatservice.Config{
		WorldID:      config.WorldConversationID,
		NameCooldown: cfg.Chat.NameCooldown,
		StoryTTL:     cfg.Chat.StoryTTL,
	})
	if err := svc.EnsureWorld(ctx); err != nil {
		logger.Errorf("bootstrap world conversation: %v", err)
		os.Exit(1)
	}

	authOpts := jwtlib.DefaultOptions([]byte(cfg.Auth.JWTSecret))
	handler.SetPresenceTTL(cfg.Chat.PresenceTTL)

	r := gin.Default()
	h := handler.New(svc, files, cfg.Chat.RequestTimeout)
	h.Register(r, security.Middleware(authOpts))
	r.GET("/ws", gateway.NewServer(bus, authOpts, st).HandleWS)
	r.Static(cfg.Storage.BaseURL, cfg.Storage.Root)

	logger.Infof("listening on %s", cfg.HTTP.Addr)
	if err := r.Run(cfg.HTTP.Addr); err != nil {
		logger.Errorf("http server: %v", err)
		os.Exit(1)
	}
}
