package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/kayson83/line-bot-chatgpt-redis/internal/api"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/config"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/line"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/redis"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/service/ai"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/service/chat"
	"github.com/kayson83/line-bot-chatgpt-redis/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	defer rdb.Close()

	store, err := storage.NewSessionStore(rdb)
	if err != nil {
		log.Fatalf("init session store: %v", err)
	}

	completer, err := ai.NewService(context.Background(), ai.Config{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.Model(),
	})
	if err != nil {
		log.Fatalf("init completion client: %v", err)
	}
	log.Printf("completion model: %s", cfg.Model())

	chatService, err := chat.NewService(store, completer, cfg.DailyTokenLimit, cfg.EnableCommands)
	if err != nil {
		log.Fatalf("init chat service: %v", err)
	}

	lineClient, err := line.NewClient(cfg.LineChannelAccessToken)
	if err != nil {
		log.Fatalf("init line client: %v", err)
	}

	handlers := api.NewHandler(chatService, lineClient, cfg.LineChannelSecret)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	if err := router.Run(cfg.ServerAddress()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
