// Package main is the application entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexguard-go/internal/config"
	"lexguard-go/internal/handler"
	"lexguard-go/internal/metrics"
	"lexguard-go/internal/middleware"
	"lexguard-go/internal/pipeline"
	"lexguard-go/internal/repository"
	"lexguard-go/internal/service"
	"lexguard-go/pkg/database"
	"lexguard-go/pkg/embedding"
	"lexguard-go/pkg/es"
	"lexguard-go/pkg/kafka"
	"lexguard-go/pkg/llm"
	"lexguard-go/pkg/log"
	"lexguard-go/pkg/storage"
	"lexguard-go/pkg/tika"
	"lexguard-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Configuration.
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. Logger.
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized successfully")

	// 3. Infrastructure clients.
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	store, err := storage.New(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}
	esClient, err := es.New(cfg.Elasticsearch, cfg.Embedding.Dimensions)
	if err != nil {
		log.Fatalf("failed to initialize elasticsearch: %v", err)
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. Repositories.
	docRepo := repository.NewDocumentRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)
	historyRepo := repository.NewHistoryRepository(database.DB)

	// 5. Services.
	jwtManager := token.NewJWTManager(cfg.JWT.Secret)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)

	auditService := service.NewAuditService(auditRepo, cfg.Audit.DefaultCaseID, cfg.Audit.PageSize)
	memoryService := service.NewMemoryService(historyRepo, cfg.Retrieval.HistoryWindow)
	riskScanner := service.NewRiskScanner(llmClient, cfg.Ingest.RiskPrefix)
	rankPolicy := service.NewKeywordRankPolicy(cfg.Retrieval.BaseTopK)
	retriever := service.NewRetrieverService(embeddingClient, esClient, rankPolicy, cfg.Retrieval.ContextBudget)
	chatService := service.NewChatService(retriever, memoryService, llmClient, auditService)
	documentService := service.NewDocumentService(docRepo, store)

	// 6. Ingestion pipeline.
	extractor := pipeline.NewExtractor(tikaClient)
	processor := pipeline.NewProcessor(
		store,
		extractor,
		embeddingClient,
		esClient,
		riskScanner,
		docRepo,
		auditService,
		cfg.Ingest,
		cfg.Audit.DefaultCaseID,
	)

	// 7. Background consumer for new-blob notifications.
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. Router.
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.ActorIdentity(jwtManager, cfg.Audit.DefaultActor))
	{
		chatHandler := handler.NewChatHandler(chatService)
		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.GET("/chat/stream", chatHandler.Stream)

		documentHandler := handler.NewDocumentHandler(documentService)
		apiV1.GET("/documents", documentHandler.List)
		apiV1.GET("/upload-url", documentHandler.UploadURL)
		apiV1.GET("/download-url", documentHandler.DownloadURL)

		apiV1.GET("/audit", handler.NewAuditHandler(auditService).List)

		apiV1.POST("/ingest", handler.NewIngestHandler(store.Bucket()).Trigger)
	}

	// 9. HTTP server with graceful shutdown.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}
	log.Info("server stopped cleanly")
}
