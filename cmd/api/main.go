package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/clairehq/claire/internal/ai"
	"github.com/clairehq/claire/internal/auth"
	"github.com/clairehq/claire/internal/chat"
	chatStore "github.com/clairehq/claire/internal/chat/store"
	"github.com/clairehq/claire/internal/config"
	"github.com/clairehq/claire/internal/database"
	"github.com/clairehq/claire/internal/export"
	"github.com/clairehq/claire/internal/goal"
	goalStore "github.com/clairehq/claire/internal/goal/store"
	claireHttp "github.com/clairehq/claire/internal/http"
	chatbotHandler "github.com/clairehq/claire/internal/http/chatbot"
	exportHandler "github.com/clairehq/claire/internal/http/export"
	goalsHandler "github.com/clairehq/claire/internal/http/goals"
	healthHandler "github.com/clairehq/claire/internal/http/health"
	insightsHandler "github.com/clairehq/claire/internal/http/insights"
	plansHandler "github.com/clairehq/claire/internal/http/plans"
	queryHandler "github.com/clairehq/claire/internal/http/query"
	uploadsHandler "github.com/clairehq/claire/internal/http/uploads"
	usersHandler "github.com/clairehq/claire/internal/http/users"
	"github.com/clairehq/claire/internal/insight"
	insightStore "github.com/clairehq/claire/internal/insight/store"
	"github.com/clairehq/claire/internal/objectstore"
	"github.com/clairehq/claire/internal/plan"
	planStore "github.com/clairehq/claire/internal/plan/store"
	"github.com/clairehq/claire/internal/statement"
	"github.com/clairehq/claire/internal/subscription"
	subscriptionStore "github.com/clairehq/claire/internal/subscription/store"
	"github.com/clairehq/claire/internal/transaction"
	txStore "github.com/clairehq/claire/internal/transaction/store"
	"github.com/clairehq/claire/internal/upload"
	uploadStore "github.com/clairehq/claire/internal/upload/store"
	"github.com/clairehq/claire/internal/user"
	userStore "github.com/clairehq/claire/internal/user/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	objects, err := objectstore.New(ctx, objectstore.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Secure:    cfg.Minio.Secure,
		Bucket:    cfg.Minio.Bucket,
	})
	if err != nil {
		slog.Error("failed to connect to object store", "error", err)
		os.Exit(1)
	}

	aiClient, err := ai.NewClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		slog.Error("failed to create ai client", "error", err)
		os.Exit(1)
	}

	generator := aiClient.Generator()

	var (
		userService        = user.NewService(userStore.New(db))
		transactionService = transaction.NewService(txStore.New(db))
		subscriptionSvc    = subscription.NewService(subscriptionStore.New(db), subscription.NewModelClassifier(generator))
		insightService     = insight.NewService(insightStore.New(db), transactionService, insight.NewModelAnalyzer(generator))
		uploadService      = upload.NewService(uploadStore.New(db), objects,
			statement.NewPDFExtractor(generator), statement.NewCSVParser(),
			transactionService, insightService)
		goalService = goal.NewService(goalStore.New(db))
		planService = plan.NewService(planStore.New(db), transactionService,
			uploadService, plan.NewModelGenerator(generator))
		chatService   = chat.NewService(chatStore.New(db), chat.NewAgent(generator, transactionService))
		exportService = export.NewService(transactionService)
	)

	var (
		healthH   = healthHandler.NewHandler(cfg.App.Name, cfg.App.Environment, db, objects)
		usersH    = usersHandler.NewHandler()
		uploadsH  = uploadsHandler.NewHandler(uploadService)
		queryH    = queryHandler.NewHandler(transactionService, subscriptionSvc)
		insightsH = insightsHandler.NewHandler(insightService)
		goalsH    = goalsHandler.NewHandler(goalService)
		plansH    = plansHandler.NewHandler(planService)
		chatbotH  = chatbotHandler.NewHandler(chatService)
		exportH   = exportHandler.NewHandler(exportService)
	)

	verifier := auth.NewVerifier(auth.NewKeySet(cfg.Auth.JWKSURL))
	authenticate := auth.Middleware(verifier, userService)

	router := claireHttp.New(authenticate, cfg.App.AllowedOrigins,
		healthH, usersH, uploadsH, queryH, insightsH, goalsH, plansH, chatbotH, exportH)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "addr", addr)

	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: cfg.Server.Timeout,
		IdleTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
