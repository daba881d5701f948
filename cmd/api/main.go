package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/donhangtem/orderboard-backend/api"
	"github.com/donhangtem/orderboard-backend/api/routes"
	"github.com/donhangtem/orderboard-backend/internal/auth"
	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/internal/feed"
	"github.com/donhangtem/orderboard-backend/internal/media"
	"github.com/donhangtem/orderboard-backend/internal/notifications"
	"github.com/donhangtem/orderboard-backend/internal/orders"
	"github.com/donhangtem/orderboard-backend/internal/reviews"
	"github.com/donhangtem/orderboard-backend/internal/users"
	"github.com/donhangtem/orderboard-backend/pkg/auth/session"
	"github.com/donhangtem/orderboard-backend/pkg/config"
	"github.com/donhangtem/orderboard-backend/pkg/db"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/metrics"
	"github.com/donhangtem/orderboard-backend/pkg/migrate"
	"github.com/donhangtem/orderboard-backend/pkg/outbox"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/idempotency"
	"github.com/donhangtem/orderboard-backend/pkg/pubsub"
	"github.com/donhangtem/orderboard-backend/pkg/redis"
	"github.com/donhangtem/orderboard-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	boardMetrics := metrics.NewBoardMetrics(registry)

	boardStore := board.NewStore(nil, boardMetrics)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(gcsClient, logg, func() int64 {
		return time.Now().UnixMilli()
	})
	if err != nil {
		logg.Error(ctx, "failed to create media service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:         orders.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Outbox:       outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		ImageRemover: mediaService,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	reloadBoard := func(ctx context.Context) {
		rows, err := ordersService.List(ctx)
		if err != nil {
			logg.Error(ctx, "reload board snapshot", err)
			return
		}
		snapshot := make([]board.Order, 0, len(rows))
		for i := range rows {
			snapshot = append(snapshot, boardOrder(&rows[i]))
		}
		boardStore.ReplaceAll(snapshot)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		StateListener:  reloadBoard,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()), orders.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create reviews service", err)
		os.Exit(1)
	}

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.ConsumerIdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}

	feedConsumer, err := feed.NewConsumer(boardStore, pubsubClient.OrdersSubscription(), idempotencyManager, logg)
	if err != nil {
		logg.Error(ctx, "failed to create feed consumer", err)
		os.Exit(1)
	}

	// Initial snapshot before the feed starts so merges land on loaded state.
	reloadBoard(ctx)

	go func() {
		if err := feedConsumer.Run(ctx); err != nil && ctx.Err() == nil {
			logg.Error(ctx, "order change feed stopped", err)
			stop()
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	handler := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		Registry:       registry,
		DB:             dbClient,
		Redis:          redisClient,
		GCS:            gcsClient,
		PubSub:         pubsubClient,
		SessionManager: sessionManager,
		AuthService:    authService,
		BoardStore:     boardStore,
		OrdersService:  ordersService,
		ReviewsService: reviewsService,
		MediaService:   mediaService,
		PushRepo:       notifications.NewRepository(dbClient.DB()),
	})

	server := api.NewServer(addr, handler, logg)
	if err := server.Run(ctx); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}

func boardOrder(o *models.Order) board.Order {
	return board.Order{
		ID:           o.ID,
		Name:         o.Name,
		Factory:      o.Factory,
		Quantity:     o.Quantity,
		Unit:         o.Unit,
		DeliveryDate: o.DeliveryDate,
		Status:       o.Status,
		IsUrgent:     o.IsUrgent,
		ImageURL:     o.ImageURL,
		UserID:       o.UserID,
		CompletedAt:  o.CompletedAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}
