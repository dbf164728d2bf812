// 电商后端主程序
// 提供商品目录、购物车、特价、订单、客户与推荐的 HTTP 服务
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	cartmysql "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/ecommerce/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/mysql"
	catalogredis "github.com/wyfcoding/ecommerce/internal/catalog/infrastructure/persistence/redis"
	cataloghttp "github.com/wyfcoding/ecommerce/internal/catalog/interfaces/http"
	customerapp "github.com/wyfcoding/ecommerce/internal/customer/application"
	customerdomain "github.com/wyfcoding/ecommerce/internal/customer/domain"
	customermysql "github.com/wyfcoding/ecommerce/internal/customer/infrastructure/persistence/mysql"
	customerhttp "github.com/wyfcoding/ecommerce/internal/customer/interfaces/http"
	offerapp "github.com/wyfcoding/ecommerce/internal/offer/application"
	offerdomain "github.com/wyfcoding/ecommerce/internal/offer/domain"
	offermysql "github.com/wyfcoding/ecommerce/internal/offer/infrastructure/persistence/mysql"
	offerhttp "github.com/wyfcoding/ecommerce/internal/offer/interfaces/http"
	orderapp "github.com/wyfcoding/ecommerce/internal/order/application"
	orderdomain "github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/ecommerce/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/ecommerce/internal/order/interfaces/http"
	ratingapp "github.com/wyfcoding/ecommerce/internal/rating/application"
	ratingdomain "github.com/wyfcoding/ecommerce/internal/rating/domain"
	ratingmysql "github.com/wyfcoding/ecommerce/internal/rating/infrastructure/persistence/mysql"
	ratinghttp "github.com/wyfcoding/ecommerce/internal/rating/interfaces/http"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting ecommerce server",
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&catalogdomain.Product{},
		&catalogdomain.Category{},
		&cartdomain.Cart{},
		&cartdomain.CartItem{},
		&offerdomain.Offer{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&messaging.OutboxMessage{},
		&customerdomain.Customer{},
		&customerdomain.Address{},
		&ratingdomain.Rating{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database", "error", err)
	}

	// 4. 初始化 Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 5. 初始化 Kafka 生产者
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()

	consumer, err := mq.NewConsumer(mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}, cfg.Kafka.OrderTopic)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka consumer", "error", err)
	}
	defer consumer.Close()

	// 6. 仓储
	productRepo := catalogredis.NewCachedProductRepository(
		catalogmysql.NewProductRepository(database.DB), redisCache)
	categoryRepo := catalogmysql.NewCategoryRepository(database.DB)
	cartRepo := cartmysql.NewCartRepository(database.DB)
	offerRepo := offermysql.NewOfferRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	customerRepo := customermysql.NewCustomerRepository(database.DB)
	ratingRepo := ratingmysql.NewRatingRepository(database.DB)
	outbox := messaging.NewOutboxPublisher(database.DB)

	// 7. 应用服务
	catalogSvc := catalogapp.NewCatalogService(productRepo, categoryRepo)
	cartSvc := cartapp.NewCartService(cartRepo, productRepo, offerRepo)
	offerSvc := offerapp.NewOfferService(offerRepo, productRepo)
	orderSvc := orderapp.NewOrderService(database, orderRepo, cartRepo, productRepo, customerRepo, outbox)
	customerSvc := customerapp.NewCustomerService(customerRepo, cartSvc, customerapp.TokenConfig{
		Secret:      cfg.JWT.Secret,
		ExpireHours: cfg.JWT.ExpireHours,
	})
	recommender := ratingdomain.NewRecommender(cfg.Recommender.Neighbours)
	ratingSvc := ratingapp.NewRatingService(ratingRepo, productRepo, recommender, cfg.Recommender.TopN)

	// 启动时用库里已有的评分预热推荐快照
	if err := ratingSvc.Refit(ctx); err != nil {
		logger.Error(ctx, "Failed to warm up recommender", "error", err)
	}

	// 8. outbox 转发器与下单事件消费者
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	relay := messaging.NewOutboxRelay(database.DB, producer, cfg.Kafka.OrderTopic)
	go relay.Run(relayCtx)
	go messaging.NewOrderEventConsumer(consumer, redisCache).Run(relayCtx)

	// 9. HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.GinLogging(), middleware.GinRecovery(), middleware.GinCORS())
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	authOnly := customerhttp.AuthRequired(cfg.JWT.Secret)
	authOptional := customerhttp.AuthOptional(cfg.JWT.Secret)
	staffOnly := customerhttp.StaffOnly(cfg.JWT.Secret)

	root := engine.Group("")
	cataloghttp.NewCatalogHandler(catalogSvc).RegisterRoutes(root, staffOnly)
	carthttp.NewCartHandler(cartSvc).RegisterRoutes(root, authOptional)
	offerhttp.NewOfferHandler(offerSvc, cartSvc).RegisterRoutes(root, staffOnly, authOptional)
	orderhttp.NewOrderHandler(orderSvc, cfg.DTM.Enabled, orderapp.SagaConfig{
		Server:  cfg.DTM.Server,
		BaseURL: cfg.HTTP.BaseURL,
	}).RegisterRoutes(root, authOnly)
	customerhttp.NewCustomerHandler(customerSvc).RegisterRoutes(root, authOnly)
	ratinghttp.NewRatingHandler(ratingSvc).RegisterRoutes(root, authOnly)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	// 10. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server")

	stopRelay()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server forced to shutdown", "error", err)
	}
	logger.Info(ctx, "Server exited")
}
