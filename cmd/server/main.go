package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/magazix/catalog-service/app/catalog"
	"github.com/magazix/catalog-service/app/products"
	"github.com/magazix/catalog-service/cache"
	"github.com/magazix/catalog-service/config"
	"github.com/magazix/catalog-service/middleware"
	"github.com/magazix/catalog-service/models"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.Category{},
		&models.ProductType{},
		&models.Product{},
		&models.ProductImage{},
	); err != nil {
		log.Fatal("failed to migrate schema", zap.Error(err))
	}

	var store cache.Store = cache.Noop{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = cache.NewRedis(client, cfg.Redis.Prefix, cfg.Redis.TTL)
		log.Info("listing cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	categories := models.NewCategoriesRepository(db)
	productTypes := models.NewProductTypesRepository(db)
	productsRepo := models.NewProductsRepository(db)
	images := models.NewImagesRepository(db)

	catalogHandler := catalog.NewCatalogHandler(categories, productsRepo, store)
	productsHandler := products.NewProductsHandler(productTypes, productsRepo, images)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", catalogHandler.HandleGetCategories)
	mux.HandleFunc("POST /categories", catalogHandler.HandleCreateCategory)
	mux.HandleFunc("GET /category/{slug}", catalogHandler.HandleGetCategory)
	mux.HandleFunc("DELETE /category/{slug}", catalogHandler.HandleDeleteCategory)
	mux.HandleFunc("POST /category/{slug}/move", catalogHandler.HandleMoveCategory)
	mux.HandleFunc("GET /category/{slug}/products", catalogHandler.HandleGetCategoryProducts)
	mux.HandleFunc("GET /type/{slug}", productsHandler.HandleGetType)
	mux.HandleFunc("DELETE /type/{slug}", productsHandler.HandleDeleteType)
	mux.HandleFunc("GET /product/{sku}", productsHandler.HandleGetProduct)
	mux.HandleFunc("POST /product/{sku}/images", productsHandler.HandleAddImage)

	handler := middleware.RequestLogger(log)(middleware.InjectMessages(mux))

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
