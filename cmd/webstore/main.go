package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akozlov/webstore/internal/api/handlers"
	"github.com/akozlov/webstore/internal/api/middleware"
	"github.com/akozlov/webstore/internal/cache"
	"github.com/akozlov/webstore/internal/config"
	"github.com/akozlov/webstore/internal/health"
	"github.com/akozlov/webstore/internal/metrics"
	repository "github.com/akozlov/webstore/internal/repositories"
	service "github.com/akozlov/webstore/internal/services"
	"github.com/akozlov/webstore/internal/storage"
	"github.com/akozlov/webstore/internal/telemetry"
	"github.com/akozlov/webstore/pkg/sendgrid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing
	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg)
	if err != nil {
		slog.Error("Error initializing tracing", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("Error shutting down tracer", slog.Any("error", err))
		}
	}()

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("Error accessing the database", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		}
	}()

	// Redis setup
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		slog.Error("Error accessing the redis instance", slog.Any("error", err))
		os.Exit(1)
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("Error closing redis connection", slog.Any("error", err))
		}
	}()

	productCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	rateLimitRepo := repository.NewRateLimitRepo(redisClient, cfg)

	imageStore, err := storage.NewImageStore(cfg.Uploads.Dir)
	if err != nil {
		slog.Error("Error preparing the uploads directory", slog.Any("error", err))
		os.Exit(1)
	}

	var emailService sendgrid.EmailService
	if cfg.SendGrid.APIKey != "" {
		emailService = sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	jwtKey := []byte(cfg.Security.JWTKey)

	// Services and handlers
	userService := service.NewUserService(repos.User, repos.Order, repos.Review, rateLimitRepo, jwtKey)
	userHandler := handlers.NewUserHandler(userService)
	categoryService := service.NewCategoryService(repos.Category)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productService := service.NewProductService(repos.Product, repos.Category, productCache, imageStore, cfg.BaseURL)
	productHandler := handlers.NewProductHandler(productService)
	variantService := service.NewVariantService(repos.Variant, repos.Product)
	variantHandler := handlers.NewVariantHandler(variantService)
	cartService := service.NewCartService(repos.Cart, repos.Variant)
	cartHandler := handlers.NewCartHandler(cartService)
	orderService := service.NewOrderService(repos.Order, repos.Cart, repos.Variant, repos.User, emailService)
	orderHandler := handlers.NewOrderHandler(orderService)
	reviewService := service.NewReviewService(repos.Review, repos.Product)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("Error creating health handler", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()

	// auth
	routerMux.HandleFunc("POST /api/auth/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/auth/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/auth/me", authMiddleware.Authenticate(userHandler.Profile()))
	routerMux.HandleFunc("GET /api/auth/check-email", userHandler.CheckEmail())

	// categories
	routerMux.HandleFunc("GET /api/categories", categoryHandler.ListCategories())
	routerMux.HandleFunc("GET /api/categories/{id}", categoryHandler.GetCategory())
	routerMux.HandleFunc("POST /api/categories", authMiddleware.Authenticate(authMiddleware.RequireAdmin(categoryHandler.CreateCategory())))
	routerMux.HandleFunc("PUT /api/categories/{id}", authMiddleware.Authenticate(authMiddleware.RequireAdmin(categoryHandler.UpdateCategory())))
	routerMux.HandleFunc("DELETE /api/categories/{id}", authMiddleware.Authenticate(authMiddleware.RequireAdmin(categoryHandler.DeleteCategory())))

	// products
	routerMux.HandleFunc("GET /api/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/products/{id}", productHandler.GetProduct())
	routerMux.HandleFunc("POST /api/products", authMiddleware.Authenticate(authMiddleware.RequireAdmin(productHandler.CreateProduct())))
	routerMux.HandleFunc("PUT /api/products/{id}", authMiddleware.Authenticate(authMiddleware.RequireAdmin(productHandler.UpdateProduct())))
	routerMux.HandleFunc("DELETE /api/products/{id}", authMiddleware.Authenticate(authMiddleware.RequireAdmin(productHandler.DeleteProduct())))

	// product variants
	routerMux.HandleFunc("GET /api/products/{productId}/variants", variantHandler.ListVariants())
	routerMux.HandleFunc("GET /api/products/{productId}/variants/{id}", variantHandler.GetVariant())
	routerMux.HandleFunc("POST /api/products/{productId}/variants", authMiddleware.Authenticate(authMiddleware.RequireAdmin(variantHandler.CreateVariant())))
	routerMux.HandleFunc("PUT /api/products/{productId}/variants/{id}", authMiddleware.Authenticate(authMiddleware.RequireAdmin(variantHandler.UpdateVariant())))
	routerMux.HandleFunc("DELETE /api/products/{productId}/variants/{id}", authMiddleware.Authenticate(authMiddleware.RequireAdmin(variantHandler.DeleteVariant())))

	// reviews
	routerMux.HandleFunc("GET /api/products/{productId}/reviews", reviewHandler.ListReviews())
	routerMux.HandleFunc("GET /api/products/{productId}/reviews/can-review", authMiddleware.Authenticate(reviewHandler.CanReview()))
	routerMux.HandleFunc("GET /api/products/{productId}/reviews/{id}", reviewHandler.GetReview())
	routerMux.HandleFunc("POST /api/products/{productId}/reviews", authMiddleware.Authenticate(reviewHandler.CreateReview()))
	routerMux.HandleFunc("PUT /api/products/{productId}/reviews/{id}", authMiddleware.Authenticate(reviewHandler.UpdateReview()))
	routerMux.HandleFunc("DELETE /api/products/{productId}/reviews/{id}", authMiddleware.Authenticate(reviewHandler.DeleteReview()))

	// cart
	routerMux.HandleFunc("GET /api/cart", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/cart/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/cart/items/{itemId}", authMiddleware.Authenticate(cartHandler.UpdateItem()))
	routerMux.HandleFunc("DELETE /api/cart/items/{itemId}", authMiddleware.Authenticate(cartHandler.RemoveItem()))

	// orders
	routerMux.HandleFunc("POST /api/orders", authMiddleware.Authenticate(orderHandler.CreateOrder()))
	routerMux.HandleFunc("GET /api/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("GET /api/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("PUT /api/orders/{id}/status", authMiddleware.Authenticate(authMiddleware.RequireAdmin(orderHandler.UpdateStatus())))

	// users (admin surface + self access)
	routerMux.HandleFunc("GET /api/users", authMiddleware.Authenticate(authMiddleware.RequireAdmin(userHandler.ListUsers())))
	routerMux.HandleFunc("GET /api/users/{id}", authMiddleware.Authenticate(userHandler.GetUser()))
	routerMux.HandleFunc("GET /api/users/{id}/orders", authMiddleware.Authenticate(userHandler.GetUserOrders()))
	routerMux.HandleFunc("GET /api/users/{id}/reviews", authMiddleware.Authenticate(userHandler.GetUserReviews()))
	routerMux.HandleFunc("PUT /api/users/{id}", authMiddleware.Authenticate(userHandler.UpdateUser()))
	routerMux.HandleFunc("DELETE /api/users/{id}", authMiddleware.Authenticate(authMiddleware.RequireAdmin(userHandler.DeleteUser())))
	routerMux.HandleFunc("PATCH /api/users/{id}/role", authMiddleware.Authenticate(authMiddleware.RequireAdmin(userHandler.ChangeRole())))

	// operational endpoints
	routerMux.Handle("GET /healthz", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(imageStore.Dir()))))

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "webstore")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.Any("error", err))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.Any("error", err))
	} else {
		slog.Info("Server shut down gracefully. All connections closed.")
	}
}
