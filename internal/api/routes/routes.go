package routes

import (
	"net/http"

	"solar-scm-api-server/config"
	"solar-scm-api-server/internal/api/handlers"
	"solar-scm-api-server/internal/api/middleware"
	"solar-scm-api-server/internal/auth"
	"solar-scm-api-server/internal/metrics"
	"solar-scm-api-server/internal/report"
	"solar-scm-api-server/internal/s3"
	"solar-scm-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SetupRouter wires the handlers and middleware into a gin engine.
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	authSvc *auth.Service,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
	reportClient *report.Client,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(metrics.Middleware())

	allowOrigins := cfg.CORS.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	userHandler := &handlers.UserHandler{DB: db, AuthSvc: authSvc}
	productHandler := &handlers.ProductHandler{DB: db}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	inventoryHandler := &handlers.InventoryHandler{DB: db}
	stockRequestHandler := &handlers.StockRequestHandler{DB: db, S3Uploader: s3Uploader, Hub: wsHub}
	stockReturnHandler := &handlers.StockReturnHandler{DB: db, Hub: wsHub}
	saleHandler := &handlers.SaleHandler{DB: db}
	quotationHandler := &handlers.QuotationHandler{DB: db, Report: reportClient}
	dashboardHandler := &handlers.DashboardHandler{DB: db}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, AuthSvc: authSvc}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/login", userHandler.Login)
		}

		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(authSvc))
		{
			protected.GET("/me", userHandler.Me)

			users := protected.Group("/users")
			users.Use(middleware.Authorize("super-admin", "admin"))
			{
				users.POST("/", userHandler.CreateUser)
				users.GET("/", userHandler.GetUsers)
			}

			products := protected.Group("/products")
			{
				products.GET("/", productHandler.GetAllProducts)
				products.GET("/:id", productHandler.GetProductByID)

				manage := products.Group("/")
				manage.Use(middleware.Authorize("super-admin"))
				{
					manage.POST("/", productHandler.CreateProduct)
					manage.PUT("/:id", productHandler.UpdateProduct)
					manage.DELETE("/:id", productHandler.DeleteProduct)
				}
			}

			categories := protected.Group("/categories")
			{
				categories.GET("/", categoryHandler.GetAllCategories)

				manage := categories.Group("/")
				manage.Use(middleware.Authorize("super-admin"))
				{
					manage.POST("/", categoryHandler.CreateCategory)
					manage.DELETE("/:id", categoryHandler.DeleteCategory)
				}
			}

			inventory := protected.Group("/inventory")
			{
				inventory.GET("/my", inventoryHandler.GetMyInventory)
				inventory.GET("/user/:id", middleware.Authorize("super-admin", "admin", "account"), inventoryHandler.GetInventoryByUser)
				inventory.POST("/receive", middleware.Authorize("super-admin"), inventoryHandler.ReceiveStock)
			}

			stockRequests := protected.Group("/stock-requests")
			{
				stockRequests.GET("/", stockRequestHandler.GetStockRequests)
				stockRequests.GET("/:id", stockRequestHandler.GetStockRequestByID)
				stockRequests.POST("/", middleware.Authorize("admin", "agent"), stockRequestHandler.CreateStockRequest)
				stockRequests.POST("/:id/dispatch", middleware.Authorize("super-admin", "admin"), stockRequestHandler.DispatchStockRequest)
				stockRequests.POST("/:id/confirm", middleware.Authorize("admin", "agent"), stockRequestHandler.ConfirmStockRequest)
				stockRequests.DELETE("/:id", stockRequestHandler.DeleteStockRequest)
			}

			stockReturns := protected.Group("/stock-returns")
			{
				stockReturns.GET("/", stockReturnHandler.GetStockReturns)
				stockReturns.POST("/", middleware.Authorize("admin", "agent"), stockReturnHandler.CreateStockReturn)
				stockReturns.POST("/:id/process", middleware.Authorize("super-admin", "admin"), stockReturnHandler.ProcessStockReturn)
			}

			sales := protected.Group("/sales")
			{
				sales.GET("/", saleHandler.GetSales)
				sales.GET("/:id", saleHandler.GetSaleByID)
				sales.POST("/", middleware.Authorize("admin", "agent"), saleHandler.CreateSale)
			}

			quotations := protected.Group("/quotations")
			{
				quotations.GET("/", quotationHandler.GetQuotations)
				quotations.GET("/:id", quotationHandler.GetQuotationByID)
				quotations.GET("/:id/pdf", quotationHandler.GetQuotationPDF)
				quotations.POST("/", middleware.Authorize("admin", "agent"), quotationHandler.CreateQuotation)
			}

			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/stats", dashboardHandler.GetStats)
			}
		}
	}

	return router
}
