// server/internal/api/routes/routes.go
package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"

	"quickmeds-api-server/config"
	"quickmeds-api-server/internal/api/handlers"
	"quickmeds-api-server/internal/api/middleware"
	"quickmeds-api-server/internal/auth"
	"quickmeds-api-server/internal/dispatch"
	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/notify"
	"quickmeds-api-server/internal/quote"
	"quickmeds-api-server/internal/registry"
	"quickmeds-api-server/internal/routing"
	"quickmeds-api-server/internal/s3"
	"quickmeds-api-server/internal/socket"
)

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route.
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	authService *auth.Service,
	partnerRegistry *registry.Registry,
	engine *dispatch.Engine,
	negotiation *quote.Negotiation,
	notifier *notify.Notifier,
	s3Uploader *s3.Uploader,
	oracle *routing.Oracle,
	wsHub *socket.Hub,
	promRegistry *prometheus.Registry,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	// Khởi tạo các handlers
	userHandler := &handlers.UserHandler{DB: db, Auth: authService, Registry: partnerRegistry}
	partnerHandler := &handlers.PartnerHandler{Registry: partnerRegistry, Engine: engine}
	dispatchHandler := &handlers.DispatchHandler{Engine: engine, Oracle: oracle, RadiusMeters: cfg.Dispatch.RadiusMeters}
	orderHandler := &handlers.OrderHandler{Engine: engine}
	prescriptionHandler := &handlers.PrescriptionHandler{Negotiation: negotiation, S3Uploader: s3Uploader}
	adminHandler := &handlers.AdminHandler{Registry: partnerRegistry, Negotiation: negotiation, Notifier: notifier}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, Auth: authService}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	{
		// Route cho WebSocket (stream offer của đối tác)
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===

		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
			auth.POST("/register", userHandler.Register)
		}

		// Kiểm tra vùng phục vụ, không cần JWT và không lộ dữ liệu đối tác.
		apiV1.GET("/delivery/available", partnerHandler.CheckAvailability)

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===

		// Nhóm API quản trị, yêu cầu vai trò admin
		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate(authService))
		admin.Use(middleware.Authorize(models.RoleAdmin))
		{
			partners := admin.Group("/partners")
			{
				partners.GET("/pending", adminHandler.GetPendingPartners)
				partners.GET("/approved", adminHandler.GetApprovedPartners)
				partners.POST("/:id/approve", adminHandler.ApprovePartner)
				partners.POST("/:id/reject", adminHandler.RejectPartner)
			}
			admin.GET("/prescriptions", adminHandler.GetPrescriptions)
		}

		// Nhóm các API nghiệp vụ chính
		businessRoutes := apiV1.Group("/")
		businessRoutes.Use(middleware.Authenticate(authService))
		{
			// Đối tác giao hàng tự quản trạng thái của mình
			partners := businessRoutes.Group("/partners")
			partners.Use(middleware.Authorize(models.RoleDelivery))
			{
				partners.POST("/active", partnerHandler.SetActive)
				partners.POST("/location", partnerHandler.UpdateLocation)
				partners.POST("/device-token", partnerHandler.RegisterDeviceToken)
				partners.GET("/orders", partnerHandler.GetMyOrders)
			}

			// Order management
			orders := businessRoutes.Group("/orders")
			{
				userOrderRoutes := orders.Group("/")
				userOrderRoutes.Use(middleware.Authorize(models.RoleUser, models.RoleAdmin))
				{
					userOrderRoutes.POST("/", orderHandler.CreateOrder)
				}

				orders.GET("/:id", orderHandler.GetOrder)
				orders.GET("/:id/eta", dispatchHandler.ETA)

				// Nhà thuốc cam kết chuẩn bị đơn
				pharmacyOrderRoutes := orders.Group("/")
				pharmacyOrderRoutes.Use(middleware.Authorize(models.RolePharmacy, models.RoleAdmin))
				{
					pharmacyOrderRoutes.POST("/:id/pharmacy-accept", orderHandler.PharmacyAccept)
				}

				// Điều phối: operator gán, đối tác phản hồi
				dispatchRoutes := orders.Group("/")
				dispatchRoutes.Use(middleware.Authorize(models.RoleAdmin))
				{
					dispatchRoutes.POST("/:id/assign", dispatchHandler.Assign)
					dispatchRoutes.POST("/:id/auto-assign", dispatchHandler.AutoAssign)
					dispatchRoutes.GET("/:id/next-candidate", dispatchHandler.NextCandidate)
				}

				partnerOrderRoutes := orders.Group("/")
				partnerOrderRoutes.Use(middleware.Authorize(models.RoleDelivery))
				{
					partnerOrderRoutes.POST("/:id/accept", dispatchHandler.Accept)
					partnerOrderRoutes.POST("/:id/reject", dispatchHandler.Reject)
					partnerOrderRoutes.POST("/:id/pickup", dispatchHandler.Pickup)
					partnerOrderRoutes.POST("/:id/deliver", dispatchHandler.Deliver)
				}
			}

			// Prescription negotiation
			prescriptions := businessRoutes.Group("/prescriptions")
			{
				userPrescriptionRoutes := prescriptions.Group("/")
				userPrescriptionRoutes.Use(middleware.Authorize(models.RoleUser))
				{
					userPrescriptionRoutes.POST("/", prescriptionHandler.Upload)
					userPrescriptionRoutes.GET("/mine", prescriptionHandler.GetMine)
					userPrescriptionRoutes.POST("/:id/accept", prescriptionHandler.AcceptQuote)
					userPrescriptionRoutes.POST("/:id/reject", prescriptionHandler.RejectQuotes)
				}

				prescriptions.GET("/:id", prescriptionHandler.Get)

				pharmacyQuoteRoutes := prescriptions.Group("/")
				pharmacyQuoteRoutes.Use(middleware.Authorize(models.RolePharmacy))
				{
					pharmacyQuoteRoutes.POST("/:id/quotes", prescriptionHandler.SubmitQuote)
				}
			}
		}
	}

	return router
}
