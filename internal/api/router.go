package api

import (
	"parking_reservation/internal/api/handler"
	"parking_reservation/internal/api/middleware"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/metrics"
	"parking_reservation/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func SetupRouter(
	as *service.AuthService,
	ps *service.ParkingService,
	rs *service.ReservationService,
	authMw *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	wsManager *handler.WebSocketManager,
	logger *zerolog.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	metrics.Register()
	r.Use(func(c *gin.Context) {
		metrics.IncHTTP(c.FullPath())
		c.Next()
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager, logger)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	authRoutes.Use(rateLimiter.Limit())
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		locationH := handler.NewLocationHandler(ps)
		locationRoutes := v1.Group("/locations")
		{
			locationRoutes.POST("", authMw.AuthorizeRole(domain.RoleAdmin), locationH.CreateLocation)
			locationRoutes.GET("", locationH.GetAllLocations)
			locationRoutes.GET("/:id", locationH.GetLocationByID)
			locationRoutes.PUT("/:id", authMw.AuthorizeRole(domain.RoleAdmin), locationH.UpdateLocation)
			locationRoutes.DELETE("/:id", authMw.AuthorizeRole(domain.RoleAdmin), locationH.DeleteLocation)

			slotHNested := handler.NewParkingSlotHandler(ps)
			slotRoutesInLocation := locationRoutes.Group("/:id/slots")
			{
				slotRoutesInLocation.POST("", authMw.AuthorizeRole(domain.RoleAdmin), slotHNested.CreateSlot)
				slotRoutesInLocation.GET("", slotHNested.GetSlotsByLocation)
			}
		}

		slotH := handler.NewParkingSlotHandler(ps)
		reservationH := handler.NewReservationHandler(rs)
		slotRoutes := v1.Group("/slots")
		{
			slotRoutes.GET("", slotH.GetAllSlots)
			slotRoutes.GET("/:slot_id", slotH.GetSlotByID)
			slotRoutes.GET("/:slot_id/reservations", reservationH.GetSlotSchedule)
			slotRoutes.PUT("/:slot_id", authMw.AuthorizeRole(domain.RoleAdmin), slotH.UpdateSlot)
			slotRoutes.DELETE("/:slot_id", authMw.AuthorizeRole(domain.RoleAdmin), slotH.DeleteSlot)
		}

		reservationRoutes := v1.Group("/reservations")
		{
			reservationRoutes.POST("", reservationH.CreateReservation)
			reservationRoutes.GET("", authMw.AuthorizeRole(domain.RoleAdmin), reservationH.GetAllReservations)
			reservationRoutes.GET("/me", reservationH.GetMyReservations)
			reservationRoutes.DELETE("/:id", reservationH.CancelReservation)
		}
	}
	return r
}
