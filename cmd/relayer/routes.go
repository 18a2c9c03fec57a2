package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"pay-chain.backend/internal/interfaces/http/handlers"
	"pay-chain.backend/internal/interfaces/http/middleware"
	"pay-chain.backend/pkg/jwt"
)

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// registerAdminRoutes wires the operator status/admin API: read-only
// snapshots are open, the update trigger and rebalance preview require
// operator auth.
func registerAdminRoutes(r *gin.Engine, admin *handlers.AdminHandler, jwtService *jwt.JWTService) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", admin.GetStatus)
		v1.GET("/prices", admin.GetPrice)
		v1.GET("/gas-costs", admin.GetGasCosts)

		authed := v1.Group("")
		authed.Use(middleware.OperatorAuthMiddleware(jwtService))
		authed.POST("/update", admin.TriggerUpdate)
		authed.POST("/rebalance/preview", admin.PreviewRebalances)
	}
}
