package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API under /api/v1 and keeps the bare /encode and
// /decode paths used by existing front-ends.
func RegisterRoutes(router *gin.Engine, h *StegoHandler) {
	router.GET("/health", h.HealthCheck)
	router.POST("/encode", h.Encode)
	router.POST("/decode", h.Decode)
	router.POST("/capacity", h.Capacity)

	api := router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		stego := api.Group("/stego")
		{
			stego.POST("/encode", h.Encode)
			stego.POST("/decode", h.Decode)
			stego.POST("/capacity", h.Capacity)
		}
	}
}
