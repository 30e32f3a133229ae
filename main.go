package main

import (
	"log"

	"image-steganography-backend/config"
	"image-steganography-backend/crypto"
	"image-steganography-backend/handlers"
	"image-steganography-backend/metrics"
	"image-steganography-backend/stego"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadFromOS()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.AllowAllOrigins() {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{
		"Content-Disposition", "X-Stego-Method", "X-Stego-Encrypted",
		"X-Stego-Capacity", "X-Stego-Payload-Bytes", "X-Stego-PSNR",
	}
	router.Use(cors.New(corsConfig))

	codec := stego.NewCodec(crypto.NewCipher(nil), stego.WithMaxPixelBytes(cfg.MaxPixelBytes()))
	stegoHandler := handlers.NewStegoHandler(codec, cfg.MaxUploadBytes())
	handlers.RegisterRoutes(router, stegoHandler)

	if cfg.EnableMetrics {
		metrics.RegisterMetrics()
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  POST /encode   (/api/v1/stego/encode)   - Hide a secret in an image (returns PNG)")
	log.Printf("  POST /decode   (/api/v1/stego/decode)   - Extract a secret from a stego PNG")
	log.Printf("  POST /capacity (/api/v1/stego/capacity) - Report how much an image can hold")
	log.Printf("  GET  /health   (/api/v1/health)         - Health check")
	if cfg.EnableMetrics {
		log.Printf("  GET  /metrics                           - Prometheus metrics")
	}
	log.Printf("Allowed origins: %v, upload limit: %d MB, image limit: %d MB", cfg.AllowedOrigins, cfg.MaxUploadMB, cfg.MaxImageMB)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
