package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dinehub_backend/internal/database"
	"dinehub_backend/internal/metrics"
	"dinehub_backend/internal/realtime"
	routerpkg "dinehub_backend/internal/router"
	"dinehub_backend/pkg/utils"
)

func main() {
	utils.LoadEnv()
	utils.InitLogger()
	utils.InitJWT(utils.Getenv("JWT_SECRET", "dev-only-secret-change-me"))

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "dinehub_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "dinehub_password")
	dbName := utils.Getenv("DB_NAME", "dinehub_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")
	dbMaxConns := utils.GetenvInt("DB_MAX_OPEN_CONNS", 25)

	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath, dbMaxConns)
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbHost, "name": dbName})

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// The realtime hub feeds the subscriber gauge as clients come and go.
	hub := realtime.NewHub()
	hub.SetCountCallback(func(total int) {
		metrics.RealtimeSubscribers.Set(float64(total))
	})

	routerpkg.Setup(engine, database.GetDB(), hub)

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
