package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arnavshah/festival-planner-go/internal/app"
	"github.com/arnavshah/festival-planner-go/internal/config"
	appLog "github.com/arnavshah/festival-planner-go/internal/log"
	"github.com/arnavshah/festival-planner-go/pkg/handlers"
)

var r *gin.Engine

func init() {
	// .env only matters for local runs with vercel dev
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	gin.SetMode(gin.ReleaseMode)

	a, err := app.New(config.ReadEnv())
	if err != nil {
		appLog.Error("startup failed", err)
		r = gin.New()
		r.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service not configured"})
		})
		return
	}
	r = handlers.NewRouter(a.Handler)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
