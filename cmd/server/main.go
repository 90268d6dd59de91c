package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/festival-planner-go/internal/app"
	"github.com/arnavshah/festival-planner-go/internal/config"
	appLog "github.com/arnavshah/festival-planner-go/internal/log"
	"github.com/arnavshah/festival-planner-go/pkg/handlers"
)

func main() {
	env := config.LoadEnv()
	if env.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(env)
	if err != nil {
		appLog.Error("startup failed", err)
		os.Exit(1)
	}

	pruner, err := a.StartPruner()
	if err != nil {
		appLog.Error("startup failed", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:    ":" + env.Port,
		Handler: handlers.NewRouter(a.Handler),
	}

	go func() {
		appLog.Info("server starting", "port", env.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("could not run server", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLog.Info("shutting down")
	<-pruner.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server shutdown failed", err)
	}
}
