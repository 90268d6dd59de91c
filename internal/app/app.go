package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/arnavshah/festival-planner-go/internal/config"
	appLog "github.com/arnavshah/festival-planner-go/internal/log"
	"github.com/arnavshah/festival-planner-go/pkg/auth"
	"github.com/arnavshah/festival-planner-go/pkg/database"
	"github.com/arnavshah/festival-planner-go/pkg/handlers"
	"github.com/arnavshah/festival-planner-go/pkg/ics"
	"github.com/arnavshah/festival-planner-go/pkg/scheduler"
	"github.com/arnavshah/festival-planner-go/pkg/stats"
)

// App bundles the loaded configuration with the wired handler.
type App struct {
	Env     config.Env
	Config  *config.Config
	DB      *gorm.DB
	Handler *handlers.Handler
}

// New loads the festival config, opens the database and wires the engines
// into a Handler.
func New(env config.Env) (*App, error) {
	appLog.SetLevel(appLog.ParseLevel(env.LogLevel))

	cfg, err := config.Load(env.FestivalConfig)
	if err != nil {
		return nil, fmt.Errorf("load festival config: %w", err)
	}
	lineup, err := cfg.Lineup()
	if err != nil {
		return nil, fmt.Errorf("festival config %s: %w", env.FestivalConfig, err)
	}

	db, err := database.Open(env.DatabaseURL, env.DataPath)
	if err != nil {
		return nil, err
	}

	if env.JWTSecret == "" || env.APIMasterSecret == "" {
		appLog.Info("JWT_SECRET or API_MASTER_SECRET is empty; admin login or API keys will not work")
	}
	authn := auth.NewAuthenticator(env.JWTSecret, env.APIMasterSecret)
	if err := authn.EnsureAdminExists(db, env.AdminUsername, env.AdminPassword); err != nil {
		appLog.Error("ensure admin failed", err)
	}

	sched := scheduler.NewScheduler(lineup, cfg.SchedulerConfig())
	h := &handlers.Handler{
		DB:         db,
		Auth:       authn,
		Lineup:     lineup,
		Scheduler:  sched,
		Aggregator: stats.NewAggregator(lineup, cfg.StatsConfig()),
		Exporter:   ics.NewExporter(lineup, sched.Clock, cfg.Location()),
	}

	appLog.Info("festival loaded",
		"config", env.FestivalConfig,
		"days", len(lineup.Days),
		"stage_groups", len(lineup.StageGroups),
	)
	return &App{Env: env, Config: cfg, DB: db, Handler: h}, nil
}
