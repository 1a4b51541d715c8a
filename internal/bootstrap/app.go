package bootstrap

import (
	"github.com/gin-gonic/gin"

	"tailor-backend/internal/llm"
	"tailor-backend/internal/shared/config"
	"tailor-backend/internal/shared/server"
)

// App holds shared dependencies wired once at process start.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	Orchestrator *llm.Orchestrator
}

// New loads configuration and wires the orchestrator and router.
func New() *App {
	cfg := config.Load()
	orchestrator := llm.NewOrchestrator(llm.DefaultSettings())

	return &App{
		Config:       cfg,
		Router:       server.NewRouter(cfg, orchestrator),
		Orchestrator: orchestrator,
	}
}
