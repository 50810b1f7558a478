package app

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/phenrril/templemart/internal/adapters/api"
	"github.com/phenrril/templemart/internal/adapters/httpserver"
	"github.com/phenrril/templemart/internal/adapters/repo/postgres"
	"github.com/phenrril/templemart/internal/config"
	"github.com/phenrril/templemart/internal/domain"
	"github.com/phenrril/templemart/internal/task"
	"github.com/phenrril/templemart/internal/usecase"
)

type App struct {
	DB           *gorm.DB
	Config       config.Config
	VariationUC  *usecase.VariationUC
	Drafts       *postgres.DraftRepo
	DraftCleanup *task.DraftCleanup
}

func NewApp(cfg config.Config, db *gorm.DB) (*App, error) {
	client := api.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout)
	drafts := postgres.NewDraftRepo(db)

	app := &App{DB: db, Config: cfg, Drafts: drafts}
	app.VariationUC = &usecase.VariationUC{
		Catalog:           client,
		Products:          client,
		Submitter:         client,
		Images:            client,
		Drafts:            drafts,
		DeactivateDropped: cfg.DeactivateDropped,
	}
	app.DraftCleanup = task.NewDraftCleanup(drafts, cfg.DraftTTL, cfg.DraftCleanupSpec).
		WithSessions(app.VariationUC, cfg.SessionIdle)
	return app, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.VariationUC)
}

func (a *App) Migrate() error {
	return a.DB.AutoMigrate(&domain.Draft{})
}
