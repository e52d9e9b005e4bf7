package engine

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/edurisk/edurisk/pkg/config"
	"github.com/edurisk/edurisk/pkg/data"
	"github.com/edurisk/edurisk/pkg/logging"
	"github.com/edurisk/edurisk/pkg/model"
	"github.com/edurisk/edurisk/pkg/risk"
	"github.com/edurisk/edurisk/pkg/scheduler"
	"github.com/pkg/errors"
)

// Engine assembles the scoring stack from a config directory: sqlite
// store, predictor, and the cron scheduler around it.
type Engine struct {
	cfg       *config.Config
	store     *data.Store
	predictor *risk.Predictor
	scheduler *scheduler.Scheduler
}

// New opens (or creates) the database under dirPath, reads the config,
// and wires the predictor. When the registry holds an active model
// version it is loaded; otherwise the engine starts on the heuristic
// path.
func New(dirPath string) (*Engine, error) {
	cfg, err := config.ReadOrCreate(dirPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	logging.Setup(cfg.LogLevel)

	dbPath := filepath.Join(dirPath, data.DataFileName)
	if err := data.Init(dbPath); err != nil {
		return nil, errors.Wrap(err, "failed to initialize database")
	}
	db, err := data.GetDB(dbPath)
	if err != nil {
		return nil, err
	}

	store := data.NewStore(db)
	predictor := risk.New(store, store)
	predictor.Classifier().SetLearningRate(cfg.LearningRate)
	predictor.Classifier().SetMaxIterations(cfg.MaxIterations)
	if err := predictor.SetThresholds(model.Thresholds{
		Low:    cfg.LowThreshold,
		Medium: cfg.MediumThreshold,
		High:   cfg.HighThreshold,
	}); err != nil {
		return nil, errors.Wrap(err, "invalid thresholds in config")
	}

	if err := predictor.LoadActiveModel(); err != nil {
		slog.Info("no active model version, using heuristic scoring", "reason", err)
	}

	return &Engine{
		cfg:       cfg,
		store:     store,
		predictor: predictor,
		scheduler: scheduler.New(predictor, store, cfg),
	}, nil
}

func (e *Engine) Config() *config.Config {
	return e.cfg
}

func (e *Engine) Store() *data.Store {
	return e.store
}

func (e *Engine) Predictor() *risk.Predictor {
	return e.predictor
}

// Start begins the background task schedule.
func (e *Engine) Start() error {
	return e.scheduler.Start()
}

// Stop halts the schedule and closes the database.
func (e *Engine) Stop(ctx context.Context) error {
	err := e.scheduler.Stop(ctx)
	if closeErr := e.store.DB().Close(); err == nil {
		err = closeErr
	}
	return err
}
