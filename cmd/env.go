package main

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/expansion-cli/internal/cluster"
	"github.com/sells-group/expansion-cli/internal/importer"
	"github.com/sells-group/expansion-cli/internal/model"
	"github.com/sells-group/expansion-cli/internal/monitoring"
	"github.com/sells-group/expansion-cli/internal/orchestrator"
	"github.com/sells-group/expansion-cli/internal/pipeline"
	"github.com/sells-group/expansion-cli/internal/store"
	"github.com/sells-group/expansion-cli/internal/strategy"
	"github.com/sells-group/expansion-cli/pkg/demographics"
	"github.com/sells-group/expansion-cli/pkg/overpass"
	"github.com/sells-group/expansion-cli/pkg/rationale"
)

// scoringEnv holds the initialized store, strategies, orchestrator, and
// processor shared by the score/batch/clusters/serve commands.
type scoringEnv struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Processor    *pipeline.Processor
	Analyzer     *cluster.Analyzer
	Monitor      *monitoring.Monitor
	Registry     *prometheus.Registry
	Rationale    rationale.Generator
}

// Close releases resources held by the environment.
func (e *scoringEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config, opens the cache store, and wires the four
// strategies into an orchestrator and batch processor. Callers should
// defer env.Close().
func initEnv(ctx context.Context) (*scoringEnv, error) {
	if err := cfg.Strategy.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	poiClient := overpass.New(cfg.Overpass)
	demoClient := demographics.NewClient(
		cfg.Demographics.APIKey,
		cfg.Demographics.BaseURL,
		demographics.WithSource(cfg.Demographics.Source),
	)
	analyzer := cluster.NewAnalyzer(cfg.Strategy, st)

	reg := strategy.NewRegistry()
	impls := []strategy.ExpansionStrategy{
		strategy.NewWhiteSpaceStrategy(),
		strategy.NewEconomicStrategy(demoClient, st),
		strategy.NewAnchorStrategy(poiClient, st),
		strategy.NewClusterStrategy(analyzer),
	}
	for _, impl := range impls {
		if err := reg.Register(cfg.Strategy, impl); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	orch, err := orchestrator.New(cfg.Strategy, reg, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	env := &scoringEnv{
		Store:        st,
		Orchestrator: orch,
		Processor:    pipeline.New(orch, cfg.Strategy),
		Analyzer:     analyzer,
		Monitor:      monitoring.New(promReg),
		Registry:     promReg,
	}

	if cfg.Anthropic.Key != "" {
		env.Rationale = rationale.New(cfg.Anthropic)
	} else {
		zap.L().Debug("EXPANSION_ANTHROPIC_KEY not set, narrative rationale disabled")
	}

	return env, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadStores reads the store network from a CSV or shapefile path.
func loadStores(path string) ([]model.Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return importer.LoadCSV(path)
	case ".shp":
		return importer.LoadShapefile(path)
	default:
		return nil, eris.Errorf("unsupported store network format %q", filepath.Ext(path))
	}
}

// expansionContext bundles the loaded network with the run config.
func expansionContext(stores []model.Store, region string) *model.ExpansionContext {
	return &model.ExpansionContext{
		Stores:    stores,
		Region:    region,
		Config:    cfg.Strategy,
		Timestamp: time.Now().UTC(),
	}
}
