package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	httpadapter "clearance/internal/adapters/http"
	"clearance/internal/adapters/memory"
	pg "clearance/internal/adapters/postgres"
	redisadapter "clearance/internal/adapters/redis"
	"clearance/internal/adapters/rulesfile"
	"clearance/internal/config"
	"clearance/internal/domain"
	"clearance/internal/logging"
	"clearance/internal/ports"
	"clearance/internal/services/compliance"
	"clearance/internal/services/normalizer"
	rulesvc "clearance/internal/services/rules"
	"clearance/internal/services/sampler"
	"clearance/internal/services/submissions"
	"clearance/internal/workers/evalpool"
)

func main() {
	cfg, cfgErr := config.Load()
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		log = zap.NewExample()
	}
	defer func() { _ = log.Sync() }()

	switch {
	case errors.Is(cfgErr, config.ErrNoDatabase):
		log.Warn("DATABASE_URL not set, serving generated sample records")
	case cfgErr != nil:
		log.Fatal("config error", zap.Error(cfgErr))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mapping := normalizer.DefaultMapping()
	if cfg.MappingFile != "" {
		if mapping, err = normalizer.LoadMapping(cfg.MappingFile); err != nil {
			log.Fatal("mapping file", zap.String("path", cfg.MappingFile), zap.Error(err))
		}
	}
	clock := ports.SystemClock{}
	norm := normalizer.New(mapping, clock)
	engine := compliance.NewEngine(compliance.Options{
		RequiredDocuments: cfg.RequiredDocuments,
		AttentionScore:    cfg.FinancialAttentionScore,
		FailScore:         cfg.FinancialFailScore,
	}, clock)

	store := compliance.NewRuleStore(domain.RuleConfig{RestrictedCodes: cfg.RestrictedCodes, RuleEnabled: cfg.RuleEnabled})
	rules := rulesvc.New(store, log)
	if cfg.RulesFile != "" {
		patch, err := rulesfile.Load(cfg.RulesFile)
		if err != nil {
			log.Fatal("rules file", zap.String("path", cfg.RulesFile), zap.Error(err))
		}
		rules.Update(ctx, patch)
		w := rulesfile.NewWatcher(cfg.RulesFile, func(p domain.RuleConfigPatch) { rules.Update(ctx, p) }, log)
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("rules file watcher stopped", zap.Error(err))
			}
		}()
	}

	var source ports.RecordSource
	mode := "sample"
	if cfg.SampleMode() {
		seed := cfg.SampleSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		gen := sampler.New(rand.New(rand.NewSource(seed)), clock)
		source = memory.New(gen.Records(cfg.SampleCount)...)
		log.Info("sample records generated", zap.Int("count", cfg.SampleCount), zap.Int64("seed", seed))
	} else {
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("db connect error", zap.Error(err))
		}
		defer db.Close()
		if cfg.RunMigrations {
			if err := pg.Migrate(ctx, db); err != nil {
				log.Fatal("migrations failed", zap.Error(err))
			}
		}
		source = db
		mode = "store"
	}

	var cache ports.RecordCache
	if cfg.RedisAddr != "" {
		client, err := redisadapter.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("record cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cache = redisadapter.NewCache(client, cfg.CacheTTL)
		}
	}

	subs := submissions.New(submissions.Deps{
		Source:     source,
		Cache:      cache,
		Normalizer: norm,
		Engine:     engine,
		Rules:      store,
		Pool:       evalpool.New(cfg.EvalWorkers),
		Log:        log,
	})
	srv := httpadapter.New(subs, rules, httpadapter.Options{Mode: mode, CORSOrigins: cfg.CORSOrigins, Log: log})
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("listening", zap.String("addr", cfg.ListenAddr), zap.String("mode", mode), zap.String("env", cfg.Env))

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}
}
