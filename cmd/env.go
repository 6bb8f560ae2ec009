package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/tariff-impact/internal/kv"
	"github.com/sells-group/tariff-impact/internal/profile"
	"github.com/sells-group/tariff-impact/internal/validate"
)

// appEnv holds the opened key-value backend and the profile store built on it.
type appEnv struct {
	KV      kv.Store
	Profile *profile.Store
}

// Close releases the key-value backend.
func (e *appEnv) Close() {
	if e.KV != nil {
		if err := e.KV.Close(); err != nil {
			zap.L().Warn("close kv store", zap.Error(err))
		}
	}
}

// initEnv validates the config for mode, opens the configured backend and
// loads the profile. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	v, err := initValidator()
	if err != nil {
		return nil, err
	}

	st, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	ps := profile.New(ctx, st, v, profile.Options{
		ProfileKey: cfg.Store.ProfileKey,
		SummaryKey: cfg.Store.SummaryKey,
	})
	return &appEnv{KV: st, Profile: ps}, nil
}

// initValidator builds the step validator from the compiled-in table, or
// from validation.steps_file when set.
func initValidator() (*validate.Validator, error) {
	stepCfg := validate.DefaultConfig()
	if path := cfg.Validation.StepsFile; path != "" {
		c, err := validate.LoadConfig(path)
		if err != nil {
			return nil, eris.Wrap(err, "load step config")
		}
		stepCfg = c
		zap.L().Debug("step config loaded", zap.String("path", path), zap.Int("steps", len(c.Steps)))
	}

	opts := validate.DefaultOptions()
	if days := cfg.Validation.StaleAfterDays; days > 0 {
		opts.StaleAfter = time.Duration(days) * 24 * time.Hour
	}
	if c := cfg.Validation.MinExternalConfidence; c > 0 {
		opts.MinExternalConfidence = c
	}
	return validate.New(stepCfg, opts), nil
}
