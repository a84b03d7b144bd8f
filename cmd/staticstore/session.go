package main

import (
	"context"
	"fmt"
	"time"

	"staticstore/internal/config"
	"staticstore/internal/host"
	"staticstore/internal/hostfs"
	"staticstore/internal/plugin"
	"staticstore/internal/store"

	"go.uber.org/zap"
)

// session is one activation of the store over a host world.
type session struct {
	cfg     *config.Config
	world   *host.World
	storage *plugin.Storage
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	var fs hostfs.FileSystem = hostfs.OS{}
	if cfg.Storage.AsyncIO {
		fs = hostfs.NewAsync(ctx)
	}

	world := host.NewWorld()
	st, err := plugin.New(plugin.Options{
		FS:        fs,
		Location:  cfg.Location(),
		Accessors: world,
		Resolver:  world,
		Debounce:  cfg.GetDebounceInterval(),
		OnFatal: func(err error) {
			logger.Error("Storage deactivated", zap.String("slot", cfg.Location().Path()), zap.Error(err))
		},
	})
	if err != nil {
		if c, ok := fs.(*hostfs.Async); ok {
			_ = c.Close()
		}
		return nil, err
	}

	logger.Debug("Opened slot",
		zap.String("path", st.Path()),
		zap.String("activation", st.ID()),
		zap.Bool("async_io", cfg.Storage.AsyncIO))
	return &session{cfg: cfg, world: world, storage: st}, nil
}

func (s *session) Close() error { return s.storage.Close() }

// waitLoaded drives frames until the initial read finished.
func (s *session) waitLoaded(ctx context.Context) error {
	return runFrames(ctx, s.storage, fps, s.storage.IsLoadComplete)
}

// waitIdle drives frames until every accepted save reached the file.
func (s *session) waitIdle(ctx context.Context) error {
	return runFrames(ctx, s.storage, fps, s.storage.Idle)
}

// runFrames ticks the storage at the given frame rate until done reports true.
func runFrames(ctx context.Context, st *plugin.Storage, rate int, done func() bool) error {
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	last := time.Now()
	for {
		if st.IsFailed() {
			return fmt.Errorf("storage deactivated: %w", st.Err())
		}
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("slot did not settle (state %s): %w", st.State(), ctx.Err())
		case now := <-ticker.C:
			st.OnFrameTick(now.Sub(last))
			last = now
		}
	}
}

// parseValue interprets raw according to the accessor kind.
func parseValue(raw string, wantBool bool) (store.Value, error) {
	if wantBool {
		switch raw {
		case "on", "true", "1", "yes":
			return store.Bool(true), nil
		case "off", "false", "0", "no":
			return store.Bool(false), nil
		}
		return store.Value{}, fmt.Errorf("switch value must be on/off, got %q", raw)
	}
	var v store.Value
	if err := v.UnmarshalJSON([]byte(raw)); err != nil {
		return store.Value{}, fmt.Errorf("variable value must be a number, got %q", raw)
	}
	if v.Kind() != store.KindNumber || !v.IsValid() {
		return store.Value{}, fmt.Errorf("variable value must be a finite number, got %q", raw)
	}
	return v, nil
}
