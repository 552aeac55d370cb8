package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/pflag"

	"mediarouter/internal/config"
	"mediarouter/internal/formatcache"
	"mediarouter/internal/handler/image"
	"mediarouter/internal/handler/pdf"
	"mediarouter/internal/handler/rename"
	"mediarouter/internal/pathstorage"
	"mediarouter/internal/router"
)

// commandContext lazily builds the shared config/router graph once per
// CLI invocation, mirroring the teacher's commandContext's
// sync.Once-guarded config load.
type commandContext struct {
	configFlag *string
	flags      *pflag.FlagSet

	routerOnce  sync.Once
	routerVal   *router.Router
	formatCache *formatcache.Store
	pathStore   *pathstorage.Store
	configVal   *config.Config
	routerErr   error
}

func newCommandContext(configFlag *string, flags *pflag.FlagSet) *commandContext {
	return &commandContext{configFlag: configFlag, flags: flags}
}

// renameTarget is the one fixed format the built-in renamer repacks
// any input into, standing in for spec.md §8's "renamer-style handler"
// example.
func renameTarget() router.Format {
	return router.Format{Name: "Plain Text", Code: "txt", Extension: ".txt", MIME: "text/plain"}
}

// ensureRouter builds the router graph on first call and caches it for
// the remainder of the process. modeOverride, when non-nil, takes
// precedence over cfg.Search.Mode — e.g. convert's --mode flag — so the
// registry is actually built in the mode the caller asked to search in,
// not just how option keys get parsed against it.
func (c *commandContext) ensureRouter(ctx context.Context, modeOverride *config.Mode) (*router.Router, *config.Config, error) {
	c.routerOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = *c.configFlag
		}
		cfg, err := config.Load(path, c.flags)
		if err != nil {
			c.routerErr = err
			return
		}
		if modeOverride != nil {
			cfg.Search.Mode = *modeOverride
		}
		c.configVal = cfg

		fc, err := formatcache.Open(cfg.Storage.FormatCachePath)
		if err != nil {
			c.routerErr = err
			return
		}
		c.formatCache = fc

		ps, err := pathstorage.Open(cfg.Storage.PathStorePath)
		if err != nil {
			c.routerErr = err
			return
		}
		c.pathStore = ps

		handlers := buildHandlers(cfg)
		mode := router.Simple
		if cfg.Search.Mode == config.ModeAdvanced {
			mode = router.Advanced
		}

		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		registry := router.NewRegistry(ctx, handlers, c.formatCache, mode, log)
		pathStore := router.NewPathStore(c.pathStore, registry)
		c.routerVal = router.NewRouter(registry, pathStore, cfg.SearchTimeout(), log)
	})
	return c.routerVal, c.configVal, c.routerErr
}

func (c *commandContext) close() {
	if c.formatCache != nil {
		c.formatCache.Close()
	}
	if c.pathStore != nil {
		c.pathStore.Close()
	}
}

func buildHandlers(cfg *config.Config) []router.Handler {
	available := map[string]router.Handler{
		"rename": rename.New(renameTarget()),
		"pdf":    pdf.New(),
		"image":  image.New(),
	}

	if len(cfg.Handlers.Enabled) == 0 {
		out := make([]router.Handler, 0, len(available))
		for _, h := range available {
			out = append(out, h)
		}
		return out
	}

	out := make([]router.Handler, 0, len(cfg.Handlers.Enabled))
	for _, name := range cfg.Handlers.Enabled {
		if h, ok := available[name]; ok {
			out = append(out, h)
		}
	}
	return out
}

// Exit codes per spec.md §7's CLI mapping: 0 success, 1 no route, 2
// timeout-no-work, 3 generic failure.
const (
	exitSuccess      = 0
	exitNoRoute      = 1
	exitTimeout      = 2
	exitGenericError = 3
)

func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	switch {
	case errors.Is(err, router.ErrNoRoute):
		return exitNoRoute
	case errors.Is(err, router.ErrTimeout):
		return exitTimeout
	default:
		return exitGenericError
	}
}
