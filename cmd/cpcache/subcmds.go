package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cmsispack/cpcache"
	"github.com/cmsispack/cpcache/catalog"
	"github.com/cmsispack/cpcache/query"
)

// progressHook returns the default download-progress display hook: it
// writes done/total to stderr on every call unless the engine is silent.
func progressHook(cfg *cpcache.Config) func(done, total int64) {
	if cfg.Silent {
		return nil
	}
	return func(done, total int64) {
		fmt.Fprintf(os.Stderr, "\r%d/%d", done, total)
		if total > 0 && done == total {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func cacheEverything(ctx context.Context, cfg *cpcache.Config, args []string) error {
	eng, err := catalog.New(*cfg, progressHook(cfg))
	if err != nil {
		return err
	}
	return eng.CacheEverything(ctx)
}

func cacheDescriptors(ctx context.Context, cfg *cpcache.Config, args []string) error {
	eng, err := catalog.New(*cfg, progressHook(cfg))
	if err != nil {
		return err
	}
	return eng.CacheDescriptors(ctx)
}

func addPacks(ctx context.Context, cfg *cpcache.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("add-packs: at least one PACK path is required")
	}
	eng, err := catalog.New(*cfg, progressHook(cfg))
	if err != nil {
		return err
	}
	for _, path := range args {
		if err := eng.AddLocalPack(ctx, path); err != nil {
			return fmt.Errorf("add-packs %q: %w", path, err)
		}
	}
	return nil
}

func dumpParts(ctx context.Context, cfg *cpcache.Config, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("dump-parts: usage: dump-parts <dir> <query>")
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return err
	}
	surface := query.New(resolved.JSONPath, resolved.DataPath, nil)
	return surface.DumpParts(ctx, args[0], args[1])
}

func printCacheDir(ctx context.Context, cfg *cpcache.Config, args []string) error {
	resolved, err := cfg.Resolve()
	if err != nil {
		return err
	}
	fmt.Println(resolved.DataPath)
	return nil
}
