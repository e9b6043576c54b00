// Command cpcache is the CLI front end over the catalog/query engine:
// a thin flag.FlagSet subcommand dispatcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/cmsispack/cpcache"
)

type subcmd func(context.Context, *cpcache.Config, []string) error

var subcmds = map[string]subcmd{
	"cache-everything":  cacheEverything,
	"cache-descriptors": cacheDescriptors,
	"dump-parts":        dumpParts,
	"add-packs":         addPacks,
	"print-cache-dir":   printCacheDir,
}

func main() {
	var exit int
	defer func() {
		if exit != 0 {
			os.Exit(exit)
		}
	}()

	ctx, done := context.WithCancel(context.Background())
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		<-ch
		done()
	}()

	var cfg cpcache.Config
	fs := flag.NewFlagSet("cpcache", flag.ExitOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nSubcommands\n\n")
		fmt.Fprintln(out, "cache-everything")
		fmt.Fprintln(out, "\tfetch the root index, every PDSC, and every resolved PACK archive")
		fmt.Fprintln(out, "cache-descriptors")
		fmt.Fprintln(out, "\tfetch the root index and every PDSC, without PACK archives")
		fmt.Fprintln(out, "dump-parts <dir> <query>")
		fmt.Fprintln(out, "\twrite a filtered index and extracted flash algorithms for the matched device(s) to dir")
		fmt.Fprintln(out, "add-packs <path>...")
		fmt.Fprintln(out, "\tingest one or more local PACK archives into the cache")
		fmt.Fprintln(out, "print-cache-dir")
		fmt.Fprintln(out, "\tprint the resolved blob-store directory")
		fmt.Fprintln(out)
	}

	fs.BoolVar(&cfg.Silent, "quiet", false, "suppress download progress output")
	fs.BoolVar(&cfg.NoTimeouts, "no-timeouts", false, "disable HTTP connect/low-speed timeouts")
	fs.StringVar(&cfg.DataPath, "data-path", "", "override the blob-store directory")
	fs.StringVar(&cfg.JSONPath, "json-path", "", "override the index.json/aliases.json directory")
	fs.StringVar(&cfg.VidxList, "vidx-list", "", "override the root vendor index with a local file path")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	level := zerolog.InfoLevel
	if cfg.Silent {
		level = zerolog.ErrorLevel
	}
	zl := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	ctx = zl.WithContext(ctx)

	cmd, ok := subcmds[fs.Arg(0)]
	if !ok {
		fs.Usage()
		if n := fs.Arg(0); n != "" {
			fmt.Fprintf(os.Stderr, "\nunknown subcommand %q\n", n)
		}
		os.Exit(99)
	}

	var cmdErr error
	cmdctx, cmddone := context.WithCancel(ctx)
	go func() {
		defer cmddone()
		cmdErr = cmd(cmdctx, &cfg, fs.Args()[1:])
	}()

	select {
	case <-ctx.Done():
		log.Print(ctx.Err())
		exit = 1
	case <-cmdctx.Done():
		// cmdctx also closes when a signal cancels its parent, before the
		// subcommand goroutine has written cmdErr; only the goroutine's own
		// cmddone makes that read safe.
		if ctx.Err() != nil {
			log.Print(ctx.Err())
			exit = 1
			break
		}
		if cmdErr != nil {
			log.Print(cmdErr)
			exit = 2
		}
	}
}
