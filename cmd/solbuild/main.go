// Command solbuild is a thin CLI wiring for the Orchestrator: it loads
// the project manifest, the compiler build-index, runs one build, and
// maps the result to an exit code per §6/§7. Flag and subcommand
// parsing intentionally stays minimal (out of scope per spec.md §1).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosolc/buildcore/internal/acquire"
	"github.com/gosolc/buildcore/internal/buildcore"
	"github.com/gosolc/buildcore/internal/config"
	"github.com/gosolc/buildcore/internal/model"
	golog "github.com/gosolc/buildcore/log"
)

func main() {
	var (
		projectRoot = flag.String("root", ".", "project root directory")
		indexPath   = flag.String("index", "", "path to a build-index JSON document (defaults to <root>/solc-index.json)")
		force       = flag.Bool("force", false, "ignore the incremental cache and recompile everything")
		verbose     = flag.Bool("v", false, "enable verbose logging")
	)
	flag.Parse()

	roots := make([]model.SourceName, 0, flag.NArg())
	for _, a := range flag.Args() {
		roots = append(roots, model.SourceName(a))
	}

	log := golog.New(os.Stderr)
	log.Verbose = *verbose

	if err := run(*projectRoot, *indexPath, roots, *force, log); err != nil {
		log.Logln(err.Error())
		os.Exit(buildcore.ExitCode(err))
	}
}

func run(projectRoot, indexPath string, roots []model.SourceName, force bool, log *golog.Logger) error {
	manifestPath := filepath.Join(projectRoot, config.ManifestName)
	cfg, err := config.Load(manifestPath)
	if err != nil {
		return err
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(projectRoot, ".solbuild-cache")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return err
	}

	if indexPath == "" {
		indexPath = filepath.Join(projectRoot, "solc-index.json")
	}
	idx, err := loadIndex(indexPath)
	if err != nil {
		return err
	}

	store, err := buildcore.NewFileStore(cfg.CacheDir)
	if err != nil {
		return err
	}

	acquirer := acquire.New(filepath.Join(cfg.CacheDir, "compilers"), idx, log)

	orch := buildcore.New(buildcore.Options{
		ProjectRoot: projectRoot,
		Config:      cfg,
		Store:       store,
		Acquirer:    acquirer,
		Log:         log,
		CachePath:   filepath.Join(cfg.CacheDir, "build-cache.json"),
		Force:       force,
	})

	if len(roots) == 0 {
		return fmt.Errorf("usage: solbuild [flags] <source.sol>...")
	}

	result, err := orch.Build(context.Background(), roots)
	if err != nil {
		return err
	}

	log.LogBuildfln("compiled %d job(s), %d warning(s)", result.JobsRun, len(result.Warnings))
	return nil
}

func loadIndex(path string) (*acquire.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &acquire.Index{}, nil
		}
		return nil, err
	}
	var idx acquire.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}
