// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// keel-launch boots a loader graph from a YAML config file, loads the
// named entry artifact, and runs it.
//
// Usage:
//
//	keel-launch --config keel.yaml [--module NAME] <entry> [-- <args>...]
//
// The config file names the module stores, their delegation edges,
// and optionally the reserved system prefixes with their authority
// module. The entry name is resolved through the loader of --module
// (default: the first configured module). Arguments after -- are
// passed to the entry program unchanged.
//
// Exit status: the entry program's own exit code when it runs; 1 when
// the entry name cannot be found; 2 for configuration or load
// failures.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/keel-runtime/keel/lib/config"
	"github.com/keel-runtime/keel/lib/loader"
	"github.com/keel-runtime/keel/lib/name"
	"github.com/keel-runtime/keel/lib/namespace"
	"github.com/keel-runtime/keel/lib/redirect"
	"github.com/keel-runtime/keel/lib/store"
	"github.com/keel-runtime/keel/lib/version"
)

func main() {
	err := run()
	if err == nil {
		return
	}
	if coder, ok := err.(interface{ ExitCode() int }); ok {
		os.Exit(coder.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if loader.IsNotFound(err) {
		os.Exit(1)
	}
	os.Exit(2)
}

func run() error {
	var configPath string
	var moduleName string

	flagSet := pflag.NewFlagSet("keel-launch", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to keel.yaml (default: $KEEL_CONFIG)")
	flagSet.StringVar(&moduleName, "module", "", "module whose loader resolves the entry (default: first configured module)")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other keel binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("keel-launch %s\n", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printUsage(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printUsage(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) < 1 {
		printUsage(flagSet)
		return fmt.Errorf("missing entry artifact name")
	}
	entry := args[0]
	entryArgs := args[1:]

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	loaders, err := buildLoaders(cfg, logger)
	if err != nil {
		return err
	}

	sys, err := setupSystem(cfg, loaders, logger)
	if err != nil {
		return err
	}
	if sys != nil {
		if err := loader.InitSystem(sys); err != nil {
			return err
		}
	}

	if moduleName == "" {
		moduleName = cfg.Modules[0].Name
	}
	entryLoader, ok := loaders[moduleName]
	if !ok {
		return fmt.Errorf("module %q is not configured", moduleName)
	}

	entryName, err := name.Parse(entry)
	if err != nil {
		return fmt.Errorf("entry %q: %w", entry, err)
	}

	artifact, err := entryLoader.Load(entryName)
	if err != nil {
		return err
	}

	logger.Debug("running entry",
		"name", artifact.Name(),
		"digest", artifact.Digest(),
		"module", moduleName)
	return artifact.Run(entryArgs)
}

// buildLoaders opens every module store and wires the delegation
// graph. Loaders are created first and delegates installed second so
// that cyclic edges resolve.
func buildLoaders(cfg *config.Config, logger *slog.Logger) (map[string]*loader.StoreLoader, error) {
	shared := namespace.NewSharedTable()
	runner := &execRunner{logger: logger}

	loaders := make(map[string]*loader.StoreLoader, len(cfg.Modules))
	for _, module := range cfg.Modules {
		st, err := store.Open(module.StoreRoot, store.Options{
			PersistIndex: module.PersistIndex,
			Logger:       logger.With("module", module.Name),
		})
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", module.Name, err)
		}

		ld, err := loader.NewStoreLoader(loader.StoreLoaderConfig{
			Store:    st,
			Registry: namespace.NewRegistry(shared),
			Runner:   runner,
			Exported: exportFilter(module.ExportedPrefixes),
			Logger:   logger.With("module", module.Name),
		})
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", module.Name, err)
		}
		loaders[module.Name] = ld
	}

	for _, module := range cfg.Modules {
		if len(module.Delegates) == 0 {
			continue
		}
		delegates := make([]loader.LocalLoader, 0, len(module.Delegates))
		for _, delegate := range module.Delegates {
			delegates = append(delegates, loaders[delegate])
		}
		loaders[module.Name].SetDelegates(delegates)
	}

	return loaders, nil
}

// setupSystem builds the reserved-prefix routing table, or nil when
// no prefixes are configured. The authority loader is installed
// behind a Redirector so it can be retargeted administratively.
func setupSystem(cfg *config.Config, loaders map[string]*loader.StoreLoader, logger *slog.Logger) (*loader.System, error) {
	if len(cfg.System.Prefixes) == 0 {
		return nil, nil
	}
	authority := redirect.New(loaders[cfg.System.Authority])
	sys, err := loader.NewSystem(authority, cfg.System.Prefixes)
	if err != nil {
		return nil, err
	}
	logger.Debug("system routing installed",
		"authority", cfg.System.Authority,
		"prefixes", sys.Prefixes())
	return sys, nil
}

// exportFilter builds the exported-name predicate for a module. An
// empty prefix list exports everything.
func exportFilter(prefixes []string) func(n name.Name) bool {
	if len(prefixes) == 0 {
		return nil
	}
	return func(n name.Name) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(string(n), prefix) {
				return true
			}
		}
		return false
	}
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `keel-launch - boot a loader graph and run an entry artifact

USAGE
    keel-launch --config keel.yaml [--module NAME] <entry> [-- <args>...]

FLAGS
%s`, flagSet.FlagUsages())
}
