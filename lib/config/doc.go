// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for keel-launch.
//
// Configuration is loaded from a single file specified by either the
// KEEL_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. The loader graph that runs is exactly
// the one the file describes.
//
// The file names the module loaders ([ModuleConfig]): each has an
// artifact store root, an optional persisted path index, an ordered
// delegate list, and optional exported-name prefixes. Delegate lists
// are taken as already resolved; cycles between modules are legal.
// A [SystemConfig] section reserves name prefixes and routes them to
// one module's loader.
//
// Variable expansion is performed on store roots after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Logging, System, Modules
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other keel packages.
package config
