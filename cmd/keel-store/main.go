// Copyright 2026 The Keel Authors
// SPDX-License-Identifier: Apache-2.0

// keel-store populates and inspects artifact stores.
//
// Usage:
//
//	keel-store put --root DIR [--compress none|zstd|lz4] <name> <file>
//	keel-store index --root DIR [--persist]
//	keel-store meta --root DIR [flags]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/keel-runtime/keel/lib/store"
	"github.com/keel-runtime/keel/lib/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "put":
		err = putCmd(args)
	case "index":
		err = indexCmd(args)
	case "meta":
		err = metaCmd(args)
	case "version", "--version", "-v":
		fmt.Printf("keel-store %s\n", version.Info())
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// putCmd stores one file under a name, optionally compressed.
func putCmd(args []string) error {
	var root, compression string
	flagSet := pflag.NewFlagSet("keel-store put", pflag.ContinueOnError)
	flagSet.StringVar(&root, "root", "", "store root directory (created if absent)")
	flagSet.StringVar(&compression, "compress", "none", "compression: none, zstd, or lz4")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	rest := flagSet.Args()
	if root == "" || len(rest) != 2 {
		return fmt.Errorf("usage: keel-store put --root DIR [--compress none|zstd|lz4] <name> <file>")
	}

	tag, err := store.ParseCompressionTag(compression)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(rest[1])
	if err != nil {
		return fmt.Errorf("reading %s: %w", rest[1], err)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating store root: %w", err)
	}
	st, err := store.Open(root, store.Options{})
	if err != nil {
		return err
	}
	if err := st.Put(rest[0], data, tag); err != nil {
		return err
	}
	fmt.Printf("stored %s (%d bytes, %s)\n", rest[0], len(data), tag)
	return nil
}

// indexCmd prints the store's path list, optionally persisting the
// sidecar.
func indexCmd(args []string) error {
	var root string
	var persist bool
	flagSet := pflag.NewFlagSet("keel-store index", pflag.ContinueOnError)
	flagSet.StringVar(&root, "root", "", "store root directory")
	flagSet.BoolVar(&persist, "persist", false, "write the computed index sidecar")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if root == "" || flagSet.NArg() != 0 {
		return fmt.Errorf("usage: keel-store index --root DIR [--persist]")
	}

	st, err := store.Open(root, store.Options{PersistIndex: persist})
	if err != nil {
		return err
	}
	paths, err := st.ListPaths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}

// metaCmd writes the store metadata sidecar.
func metaCmd(args []string) error {
	var root string
	var meta store.Metadata
	flagSet := pflag.NewFlagSet("keel-store meta", pflag.ContinueOnError)
	flagSet.StringVar(&root, "root", "", "store root directory")
	flagSet.StringVar(&meta.SpecTitle, "spec-title", "", "specification title")
	flagSet.StringVar(&meta.SpecVersion, "spec-version", "", "specification version")
	flagSet.StringVar(&meta.SpecVendor, "spec-vendor", "", "specification vendor")
	flagSet.StringVar(&meta.ImplTitle, "impl-title", "", "implementation title")
	flagSet.StringVar(&meta.ImplVersion, "impl-version", "", "implementation version")
	flagSet.StringVar(&meta.ImplVendor, "impl-vendor", "", "implementation vendor")
	flagSet.StringVar(&meta.SealBase, "seal-base", "", "seal namespaces to this origin")
	flagSet.StringVar(&meta.Signer, "signer", "", "signing identity for definitions")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if root == "" || flagSet.NArg() != 0 {
		return fmt.Errorf("usage: keel-store meta --root DIR [flags]")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("creating store root: %w", err)
	}
	return store.WriteMetadata(root, &meta)
}

func printUsage() {
	fmt.Print(`keel-store - populate and inspect artifact stores

USAGE
    keel-store <command> [flags]

COMMANDS
    put           Store a file under an artifact name
    index         Print (and optionally persist) the store path index
    meta          Write the store metadata sidecar
    version       Print version information
`)
}
