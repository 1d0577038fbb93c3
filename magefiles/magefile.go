// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the castlists project using Mage.
//
// Usage:
//
//	mage build    Compile castlists binary to bin/
//	mage test     Run all tests
//	mage smoke    Build, then run the binary against a scratch workspace
//	mage lint     Run golangci-lint
//	mage clean    Remove build artifacts
//	mage install  Install castlists to GOPATH/bin
//	mage stats    Print Go LOC and documentation word counts
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "castlists"
	binaryDir  = "bin"
	cmdDir     = "./cmd/castlists"
)

// Build compiles the castlists binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// Smoke builds the binary and drives it through init, a legacy tribe tag,
// materialization and stats in a scratch directory.
func Smoke() error {
	mg.Deps(Build)
	dir, err := os.MkdirTemp("", "castlists-smoke-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	bin := filepath.Join(binaryDir, binaryName)
	base := []string{"--config-dir", filepath.Join(dir, "config"), "--data-dir", filepath.Join(dir, "data")}
	steps := [][]string{
		{"init"},
		{"tribe", "add", "Red", "--id", "t1", "--tag", "Jury"},
		{"list"},
		{"stats"},
	}
	for _, step := range steps {
		if err := sh.RunV(bin, append(base, step...)...); err != nil {
			return fmt.Errorf("smoke %v: %w", step, err)
		}
	}
	return nil
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
