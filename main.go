// Package main implements a CHIP-8 virtual machine.
package main

import (
	"os"
	"runtime"

	"github.com/retroenv/retrogolib/app"

	"github.com/tuboc/chip8vm/cmd"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	// SDL must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	ctx := app.Context()
	info := cmd.BuildInfo{Version: version, Commit: commit, Date: date}
	os.Exit(cmd.Execute(ctx, info, os.Args[1:], os.Stderr))
}
