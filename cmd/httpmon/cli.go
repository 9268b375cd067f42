package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/httpmon"
	"github.com/fwojciec/httpmon/monitor"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Fetcher httpmon.Fetcher
	Polls   httpmon.PollService
	Engine  *monitor.Engine
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Debug bool   `short:"d" help:"Log every request and poll"`
	DB    string `name:"db" env:"HTTPMON_HISTORY" type:"path" help:"SQLite file recording every poll"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Monitor the resources of a configuration document"`
	History HistoryCmd `cmd:"" name:"history" help:"Print recorded polls, newest first"`
}

// RunCmd is the default command.
type RunCmd struct {
	Config string `arg:"" optional:"" help:"Configuration document path or http(s) URL"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Source string `help:"Only polls of this source URL"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of polls to print"`
}
