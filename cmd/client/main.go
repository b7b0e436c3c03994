package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/client"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"

	"github.com/pkg/errors"
)

var (
	Version   string
	GitCommit string
	GitBranch string
)

func init() {
	if Version = data.Version; Version == "" {
		Version = "<no_version_provided>"
	}
	if GitCommit = data.GitCommit; GitCommit == "" {
		GitCommit = "<no_git_commit>"
	}
	if GitBranch = data.GitBranch; GitBranch == "" {
		GitBranch = "<no_git_branch>"
	}
}

func main() {
	args := os.Args[1:]
	envs := internal.EnvsFromEnviron(os.Environ(), nil)
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

func printJson(item any) error {
	bytes, err := json.MarshalIndent(item, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(bytes))
	return nil
}

func Main(args []string, envs map[string]string, osSignal chan os.Signal) error {
	var command string

	fmt.Printf("client: go-employee-admin v%s (%s) built from: %s\n",
		Version, GitCommit, GitBranch)

	//create logger
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)

	//create client
	ctx := context.Background()
	client := client.NewClient(logger)
	if err := client.Configure(envs); err != nil {
		return err
	}
	if err := client.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(ctx); err != nil {
			fmt.Printf("error while closing client: %s\n", err)
		}
	}()

	// execute command
	if command = envs["COMMAND"]; len(args) > 0 {
		command = args[0]
	}
	switch command {
	default:
		return errors.Errorf("unsupported command: %q", command)
	case "version":
		version, err := client.Version(ctx)
		if err != nil {
			return err
		}
		return printJson(version)
	case "cache_clear":
		return client.CacheClear(ctx)
	case "cache_counters_read":
		counters, err := client.CacheCountersRead(ctx)
		if err != nil {
			return err
		}
		return printJson(counters)
	case "cache_counters_clear":
		return client.CacheCountersClear(ctx)
	case "timers_read":
		timers, err := client.TimersRead(ctx)
		if err != nil {
			return err
		}
		return printJson(timers)
	case "timers_clear":
		return client.TimersClear(ctx)
	}
}
