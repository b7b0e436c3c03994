package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/antonio-alexander/go-employee-admin/internal"
	"github.com/antonio-alexander/go-employee-admin/internal/auth"
	"github.com/antonio-alexander/go-employee-admin/internal/cache"
	"github.com/antonio-alexander/go-employee-admin/internal/data"
	"github.com/antonio-alexander/go-employee-admin/internal/logic"
	"github.com/antonio-alexander/go-employee-admin/internal/photos"
	"github.com/antonio-alexander/go-employee-admin/internal/service"
	"github.com/antonio-alexander/go-employee-admin/internal/sql"
	"github.com/antonio-alexander/go-employee-admin/internal/utilities"
	"github.com/antonio-alexander/go-employee-admin/internal/views"

	"github.com/antonio-alexander/go-stash/memory"
	"github.com/antonio-alexander/go-stash/redis"
	"github.com/joho/godotenv"
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
	pwd, _ := os.Getwd()
	args := os.Args[1:]
	envs, err := readEnvs(os.Environ())
	if err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	if err := Main(pwd, args, envs, osSignal); err != nil {
		os.Stderr.WriteString(err.Error())
		os.Exit(1)
	}
}

// readEnvs layers the process environment over the optional .env file named
// by ENV_FILE
func readEnvs(environ []string) (map[string]string, error) {
	envs := internal.EnvsFromEnviron(environ, nil)
	envFile := envs["ENV_FILE"]
	if envFile == "" {
		return envs, nil
	}
	fileEnvs, err := godotenv.Read(envFile)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read env file %s", envFile)
	}
	for key, value := range envs {
		fileEnvs[key] = value
	}
	return fileEnvs, nil
}

func createCache(envs map[string]string, parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	cache.Cache
} {
	switch envs["CACHE_TYPE"] {
	default:
		return nil
	case "memory":
		return cache.NewMemory(parameters...)
	case "redis":
		return cache.NewRedis(parameters...)
	case "stash-memory":
		stash := memory.New()
		_ = stash.Configure(envs)
		parameters = append(parameters, stash)
		return cache.NewStash(parameters...)
	case "stash-redis":
		stash := redis.New()
		_ = stash.Configure(envs)
		parameters = append(parameters, stash)
		return cache.NewStash(parameters...)
	}
}

func Main(pwd string, args []string, envs map[string]string, osSignal chan os.Signal) error {
	var wg sync.WaitGroup

	//create context
	ctx, cancel := internal.LaunchContext(&wg, osSignal)
	defer cancel()

	// create utilities
	logger := utilities.NewLogger()
	_ = logger.Configure(envs)
	timers := utilities.NewTimers()
	counter := utilities.NewCounter()

	//print version info
	logger.Info(ctx, "server: go-employee-admin v%s (%s) built from: %s",
		Version, GitCommit, GitBranch)

	//create sql, configure and open
	sql, err := sql.New(envs["DATABASE_DRIVER"], logger)
	if err != nil {
		return err
	}
	if err := sql.Configure(envs); err != nil {
		return err
	}
	if err := sql.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := sql.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing sql: %s", err)
		}
	}()

	// create cache
	cache := createCache(envs, logger)
	if cache != nil {
		if err := cache.Configure(envs); err != nil {
			return err
		}
		if err := cache.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := cache.Close(context.Background()); err != nil {
				logger.Error(context.Background(), "error while closing cache: %s", err)
			}
		}()
	}

	//create logic, configure and open
	parameters := []any{sql, logger, counter}
	if cache != nil {
		parameters = append(parameters, cache)
	}
	logic := logic.NewLogic(parameters...)
	if err := logic.Configure(envs); err != nil {
		return err
	}
	if err := logic.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := logic.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "error while closing logic: %s", err)
		}
	}()

	//create auth, photos and views
	auth := auth.NewAuth(sql, logger)
	photos := photos.NewPhotos(logger)
	views := views.NewViews(logger)
	for _, c := range []interface {
		internal.Configurer
		internal.Opener
	}{auth, photos, views} {
		if err := c.Configure(envs); err != nil {
			return err
		}
		if err := c.Open(ctx); err != nil {
			return err
		}
	}

	//create service, configure and open
	parameters = []any{logic, auth, photos, views, logger, counter, timers}
	if cache != nil {
		parameters = append(parameters, cache)
	}
	service := service.NewService(parameters...)
	if err := service.Configure(envs); err != nil {
		return err
	}
	if err := service.Open(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	wg.Wait()
	if err := service.Close(context.Background()); err != nil {
		logger.Error(context.Background(), "error while closing service: %s", err)
	}
	return nil
}
