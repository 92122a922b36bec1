package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/speedwagon1299/MoodyGrooves/internal/auth"
	"github.com/speedwagon1299/MoodyGrooves/internal/cache"
	"github.com/speedwagon1299/MoodyGrooves/internal/secrets"
	"github.com/speedwagon1299/MoodyGrooves/internal/services"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/speedwagon1299/MoodyGrooves/internal/tasks"
	"github.com/speedwagon1299/MoodyGrooves/internal/tokens"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

var defaultScopes = []string{"playlist-read-private", "playlist-read-collaborative", "user-read-email"}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, playlistsCommand, filterCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app bundles the wired service graph behind a single build step so each
// command constructs (and closes) its dependencies on demand.
type app struct {
	store      cache.Store
	manager    *tokens.Manager
	spotify    *services.SpotifyService
	classifier *services.ClassifierService
	engine     *tasks.FilterEngine
	orch       *auth.Orchestrator
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// build constructs the full dependency graph from config. An empty cache
// redis_url selects the in-process store, meaning tokens and sessions do
// not survive a restart.
func (r *Runner) build(ctx context.Context) (*app, error) {
	creds := r.config.Credentials.Spotify.Map()
	if creds["client_id"] == "" || creds["client_secret"] == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret must be configured", shared.ErrMissingCredentials)
	}

	var store cache.Store
	if r.config.Cache.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(ctx, r.config.Cache.RedisURL, r.config.Cache.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = redisStore
	} else {
		r.logger.Warn("no redis_url configured, using in-process cache")
		store = cache.NewMemoryStore()
	}

	cipher, err := secrets.New(r.config.Secrets.SessionSecret)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	manager, err := tokens.NewManager(tokens.ManagerOpts{
		Store:        store,
		Cipher:       cipher,
		HTTPClient:   r.httpClient,
		Logger:       r.logger,
		ClientID:     creds["client_id"],
		ClientSecret: creds["client_secret"],
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		Tokens:     manager,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create spotify service: %w", err)
	}

	classifier, err := services.NewClassifierService(services.ClassifierOpts{
		Config:     r.config.Classifier,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	engine := tasks.NewFilterEngine(spotify, classifier, r.logger)

	orch, err := auth.NewOrchestrator(auth.Opts{
		Store:    store,
		Tokens:   manager,
		OAuth:    r.oauthConfig(),
		Profiles: spotify,
		Logger:   r.logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create auth orchestrator: %w", err)
	}

	return &app{
		store:      store,
		manager:    manager,
		spotify:    spotify,
		classifier: classifier,
		engine:     engine,
		orch:       orch,
	}, nil
}

func (r *Runner) oauthConfig() *oauth2.Config {
	spotify := r.config.Credentials.Spotify

	scopes := spotify.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	return &oauth2.Config{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		RedirectURL:  spotify.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
