package wire

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/config"
	"github.com/mithrel/agora/internal/drafts"
	"github.com/mithrel/agora/internal/forumapi"
	"github.com/mithrel/agora/internal/keys"
	"github.com/mithrel/agora/internal/logger"
	"github.com/mithrel/agora/pkg/api"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg     *viper.Viper
	Log     *logger.Logger
	API     *forumapi.Client
	Fetcher *attach.Fetcher
	Tokens  keys.TokenStore

	draftsPath string
	drafts     *drafts.Store
}

// BuildApp wires dependencies with the provided config. The drafts store is
// opened lazily so commands that never touch it need no data directory.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	if err := config.CheckConfigValidity(v); err != nil {
		return nil, err
	}
	log := logger.New(os.Stderr, logger.ParseLevel(v.GetString("log.level")))
	httpClient := &http.Client{Timeout: config.HTTPTimeout(v)}
	tokens := &keys.KeyringStore{}
	token := resolveToken(v, tokens, log)
	return &App{
		Cfg:    v,
		Log:    log,
		Tokens: tokens,
		API: forumapi.New(v.GetString("api_url"),
			forumapi.WithHTTPClient(httpClient),
			forumapi.WithToken(token),
			forumapi.WithLogger(log)),
		Fetcher:    attach.NewFetcher(httpClient, token, log.Warn),
		draftsPath: config.ResolveDraftsPath(v),
	}, nil
}

// resolveToken prefers auth.token and falls back to the keyring entry for
// base_url. Keyring failures only cost the token.
func resolveToken(v *viper.Viper, store keys.TokenStore, log *logger.Logger) string {
	if tok := strings.TrimSpace(v.GetString("auth.token")); tok != "" {
		return tok
	}
	if !v.GetBool("auth.keyring") {
		return ""
	}
	tok, err := store.Get(v.GetString("base_url"))
	if err != nil {
		if !errors.Is(err, keys.ErrTokenNotFound) {
			log.Debug.Printf("keyring lookup failed: %v", err)
		}
		return ""
	}
	return tok
}

// Drafts opens the drafts store on first use.
func (a *App) Drafts(ctx context.Context) (*drafts.Store, error) {
	if a.drafts != nil {
		return a.drafts, nil
	}
	s, err := drafts.Open(ctx, a.draftsPath)
	if err != nil {
		return nil, err
	}
	a.drafts = s
	return s, nil
}

// UploadPolicy returns the policy in force: the server's unless offline,
// the defaults otherwise, with config overrides applied on top.
func (a *App) UploadPolicy(ctx context.Context, offline bool) api.UploadPolicy {
	p := attach.DefaultPolicy()
	if !offline {
		p = a.API.UploadPolicy(ctx)
	}
	return attach.Normalize(config.ApplyUploadOverrides(a.Cfg, p))
}

func (a *App) Close() error {
	if a.drafts != nil {
		return a.drafts.Close()
	}
	return nil
}
