package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/agora/internal/config"
	"github.com/mithrel/agora/internal/present"
	"github.com/mithrel/agora/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// skipApp marks commands that must work without a valid config.
const skipApp = "agora/skip-app"

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// rootFlags map persistent flag names to config keys.
var rootFlags = map[string]string{
	"base-url":  "base_url",
	"api-url":   "api_url",
	"token":     "auth.token",
	"log-level": "log.level",
	"output":    "output",
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "agora-cli",
		Short:         "Agora CLI: write, preview and post forum questions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsApp(cmd) {
				return nil
			}
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			applyConfigFlagOverrides(cmd, v, rootFlags)
			app, err := wire.BuildApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, ok := lookupApp(cmd); ok {
				return app.Close()
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (toml)")
	pf.String("base-url", "", "forum origin (overrides base_url)")
	pf.String("api-url", "", "forum API root (overrides api_url)")
	pf.String("token", "", "bearer token (overrides auth.token)")
	pf.String("log-level", "", "error, warn, info or debug (overrides log.level)")
	pf.StringP("output", "O", "", "output format: plain, pretty or json (overrides output)")

	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newAttachCmd())
	cmd.AddCommand(newDraftCmd())
	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newQuestionCmd())
	cmd.AddCommand(newCategoriesCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func skipsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipApp] == "true" {
			return true
		}
	}
	return false
}

func lookupApp(cmd *cobra.Command) (*wire.App, bool) {
	if cmd.Context() == nil {
		return nil, false
	}
	app, ok := cmd.Context().Value(appKey).(*wire.App)
	return app, ok
}

func getApp(cmd *cobra.Command) *wire.App {
	app, ok := lookupApp(cmd)
	if !ok {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return app
}

// outputOptions resolves the presentation options for cmd's stdout.
func outputOptions(cmd *cobra.Command) (present.Options, error) {
	app := getApp(cmd)
	mode, ok := present.ParseMode(app.Cfg.GetString("output"))
	if !ok {
		return present.Options{}, fmt.Errorf("unknown output format %q", app.Cfg.GetString("output"))
	}
	return present.OptionsFor(cmd.OutOrStdout(), mode), nil
}
