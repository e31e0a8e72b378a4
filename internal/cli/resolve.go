package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/agora/internal/config"
	"github.com/mithrel/agora/internal/util"
	"github.com/mithrel/agora/internal/wire"
	"github.com/mithrel/agora/pkg/api"
)

// resolveCategory accepts a numeric id as is; names are matched against the
// forum's categories.
func resolveCategory(ctx context.Context, app *wire.App, input string) (int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	if id, ok := parseID(input); ok {
		return id, nil
	}
	cats, err := app.API.Categories(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve category %q: %w", input, err)
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	idx, ok := util.BestMatch(input, names)
	if !ok {
		return 0, fmt.Errorf("no category matches %q", input)
	}
	app.Log.Debug.Printf("category %q resolved to %q (%d)", input, cats[idx].Name, cats[idx].ID)
	return cats[idx].ID, nil
}

// resolveTags maps ids or names to tag ids, fetching the tag list at most once.
func resolveTags(ctx context.Context, app *wire.App, inputs []string) ([]int64, error) {
	var (
		tags   []api.Tag
		names  []string
		loaded bool
		out    []int64
	)
	for _, in := range inputs {
		in = strings.TrimSpace(in)
		if in == "" {
			continue
		}
		if id, ok := parseID(in); ok {
			out = append(out, id)
			continue
		}
		if !loaded {
			var err error
			if tags, err = app.API.Tags(ctx); err != nil {
				return nil, fmt.Errorf("resolve tag %q: %w", in, err)
			}
			names = make([]string, len(tags))
			for i, t := range tags {
				names[i] = t.Name
			}
			loaded = true
		}
		idx, ok := util.BestMatch(in, names)
		if !ok {
			return nil, fmt.Errorf("no tag matches %q", in)
		}
		out = append(out, tags[idx].ID)
	}
	return out, nil
}

func completeCategories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	app, ok := appForCompletion(cmd)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cats, err := app.API.Categories(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return util.ScoreCompletions(toComplete, names, 20), cobra.ShellCompDirectiveNoFileComp
}

func completeTags(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	app, ok := appForCompletion(cmd)
	if !ok {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	tags, err := app.API.Tags(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return util.ScoreCompletions(toComplete, names, 20), cobra.ShellCompDirectiveNoFileComp
}

// appForCompletion returns the wired app; shell completion runs without the
// root pre-run hook, so it is built from default config sources when missing.
func appForCompletion(cmd *cobra.Command) (*wire.App, bool) {
	if app, ok := lookupApp(cmd); ok {
		return app, true
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	v := viper.New()
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		v.SetConfigFile(p)
	}
	if err := config.Load(ctx, v); err != nil {
		return nil, false
	}
	applyConfigFlagOverrides(cmd, v, rootFlags)
	app, err := wire.BuildApp(ctx, v)
	if err != nil {
		return nil, false
	}
	return app, true
}
