package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/agora/internal/present"
)

func newQuestionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "question <id>",
		Aliases: []string{"q"},
		Short:   "Show a posted question with its answers",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			id, ok := parseID(args[0])
			if !ok {
				return fmt.Errorf("invalid question id %q", args[0])
			}
			q, err := app.API.Question(cmd.Context(), id)
			if err != nil {
				return err
			}
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			if opts.Mode != present.ModePretty {
				return present.RenderQuestion(cmd.OutOrStdout(), q, opts)
			}
			return withPager(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), func(w io.Writer) error {
				return present.RenderQuestion(w, q, opts)
			})
		},
	}
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List forum categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			cs, err := app.API.Categories(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			return present.RenderCategories(cmd.OutOrStdout(), cs, opts)
		},
	}
}

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List forum tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ts, err := app.API.Tags(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			return present.RenderTags(cmd.OutOrStdout(), ts, opts)
		},
	}
}
