package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mithrel/agora/internal/markdown"
	"github.com/mithrel/agora/internal/present"
)

func newRenderCmd() *cobra.Command {
	var (
		format    string
		legacy    bool
		looseBold bool
		unsafe    bool
		width     int
	)
	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render forum markdown to HTML or to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			src, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("unsafe") {
				unsafe = app.Cfg.GetBool("markdown.unsafe")
			}
			out := cmd.OutOrStdout()

			switch format {
			case "html":
				var html string
				if legacy {
					html = markdown.Legacy(string(src), markdown.LegacyOptions{LooseBold: looseBold})
					if !unsafe {
						html = markdown.Sanitize(html)
					}
				} else {
					html = markdown.RenderWith(string(src), markdown.Options{Unsafe: unsafe})
				}
				_, err = io.WriteString(out, html)
				return err
			case "terminal":
				if width <= 0 {
					width = present.TerminalWidth(out)
				}
				rendered, err := markdown.Terminal(string(src), width)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, rendered)
				return err
			}
			return fmt.Errorf("unknown format %q (want html or terminal)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "html", "html or terminal")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "use the substitution pipeline instead of the markdown parser")
	cmd.Flags().BoolVar(&looseBold, "loose-bold", false, "with --legacy, use the historical bold pattern")
	cmd.Flags().BoolVar(&unsafe, "unsafe", false, "skip HTML sanitization (default from markdown.unsafe)")
	cmd.Flags().IntVar(&width, "width", 0, "wrap width for terminal output (default terminal width)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"html", "terminal"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
