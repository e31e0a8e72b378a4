package cli

import (
	"github.com/spf13/cobra"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/drafts"
	"github.com/mithrel/agora/internal/forumapi"
	"github.com/mithrel/agora/internal/present"
)

func newAskCmd() *cobra.Command {
	var (
		qf      questionFlags
		files   []string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Post a question in one step",
		Example: `  agora-cli ask -t "Segfault in init" -c Programming --tag c --tag gdb -b notes.md --attach core.png
  echo "body" | agora-cli ask -t "Title" -c 3 -b -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			var d drafts.Draft
			if err := qf.apply(cmd, app, &d); err != nil {
				return err
			}
			cands, err := loadCandidates(files)
			if err != nil {
				return err
			}
			if len(cands) > 0 {
				res := attach.Validate(cands, 0, app.UploadPolicy(cmd.Context(), offline))
				if len(res.Rejections) > 0 {
					opts, err := outputOptions(cmd)
					if err != nil {
						return err
					}
					_ = present.RenderValidation(cmd.ErrOrStderr(), res, opts)
					return errRejected
				}
			}
			_, err = submit(cmd, app, forumapi.Submission{
				Title:       d.Title,
				Markdown:    d.Markdown,
				CategoryID:  d.CategoryID,
				TagIDs:      d.TagIDs,
				Attachments: cands,
			})
			return err
		},
	}
	qf.register(cmd)
	cmd.Flags().StringSliceVarP(&files, "attach", "a", nil, "file to attach (repeatable)")
	cmd.Flags().BoolVar(&offline, "offline", false, "validate attachments against the built-in policy")
	return cmd
}
