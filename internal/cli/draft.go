package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/drafts"
	"github.com/mithrel/agora/internal/editor"
	"github.com/mithrel/agora/internal/forumapi"
	"github.com/mithrel/agora/internal/present"
	"github.com/mithrel/agora/internal/ui"
	"github.com/mithrel/agora/internal/wire"
	"github.com/mithrel/agora/pkg/api"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "draft",
		Aliases: []string{"d"},
		Short:   "Prepare questions locally before posting them",
	}
	cmd.AddCommand(newDraftNewCmd())
	cmd.AddCommand(newDraftListCmd())
	cmd.AddCommand(newDraftShowCmd())
	cmd.AddCommand(newDraftEditCmd())
	cmd.AddCommand(newDraftAttachCmd())
	cmd.AddCommand(newDraftDetachCmd())
	cmd.AddCommand(newDraftDeleteCmd())
	cmd.AddCommand(newDraftSubmitCmd())
	cmd.AddCommand(newDraftPickCmd())
	return cmd
}

// questionFlags are shared by draft new, draft edit and ask.
type questionFlags struct {
	title    string
	category string
	tags     []string
	bodyFile string
}

func (f *questionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "question title")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "category id or name")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "tag id or name (repeatable)")
	cmd.Flags().StringVarP(&f.bodyFile, "body-file", "b", "", "markdown body file, or - for stdin")
	_ = cmd.RegisterFlagCompletionFunc("category", completeCategories)
	_ = cmd.RegisterFlagCompletionFunc("tag", completeTags)
}

func (f *questionFlags) changed(cmd *cobra.Command) bool {
	for _, n := range []string{"title", "category", "tag", "body-file"} {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

// apply copies the flags that were set onto d.
func (f *questionFlags) apply(cmd *cobra.Command, app *wire.App, d *drafts.Draft) error {
	ctx := cmd.Context()
	if cmd.Flags().Changed("title") {
		d.Title = strings.TrimSpace(f.title)
	}
	if cmd.Flags().Changed("category") {
		id, err := resolveCategory(ctx, app, f.category)
		if err != nil {
			return err
		}
		d.CategoryID = id
	}
	if cmd.Flags().Changed("tag") {
		ids, err := resolveTags(ctx, app, f.tags)
		if err != nil {
			return err
		}
		d.TagIDs = ids
	}
	if cmd.Flags().Changed("body-file") {
		b, err := readInput(cmd, f.bodyFile)
		if err != nil {
			return err
		}
		d.Markdown = string(b)
	}
	return nil
}

// editDraft runs d through the user's editor and resolves what came back.
func editDraft(ctx context.Context, app *wire.App, d *drafts.Draft) (bool, error) {
	tags := make([]string, len(d.TagIDs))
	for i, id := range d.TagIDs {
		tags[i] = strconv.FormatInt(id, 10)
	}
	category := ""
	if d.CategoryID > 0 {
		category = strconv.FormatInt(d.CategoryID, 10)
	}
	body := d.Markdown
	if body == "" {
		body = d.Content
	}
	initial := editor.Compose(editor.Fields{Title: d.Title, Category: category, Tags: tags, Body: body})

	path, err := editor.PathForDraft(d.ID)
	if err != nil {
		return false, err
	}
	out, changed, err := editor.OpenAt(path, []byte(initial))
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	f := editor.Parse(string(out))
	d.Title = f.Title
	d.Markdown = f.Body
	d.Content = ""
	if d.CategoryID, err = resolveCategory(ctx, app, f.Category); err != nil {
		return false, err
	}
	if d.TagIDs, err = resolveTags(ctx, app, f.Tags); err != nil {
		return false, err
	}
	return true, nil
}

func newDraftNewCmd() *cobra.Command {
	var qf questionFlags
	var edit bool
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			var d drafts.Draft
			if err := qf.apply(cmd, app, &d); err != nil {
				return err
			}
			d, err = store.Create(cmd.Context(), d)
			if err != nil {
				return err
			}
			if edit || !qf.changed(cmd) {
				changed, err := editDraft(cmd.Context(), app, &d)
				if err != nil {
					return err
				}
				if changed {
					if d, err = store.Update(cmd.Context(), d); err != nil {
						return err
					}
				}
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, d.Title)
			return nil
		},
	}
	qf.register(cmd)
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "open the editor even when fields are given")
	return cmd
}

func newDraftListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List drafts, most recently changed first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			ds, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			return present.RenderDrafts(cmd.OutOrStdout(), ds, opts)
		},
	}
}

func newDraftPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "pick",
		Short:   "Choose a draft interactively and print its id",
		Example: `  agora-cli draft submit "$(agora-cli draft pick)"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if !present.IsTerminal(cmd.ErrOrStderr()) {
				return errors.New("draft pick needs a terminal")
			}
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			ds, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			id, err := ui.PickDraft(cmd.Context(), ds, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newDraftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			d, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			return present.RenderDraft(cmd.OutOrStdout(), d, opts)
		},
	}
}

func newDraftEditCmd() *cobra.Command {
	var qf questionFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a draft in $EDITOR, or set fields with flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			d, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if qf.changed(cmd) {
				if err := qf.apply(cmd, app, &d); err != nil {
					return err
				}
			} else {
				changed, err := editDraft(cmd.Context(), app, &d)
				if err != nil {
					return err
				}
				if !changed {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No changes")
					return nil
				}
			}
			if _, err := store.Update(cmd.Context(), d); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", d.ID)
			return nil
		},
	}
	qf.register(cmd)
	return cmd
}

func newDraftAttachCmd() *cobra.Command {
	var offline, insertImages bool
	cmd := &cobra.Command{
		Use:   "attach <id> <file>...",
		Short: "Attach local files to a draft after validating them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			files, err := loadCandidates(args[1:])
			if err != nil {
				return err
			}
			policy := app.UploadPolicy(cmd.Context(), offline)
			res, err := store.AddAttachments(cmd.Context(), args[0], files, policy)
			if err != nil {
				return err
			}
			if insertImages {
				for _, f := range res.Accepted {
					if !attach.IsImage(f.MIMEType) {
						continue
					}
					if _, err := store.InsertImageMarkdown(cmd.Context(), args[0], f.Name); err != nil {
						return err
					}
				}
			}
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			if err := present.RenderValidation(cmd.OutOrStdout(), res, opts); err != nil {
				return err
			}
			if len(res.Rejections) > 0 {
				return errRejected
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in policy instead of asking the server")
	cmd.Flags().BoolVar(&insertImages, "insert-image", false, "append an inline reference to the body for each accepted image")
	return cmd
}

func newDraftDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach <id> <name>",
		Short: "Remove a pending attachment from a draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.RemoveAttachment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[1])
			return nil
		},
	}
}

func newDraftDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a draft",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			return store.Delete(cmd.Context(), args[0])
		},
	}
}

func newDraftSubmitCmd() *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Post a draft as a new question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			store, err := app.Drafts(cmd.Context())
			if err != nil {
				return err
			}
			d, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			files, err := verifyAttachments(d)
			if err != nil {
				return err
			}
			sub := forumapi.Submission{
				Title:       d.Title,
				Content:     d.Content,
				Markdown:    d.Markdown,
				CategoryID:  d.CategoryID,
				TagIDs:      d.TagIDs,
				Attachments: files,
			}
			q, err := submit(cmd, app, sub)
			if err != nil {
				return err
			}
			if !keep {
				if err := store.Delete(cmd.Context(), d.ID); err != nil {
					app.Log.Warn.Printf("posted question %d but could not delete draft %s: %v", q.ID, d.ID, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the draft after posting")
	return cmd
}

// verifyAttachments re-reads every pending file and refuses to continue if
// one has changed since it was attached.
func verifyAttachments(d drafts.Draft) ([]api.CandidateFile, error) {
	out := make([]api.CandidateFile, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		f, err := attach.FromPath(a.Path)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", a.Name, err)
		}
		if a.Digest != "" && f.Digest != a.Digest {
			return nil, fmt.Errorf("attachment %s changed since it was attached; detach and attach it again", a.Name)
		}
		f.Name = a.Name
		out = append(out, f)
	}
	return out, nil
}

// submit posts sub. Attachments are expected to have passed validation when
// they were accepted.
func submit(cmd *cobra.Command, app *wire.App, sub forumapi.Submission) (api.Question, error) {
	if err := sub.Validate(); err != nil {
		return api.Question{}, err
	}
	q, err := app.API.CreateQuestion(cmd.Context(), sub)
	if err != nil {
		return api.Question{}, err
	}
	url := strings.TrimRight(app.Cfg.GetString("base_url"), "/") + "/questions/" + strconv.FormatInt(q.ID, 10)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", q.ID, url)
	return q, nil
}
