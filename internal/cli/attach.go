package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/present"
	"github.com/mithrel/agora/pkg/api"
)

// errRejected is returned when at least one file failed validation, so
// scripts can rely on the exit status.
var errRejected = errors.New("some files were rejected")

func newAttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Check local files and locate uploaded attachments",
	}
	cmd.AddCommand(newAttachCheckCmd())
	cmd.AddCommand(newAttachURLsCmd())
	cmd.AddCommand(newAttachFetchCmd())
	return cmd
}

// loadCandidates reads metadata and digests for each path.
func loadCandidates(paths []string) ([]api.CandidateFile, error) {
	out := make([]api.CandidateFile, 0, len(paths))
	for _, p := range paths {
		f, err := attach.FromPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func newAttachCheckCmd() *cobra.Command {
	var already int
	var offline bool
	cmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Validate files against the forum upload policy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if already < 0 {
				return fmt.Errorf("--already must not be negative")
			}
			files, err := loadCandidates(args)
			if err != nil {
				return err
			}
			policy := app.UploadPolicy(cmd.Context(), offline)
			res := attach.Validate(files, already, policy)

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
	cmd.Flags().IntVar(&already, "already", 0, "number of files already attached to the question")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in policy instead of asking the server")
	return cmd
}

func newAttachURLsCmd() *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "urls [attachment.json|-]",
		Short: "Print the download URL and display fallback chain of an attachment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			a, err := readAttachment(cmd, path)
			if err != nil {
				return err
			}
			if base == "" {
				base = app.Cfg.GetString("base_url")
			}
			opts, err := outputOptions(cmd)
			if err != nil {
				return err
			}
			return present.RenderLocations(cmd.OutOrStdout(), attach.LocationsFor(a, base), opts)
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "forum origin (default base_url)")
	return cmd
}

func newAttachFetchCmd() *cobra.Command {
	var base, out string
	cmd := &cobra.Command{
		Use:   "fetch [attachment.json|-] -o FILE",
		Short: "Download an attachment, trying each known location in turn",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			a, err := readAttachment(cmd, path)
			if err != nil {
				return err
			}
			if base == "" {
				base = app.Cfg.GetString("base_url")
			}
			if out == "" && a.OriginalName != "" {
				out = filepath.Base(a.OriginalName)
			}
			if out == "" {
				return fmt.Errorf("no output path: pass -o")
			}

			if out == "-" {
				_, err := app.Fetcher.Fetch(cmd.Context(), a, base, cmd.OutOrStdout())
				return err
			}
			part := out + ".part"
			f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			from, err := app.Fetcher.Fetch(cmd.Context(), a, base, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(part)
				return err
			}
			if err := os.Rename(part, out); err != nil {
				return err
			}
			app.Log.Info.Printf("fetched %s from %s", out, from)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "forum origin (default base_url)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or - for stdout (default original name)")
	return cmd
}
