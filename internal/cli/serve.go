package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mithrel/agora/internal/server"
)

func newServeCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local preview service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if cmd.Flags().Changed("listen") {
				l, _ := cmd.Flags().GetString("listen")
				app.Cfg.Set("http_addr", l)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := server.New(app.Cfg, app.UploadPolicy(ctx, offline), app.Log)
			return srv.Serve(ctx, app.Cfg.GetString("http_addr"), nil)
		},
	}
	cmd.Flags().String("listen", "", "address to listen on (overrides http_addr)")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the built-in upload policy instead of the server's")
	return cmd
}
