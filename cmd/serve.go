package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"panomirror/mirror"
)

// serveCmd represents the serve command.
var serveCmd = newServeCmd()

func newServeCmd() *cobra.Command {
	var root, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a processed mirror for offline viewing",
		Long: `Serve the mirror root over HTTP. Root-relative CDN paths such as
/qhrenderpicoss.kujiale.com/<path>?<query> are resolved to the files the
process command downloaded.

Example:
  panomirror serve --root ./webroot --addr :8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("root") {
				cfg.Root = root
			}

			log := currentLogger()
			server := &http.Server{
				Addr:              addr,
				Handler:           mirror.NewServer(cfg, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(ctx)
			}()

			log.Info("serving mirror", "root", cfg.Root, "addr", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "mirror root directory (default $MIRROR_ROOT or ./webroot)")
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")

	return cmd
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
