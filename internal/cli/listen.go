package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/iconreg/internal/app"
	"github.com/vk/iconreg/internal/ctxlog"
	"github.com/vk/iconreg/internal/livereload"
)

func listenCmd(outW io.Writer, g *globalFlags) *cobra.Command {
	var (
		url      string
		insecure bool
	)
	c := &cobra.Command{
		Use:   "listen",
		Short: "Print registry updates pushed by a running dev server",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.NewConfig(app.Config{LogLevel: g.logLevel, LogFormat: g.logFormat})
			if err != nil {
				return usageError(err)
			}
			logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			ctx := ctxlog.WithLogger(cmd.Context(), logger)

			logger.Info("Listening for icon updates.", "url", url)
			return livereload.Listen(ctx, url, livereload.DialOptions{InsecureSkipVerify: insecure}, func(u livereload.Update) {
				fmt.Fprintf(outW, "%s\t%s\t%d bytes\n", livereload.UpdateEvent, u.Dst, u.Bytes)
			})
		},
	}
	c.Flags().StringVar(&url, "url", "http://localhost:3030", "Base URL of the dev server.")
	c.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification.")
	return c
}
