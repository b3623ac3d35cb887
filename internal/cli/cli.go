package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vk/iconreg/internal/app"
	"github.com/vk/iconreg/internal/config"
	"github.com/vk/iconreg/internal/hcl"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	root      string
	config    string
	logLevel  string
	logFormat string
}

// iconFlags override configuration settings when set.
type iconFlags struct {
	location      string
	componentName string
	typeName      string
	packageName   string
	buildDir      string
	workers       int
	noWarn        bool
	port          int
	debounce      time.Duration
}

// NewRootCommand builds the iconreg command tree writing to outW.
func NewRootCommand(outW io.Writer) *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "iconreg",
		Short: "iconreg - compile a directory of SVG icons into a typed templ registry",
		Long: `iconreg compiles every *.svg file under the icons directory into a
templ component and generates one Go file holding an icon key type, a
lookup table and a dispatching component.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(outW)
	cmd.SetErr(outW)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.root, "root", ".", "Project root that icon and build locations are resolved against.")
	pf.StringVar(&g.config, "config", "", "Configuration file (default <root>/iconreg.hcl when present).")
	pf.StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	cmd.AddCommand(buildCmd(outW, g), devCmd(outW, g), listenCmd(outW, g))
	return cmd
}

func buildCmd(outW io.Writer, g *globalFlags) *cobra.Command {
	f := &iconFlags{}
	c := &cobra.Command{
		Use:   "build",
		Short: "Generate the icon registry once",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, outW, g, f, false)
			if err != nil {
				return err
			}
			return a.Build(cmd.Context())
		},
	}
	addIconFlags(c, f)
	return c
}

func devCmd(outW io.Writer, g *globalFlags) *cobra.Command {
	f := &iconFlags{}
	c := &cobra.Command{
		Use:   "dev",
		Short: "Generate, serve and regenerate the icon registry on change",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, outW, g, f, true)
			if err != nil {
				return err
			}
			return a.Dev(cmd.Context())
		},
	}
	addIconFlags(c, f)
	c.Flags().IntVar(&f.port, "port", 3030, "Dev server port. 0 picks a free port.")
	c.Flags().DurationVar(&f.debounce, "debounce", 100*time.Millisecond, "Quiet period before regenerating after a change.")
	return c
}

func addIconFlags(c *cobra.Command, f *iconFlags) {
	fl := c.Flags()
	fl.StringVar(&f.location, "icons", "", "Icons directory (default ~/assets/icons).")
	fl.StringVar(&f.componentName, "component-name", "", "Name of the generated component (default AppIcon).")
	fl.StringVar(&f.typeName, "type-name", "", "Name of the generated key type (default Icon).")
	fl.StringVar(&f.packageName, "package", "", "Package name of the generated file (default icons).")
	fl.StringVar(&f.buildDir, "out", "", "Build directory the generated file is written to (default .iconreg).")
	fl.IntVarP(&f.workers, "workers", "w", 0, "Number of icons compiled concurrently (default 8).")
	fl.BoolVar(&f.noWarn, "no-warn-missing", false, "Do not log unknown icon keys in dev mode.")
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError(err)
	}
	return nil
}

// overrides applies every flag the user set explicitly.
func (f *iconFlags) overrides(cmd *cobra.Command) func(m *config.Model) {
	changed := cmd.Flags().Changed
	return func(m *config.Model) {
		if changed("icons") {
			m.Icons.Location = f.location
		}
		if changed("component-name") {
			m.Icons.ComponentName = f.componentName
		}
		if changed("type-name") {
			m.Icons.TypeName = f.typeName
		}
		if changed("package") {
			m.Icons.PackageName = f.packageName
		}
		if changed("out") {
			m.Build.Dir = f.buildDir
		}
		if changed("workers") {
			m.Build.Workers = f.workers
		}
		if changed("no-warn-missing") {
			m.Icons.WarnMissingIcon = !f.noWarn
		}
		if changed("port") {
			m.Dev.Port = f.port
		}
		if changed("debounce") {
			m.Dev.Debounce = f.debounce
		}
	}
}

func newApp(cmd *cobra.Command, outW io.Writer, g *globalFlags, f *iconFlags, dev bool) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		Root:       g.root,
		ConfigFile: g.config,
		LogLevel:   g.logLevel,
		LogFormat:  g.logFormat,
		Dev:        dev,
		Overrides:  f.overrides(cmd),
	})
	if err != nil {
		return nil, usageError(err)
	}

	if err := loadDotEnv(cfg.Root); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	return app.NewApp(outW, cfg, hcl.NewLoader(root, nil))
}

// loadDotEnv reads <root>/.env into the process environment without
// overriding variables that are already set.
func loadDotEnv(root string) error {
	err := godotenv.Load(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
