package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/beamline-core/internal/beamline"
	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/infrastructure/config"
	"github.com/nerrad567/beamline-core/internal/infrastructure/logging"
)

// DefaultConfigPath is read when neither --config nor $BEAMLINE_CORE_CONFIG
// is given. A missing file means built-in defaults.
const DefaultConfigPath = "configs/config.yaml"

// ConfigPathEnv overrides DefaultConfigPath.
const ConfigPathEnv = config.EnvPrefix + "CONFIG"

// Exit statuses returned by ExitCode.
const (
	ExitOK           = 0
	ExitNotConnected = 1
	ExitError        = 2
)

// BuildInfo identifies the binary. It is set at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app carries what every command shares once the root has run.
type app struct {
	build      BuildInfo
	configPath string
	logLevel   string

	cfg *config.Config
	log *logging.Logger
}

// NewRootCommand builds the command tree. Each call returns an independent
// tree, so tests can execute commands side by side.
func NewRootCommand(build BuildInfo) *cobra.Command {
	if build.Version == "" {
		build.Version = "dev"
	}
	a := &app{build: build}

	root := &cobra.Command{
		Use:   "beamline",
		Short: "Build, connect and inspect beamline devices",
		Long: `beamline builds the devices a beamline declares, connects them and
reports which ones are unreachable.

The beamline argument of each command defaults to $BEAMLINE, then to
beamline.id from the configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath(), "configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newConnectCommand(a),
		newListCommand(a),
		newHistoryCommand(a),
		newServeCommand(a),
		newVersionCommand(a),
	)
	return root
}

// ExitCode maps an error returned by the command tree to a process exit
// status: 1 when devices failed to connect, 2 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, factory.ErrNotConnected):
		return ExitNotConnected
	default:
		return ExitError
	}
}

// load reads configuration and sets up logging for the running command.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	var w io.Writer = cmd.ErrOrStderr()
	if strings.EqualFold(cfg.Logging.Output, "stdout") {
		w = cmd.OutOrStdout()
	}
	a.log = logging.NewWriter(w, cfg.Logging, a.build.Version)
	a.log.Debug("configuration loaded", "path", a.configPath)
	return nil
}

func defaultConfigPath() string {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return path
	}
	return DefaultConfigPath
}

// beamlineArg resolves the beamline a command acts on.
func (a *app) beamlineArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if name := beamline.Name(a.cfg.Beamline.ID); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no beamline given: pass one, set $%s or beamline.id", beamline.EnvVar)
}
