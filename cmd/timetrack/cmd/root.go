package cmd

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/psantana5/gpu-keepalive/internal/config"
	"github.com/psantana5/gpu-keepalive/internal/timetrack"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	dataDir string
	cfg     *config.Config

	// now is swapped in tests
	now = time.Now
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "timetrack",
	Short: "Track time per category and project",
	Long: `timetrack records start/stop entries in a plain-text log and summarizes
them per day, week, month or year.

The same binary answers to the tt-start, tt-stop, tt-summary and tt-current
names that "timetrack install" links into ~/.local/bin.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// aliases maps multi-call link names to subcommands
var aliases = map[string]string{
	"tt-start":   "start",
	"tt-stop":    "stop",
	"tt-summary": "summary",
	"tt-current": "current",
}

// Execute runs the CLI. When argv0 is one of the tt-* link names the
// matching subcommand is implied.
func Execute(argv0 string, args []string) error {
	rootCmd.SetArgs(Args(argv0, args))
	return rootCmd.Execute()
}

// Args returns the cobra arguments for an invocation as argv0
func Args(argv0 string, args []string) []string {
	name := strings.TrimSuffix(filepath.Base(argv0), filepath.Ext(argv0))
	if sub, ok := aliases[name]; ok {
		return append([]string{sub}, args...)
	}
	return args
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gpu-keepalive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "time-tracking data directory (default ~/notes/_data/timetracker)")
}

func initConfig(cmd *cobra.Command, args []string) error {
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	if dataDir != "" {
		v.Set("timetrack.data_dir", dataDir)
	}
	cfg, err = config.Load(v)
	return err
}

func store() *timetrack.Store {
	return timetrack.NewStore(cfg.Timetrack.DataDir)
}
