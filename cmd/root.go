package cmd

import (
	"fmt"
	"os"

	"nfsh/pkg/conf"
	"nfsh/pkg/escseq"
	"nfsh/pkg/rfs"
	"nfsh/pkg/slog"
	"nfsh/shell"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nfsh",
	Short: "nfsh - An interactive shell for remote filesystems",
	Long: `nfsh connects to a remote filesystem and exposes it through a small
interactive shell: browse with cd/ls, transfer files with get/put/cat,
and manage the tree with mkdir/rm/mv/chmod/chown.

Supported remote protocols:

* nfs  - NFSv3 over TCP, no local mount required
* sftp - SFTP over ssh, optionally tunneled through a websocket`,
	SilenceUsage: true,
}

// Flags shared by every protocol subcommand
var (
	gLogLevel   string
	gColorless  bool
	gConfigFile string
	gUmask      string
	gBatch      string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&gLogLevel, "log-level", "", "Logger verbosity (debug|info|warn|error|off)")
	pf.BoolVar(&gColorless, "colorless", false, "Disable terminal colors")
	pf.StringVar(&gConfigFile, "config", "", "Path to a configuration file")
	pf.StringVar(&gUmask, "umask", "", "File creation mask in octal")
	pf.StringVarP(&gBatch, "command", "c", "", "Run a semicolon separated command string and exit")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(nfsCmd)
	rootCmd.AddCommand(sftpCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Shows Binary Build info",
	Run: func(cmd *cobra.Command, args []string) {
		conf.PrintVersion()
	},
}

// loadConfig merges the optional config file with the shared flags. Flags
// win when set.
func loadConfig(cmd *cobra.Command) (*conf.Config, error) {
	cfg, err := conf.Load(gConfigFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = gLogLevel
	}
	if cmd.Flags().Changed("colorless") {
		cfg.Colorless = gColorless
	}
	if gUmask != "" {
		var mask uint32
		if _, sErr := fmt.Sscanf(gUmask, "%o", &mask); sErr != nil || mask > 0o777 {
			return nil, fmt.Errorf("invalid umask %q, expected octal up to 777", gUmask)
		}
		cfg.Umask = mask
	}
	return cfg, nil
}

// runSession owns the engine lifecycle around an interactive or batch run.
func runSession(engine rfs.Engine, cfg *conf.Config) error {
	escseq.SetColors(!cfg.Colorless)

	logger := slog.NewLogger("nfsh ")
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	if err := engine.Init(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = engine.Close() }()

	s := shell.New(engine, logger)
	s.SetUmask(cfg.Umask)

	if gBatch != "" {
		s.RunBatch(gBatch, shell.NewStdUI())
		return nil
	}
	return s.RunInteractive()
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Error is already printed by the command, just exit
		os.Exit(1)
	}
}
