package main

import (
	"github.com/Artiqlate/callisto/config"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var appFs = afero.NewOsFs()

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "callisto",
		Short:        "Bridge local MPRIS media players with a companion device",
		Long:         "Callisto forwards the media players of this session to a companion device and exposes the device's players as MPRIS players.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := loadConfig(cmd)
			if cfgErr != nil {
				return cfgErr
			}
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath(), "Path of the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the log level (debug, info, warn, error)")
	rootCmd.Flags().IntP("port", "p", config.DefaultPort, "Port of the transmission server")
	rootCmd.Flags().Bool("secure", true, "Advertise the server as secure")
	rootCmd.Flags().Bool("no-zeroconf", false, "Do not advertise the server on the local network")

	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// loadConfig reads the configuration file and applies the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, loadErr := config.LoadConfig(appFs, lo.Must(cmd.Flags().GetString("config")))
	if loadErr != nil {
		return nil, loadErr
	}
	applyFlags(cmd, cfg)
	return cfg, cfg.Validate()
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = lo.Must(flags.GetInt("port"))
	}
	if flags.Changed("secure") {
		cfg.Server.Secure = lo.Must(flags.GetBool("secure"))
	}
	if flags.Changed("no-zeroconf") && lo.Must(flags.GetBool("no-zeroconf")) {
		cfg.Zeroconf.Enabled = false
	}
	if level := lo.Must(flags.GetString("log-level")); level != "" {
		cfg.Log.Level = level
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := lo.Must(cmd.Flags().GetString("config"))
			if exists, _ := afero.Exists(appFs, path); exists && !lo.Must(cmd.Flags().GetBool("force")) {
				cmd.Printf("%s already exists, use --force to overwrite\n", path)
				return nil
			}
			if saveErr := config.SaveConfig(appFs, path, config.DefaultConfig()); saveErr != nil {
				return saveErr
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(initCmd)
	return configCmd
}
