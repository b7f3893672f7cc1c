package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	unmarshalErr error
	mountConfig  Config
)

var rootCmd = &cobra.Command{
	Use:   "xv6shelld script",
	Short: "Boot a teaching-kernel syscall dispatch layer and run a command script against it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if unmarshalErr != nil {
			return unmarshalErr
		}
		return runScript(args[0], mountConfig.limits())
	},
}

// Execute runs the root command, exiting the process on error the way
// gcsfuse's cmd.Execute does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	d := defaultConfig()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file overriding the default Limits")
	rootCmd.PersistentFlags().Int("nofile", d.NOFILE, "per-process open-file descriptors")
	rootCmd.PersistentFlags().Int("nosysshm", d.NOSYSSHM, "system-wide shared-memory slots")
	rootCmd.PersistentFlags().Int("noprocessshm", d.NOPROCESSSHM, "per-process shm attachments")
	rootCmd.PersistentFlags().Int("shmmaxpages", d.SHMMAXPAGES, "max backing pages per shm segment")
	rootCmd.PersistentFlags().Int("maxarg", d.MAXARG, "max argv entries accepted by exec")
	rootCmd.PersistentFlags().Int("dirsiz", d.DIRSIZ, "bytes of a directory entry's name field")
	rootCmd.PersistentFlags().Int("pgsize", d.PGSIZE, "page size in bytes")

	for _, name := range []string{"nofile", "nosysshm", "noprocessshm", "shmmaxpages", "maxarg", "dirsiz", "pgsize"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			unmarshalErr = fmt.Errorf("reading config file: %w", err)
			return
		}
	}
	unmarshalErr = viper.Unmarshal(&mountConfig)
}
