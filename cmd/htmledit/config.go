package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys. Every key can be set by its flag or by the
// environment variable HTMLEDIT_<KEY> with dashes replaced by underscores.
const (
	keyInput          = "input"
	keyOutput         = "output"
	keyBaseDir        = "base-dir"
	keyLogLevel       = "log-level"
	keyLogDevelopment = "log-development"
	keyExplain        = "explain"
)

const envPrefix = "HTMLEDIT"

func addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP(keyInput, "i", "-", "HTML input file, - reads stdin")
	flags.StringP(keyOutput, "o", "-", "output file, - writes to stdout")
	flags.String(keyBaseDir, "", "directory for relative FROM-FILE paths")
	flags.String(keyLogLevel, "warn", "log level (debug, info, warn, error)")
	flags.Bool(keyLogDevelopment, false, "human readable log output")
	flags.Bool(keyExplain, false, "print the parsed pipeline and exit")
}

// loadConfig binds the flags of cmd and the environment to a new viper
// instance. Flags set on the command line win over the environment.
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}
