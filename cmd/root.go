package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/joho/godotenv/autoload"
)

var (
	cfgFile  string
	logLevel string

	BuildVersion = "dev"
	BuildCommit  = "none"
	BuildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "kmscheck",
	Short: "KMS endpoint discovery and DNS republishing",
	Long: `kmscheck discovers candidate KMS activation endpoints from a remote
text source, probes them for TCP reachability, and republishes the first
reachable one into a Cloudflare DNS record.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteCLI(version, commit, date string) {
	if version != "" {
		BuildVersion = version
	}
	if commit != "" {
		BuildCommit = commit
	}
	if date != "" {
		BuildDate = date
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./kmscheck.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kmscheck")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".kmscheck"))
		}
		viper.AddConfigPath("/etc/kmscheck")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		// Only fatal when the operator named a file explicitly; the tool is
		// fully usable from environment variables alone.
		log.Fatal().Err(err).Str("config", cfgFile).Msg("Failed to read config file")
	}
}

// setupLogging configures the global zerolog logger. The --log-level flag
// wins over the config value.
func setupLogging(configLevel string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	level := configLevel
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
