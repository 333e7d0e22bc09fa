package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andywolf/toolfence/internal/anomaly"
	"github.com/andywolf/toolfence/internal/config"
	"github.com/andywolf/toolfence/internal/fence"
	"github.com/andywolf/toolfence/internal/logstore"
	"github.com/andywolf/toolfence/internal/mirror"
	"github.com/andywolf/toolfence/internal/policy"
	"github.com/andywolf/toolfence/internal/redact"
	"github.com/andywolf/toolfence/internal/skillscan"
	"github.com/andywolf/toolfence/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "toolfence",
	Short: "toolfence - audit and policy fence for agent tool calls",
	Long: `toolfence sits between an autonomous agent and the tools it invokes,
recording every tool call, redacting sensitive content, classifying risky
patterns, optionally enforcing allow/deny policy, and persisting an
auditable trail. It also statically scans installable skill bundles for
dangerous patterns before they are trusted.

Example:
  toolfence record --event before_tool_call --tool bash --params '{"cmd":"ls"}'
  toolfence logs --severity high --format csv`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .toolfence.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".toolfence")
	}

	viper.SetEnvPrefix("TOOLFENCE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// newFence assembles the pipeline from the loaded configuration. The
// returned cleanup drains the write queue and closes the mirror.
func newFence(ctx context.Context) (*fence.Fence, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := logstore.New(cfg.Log.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log store: %w", err)
	}

	var sink fence.Sink
	var cloudMirror *mirror.CloudMirror
	if cfg.Mirror.Enabled {
		cloudMirror, err = mirror.New(ctx, cfg.Mirror.Project, cfg.Mirror.LogID)
		if err != nil {
			// Mirroring is best-effort; the local pipeline still runs.
			fmt.Fprintln(os.Stderr, "Warning: cloud mirror unavailable:", err)
		} else {
			sink = cloudMirror
		}
	}

	f := fence.New(fence.Options{
		Store:    store,
		Policy:   policy.NewEngine(cfg.Policy.Path),
		Redactor: redact.New(cfg.RedactEnabled()),
		Anomaly: anomaly.New(anomaly.Config{
			Enabled:           cfg.Anomaly.Enabled,
			LargePayloadBytes: cfg.Anomaly.LargePayloadBytes,
			BurstRate:         cfg.Anomaly.BurstRate,
			BurstSize:         cfg.Anomaly.BurstSize,
		}),
		Scanner:         skillscan.New(cfg.Skills.Roots),
		Mirror:          sink,
		MaxPayloadBytes: cfg.Payload.MaxBytes,
	})

	var once sync.Once
	cleanup := func() {
		once.Do(func() { shutdown(f, cloudMirror) })
	}
	return f, cleanup, nil
}

func shutdown(f *fence.Fence, cloudMirror *mirror.CloudMirror) {
	if err := f.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: failed to close log store:", err)
	}
	if cloudMirror != nil {
		if err := cloudMirror.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: failed to close mirror:", err)
		}
	}
}
