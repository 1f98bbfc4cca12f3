package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
	"github.com/zhouzirui/luma/backend/internal/config"
)

// options holds settings shared by all subcommands. Values come from flags,
// then the config file, then the same environment variables the server reads.
type options struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "emotiontester",
		Short: "Run the emotion pipeline from the terminal",
		Long: `emotiontester loads the exported TF-IDF model and runs the same
prediction and override rules as the chat server, one line of input at a time.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "YAML config file with model, profile and profiles_file keys")
	flags.String("model", "ml_model/model_params.json", "path to model_params.json (or .json.gz)")
	flags.String("profile", analysis.ProfileLuma,
		"override profile name (built-in: "+strings.Join(analysis.ProfileNames(analysis.Profiles()), ", ")+")")
	flags.String("profiles-file", "", "YAML file with extra override profiles")

	_ = opts.v.BindPFlag("model", flags.Lookup("model"))
	_ = opts.v.BindPFlag("profile", flags.Lookup("profile"))
	_ = opts.v.BindPFlag("profiles_file", flags.Lookup("profiles-file"))
	_ = opts.v.BindEnv("model", "MODEL_PATH")
	_ = opts.v.BindEnv("profile", "OVERRIDE_PROFILE")
	_ = opts.v.BindEnv("profiles_file", "OVERRIDE_PROFILE_FILE")

	rootCmd.AddCommand(newPredictCmd(opts))
	rootCmd.AddCommand(newResolveCmd(opts))
	rootCmd.AddCommand(newSchemaCmd())
	return rootCmd
}

func (o *options) initConfig() error {
	if o.cfgFile == "" {
		return nil
	}
	o.v.SetConfigFile(o.cfgFile)
	if err := o.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", o.cfgFile, err)
	}
	return nil
}

func (o *options) classifier() (*analysis.Classifier, error) {
	path := o.v.GetString("model")
	artifact, err := analysis.LoadArtifact(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return analysis.NewClassifier(artifact), nil
}

func (o *options) overrideConfig() (analysis.OverrideConfig, error) {
	profiles := analysis.Profiles()
	if path := o.v.GetString("profiles_file"); path != "" {
		extra, err := config.LoadOverrideProfiles(path)
		if err != nil {
			return analysis.OverrideConfig{}, err
		}
		for name, cfg := range extra {
			profiles[name] = cfg
		}
	}

	name := o.v.GetString("profile")
	cfg, ok := profiles[name]
	if !ok {
		return analysis.OverrideConfig{}, fmt.Errorf("unknown profile %q (available: %s)",
			name, strings.Join(analysis.ProfileNames(profiles), ", "))
	}
	return cfg, nil
}
