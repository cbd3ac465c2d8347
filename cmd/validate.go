package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devsim-go/devsim/devs/config"
)

var validateConfigPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a scenario file for structural and semantic errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadScenarioConfig(validateConfigPath)
		if err != nil {
			return fmt.Errorf("loading %s: %w", validateConfigPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s is invalid: %w", validateConfigPath, err)
		}
		logrus.Infof("%s: OK (mode=%s, scenario=%s)", validateConfigPath, cfg.Mode, cfg.Scenario.Kind)
		fmt.Printf("%s: OK\n", validateConfigPath)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "", "path to a scenario YAML file")
	_ = validateCmd.MarkFlagRequired("config")
}
