package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ziadkadry99/chat-lens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize chatlens configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to locate your export and configure chatlens, and generates a .chatlens.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
