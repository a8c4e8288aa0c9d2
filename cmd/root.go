package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chatlens",
	Short: "Explore a WhatsApp export with reliable contact names",
	Long: `Chat Lens reads an exported WhatsApp archive and resolves the bare
phone numbers and JIDs in it to real contact names. On top of that
it offers keyword and semantic search, LLM-backed analyses, archive
repair, a local report viewer and an MCP server for AI agents.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".chatlens.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
