package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var correctCmd = &cobra.Command{
	Use:   "correct <identifier> <name>",
	Short: "Record a manual name correction",
	Long: `Stores a manual correction mapping an identifier to a display name.
Corrections persist across runs and win over every computed match.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCorrect,
}

func init() {
	correctCmd.Flags().Bool("list", false, "list stored corrections")
	correctCmd.Flags().Bool("remove", false, "remove the correction for the given identifier")
	rootCmd.AddCommand(correctCmd)
}

func runCorrect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if list, _ := cmd.Flags().GetBool("list"); list {
		corrs, err := db.ListCorrections(ctx)
		if err != nil {
			return err
		}
		if len(corrs) == 0 {
			fmt.Println("No corrections stored.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "IDENTIFIER\tNAME\tADDED")
		for _, c := range corrs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Identifier, c.DisplayName, c.CreatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	}

	if remove, _ := cmd.Flags().GetBool("remove"); remove {
		if len(args) != 1 {
			return fmt.Errorf("--remove takes exactly one identifier")
		}
		deleted, err := db.DeleteCorrection(ctx, args[0])
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Printf("No correction stored for %s\n", args[0])
			return nil
		}
		fmt.Printf("Correction removed: %s\n", args[0])
		return nil
	}

	if len(args) < 2 {
		return fmt.Errorf("usage: chatlens correct <identifier> <name>")
	}
	identifier := args[0]
	name := strings.Join(args[1:], " ")

	if err := db.SaveCorrection(ctx, identifier, name); err != nil {
		return err
	}

	fmt.Printf("Correction saved: %s -> %s\n", identifier, name)
	return nil
}
