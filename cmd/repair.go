package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/config"
	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/repair"
	"github.com/ziadkadry99/chat-lens/internal/store"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Rewrite the archive with resolved names",
	Long: `Renames unnamed chats, fills in unknown senders the resolver can
identify with enough confidence, and annotates every message with its
destination. The original file is backed up first.`,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().Bool("dry-run", false, "compute changes without writing any file")
	repairCmd.Flags().Int("threshold", repair.DefaultThreshold, "minimum confidence for sender rewrites (defaults to config)")
	repairCmd.Flags().String("output", "", "write the repaired archive here instead of in place")
	repairCmd.Flags().Bool("backup", true, "write a .bak copy before overwriting")
	repairCmd.Flags().Bool("history", false, "show past repair runs instead of repairing")
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if history, _ := cmd.Flags().GetBool("history"); history {
		return printRepairHistory(cfg)
	}

	arc, res, err := openArchive(cfg)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	output, _ := cmd.Flags().GetString("output")
	backup, _ := cmd.Flags().GetBool("backup")

	threshold, _ := cmd.Flags().GetInt("threshold")
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.ConfidenceThreshold
	}

	runner := repair.New(res)
	runner.SetReporter(progress.NewReporter())

	rep, err := runner.Run(arc, repair.Options{
		ArchivePath: cfg.Archive,
		OutputPath:  output,
		Threshold:   threshold,
		Backup:      backup,
		DryRun:      dryRun,
	})
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	fmt.Println()
	if dryRun {
		fmt.Println("Dry run complete, no files written.")
	} else {
		fmt.Println("Repair complete!")
	}
	fmt.Printf("  Chats renamed:      %d of %d\n", rep.Stats.RenamedChats, rep.Stats.TotalChats)
	fmt.Printf("  Senders resolved:   %d of %d messages (%.1f%% improvement)\n",
		rep.Stats.RenamedSenders, rep.Stats.TotalMessages, rep.Stats.Improvement())
	fmt.Printf("  Destinations added: %d\n", rep.Stats.DestinationsAdded)
	if rep.BackupPath != "" {
		fmt.Printf("  Backup:             %s\n", rep.BackupPath)
	}
	if rep.OutputPath != "" {
		fmt.Printf("  Output:             %s\n", rep.OutputPath)
	}
	fmt.Printf("  Duration:           %s\n", time.Since(start).Round(time.Millisecond))

	if len(rep.Renames) > 0 {
		fmt.Println("\nRenamed chats:")
		for _, rn := range rep.Renames {
			fmt.Printf("  %s -> %s\n", rn.ChatID, rn.Name)
		}
	}

	if !dryRun {
		if err := recordRepairRun(cfg, rep); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not record repair run: %v\n", err)
		}
	}

	return nil
}

func recordRepairRun(cfg *config.Config, rep *repair.Report) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.RecordRepairRun(context.Background(), store.RepairRun{
		ArchivePath:       cfg.Archive,
		TotalChats:        rep.Stats.TotalChats,
		RenamedChats:      rep.Stats.RenamedChats,
		TotalMessages:     rep.Stats.TotalMessages,
		RenamedSenders:    rep.Stats.RenamedSenders,
		DestinationsAdded: rep.Stats.DestinationsAdded,
	})
	return err
}

func printRepairHistory(cfg *config.Config) error {
	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRepairRuns(context.Background(), 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No repair runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tARCHIVE\tCHATS RENAMED\tSENDERS RESOLVED\tDESTINATIONS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d/%d\t%d\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.ArchivePath,
			r.RenamedChats, r.TotalChats,
			r.RenamedSenders, r.TotalMessages,
			r.DestinationsAdded)
	}
	return tw.Flush()
}
