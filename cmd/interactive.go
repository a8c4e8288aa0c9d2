package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/report"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
	"github.com/ziadkadry99/chat-lens/internal/search"
	"github.com/ziadkadry99/chat-lens/internal/store"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Explore the archive with a menu-driven prompt",
	Long:  `Opens a menu loop for searching messages, listing chats, resolving identifiers and recording corrections without retyping flags.`,
	RunE:  runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

const (
	menuSearch  = "Search messages"
	menuChats   = "List chats"
	menuResolve = "Resolve an identifier"
	menuCorrect = "Add a correction"
	menuQuit    = "Quit"
)

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	arc, res, err := openArchive(cfg)
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	fmt.Printf("Loaded %d chats with %d messages.\n\n", arc.Len(), arc.TotalMessages())

	for {
		menu := promptui.Select{
			Label: "What would you like to do?",
			Items: []string{menuSearch, menuChats, menuResolve, menuCorrect, menuQuit},
		}
		_, choice, err := menu.Run()
		if err != nil {
			if err == promptui.ErrInterrupt {
				return nil
			}
			return err
		}

		switch choice {
		case menuSearch:
			err = interactiveSearch(arc, res)
		case menuChats:
			printChatTable(os.Stdout, chatRows(arc, res))
		case menuResolve:
			err = interactiveResolve(res)
		case menuCorrect:
			err = interactiveCorrect(db, res)
		case menuQuit:
			return nil
		}
		if err != nil {
			if err == promptui.ErrInterrupt {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Println()
	}
}

func interactiveSearch(arc *archive.Archive, res *resolver.Resolver) error {
	p := promptui.Prompt{Label: "Keywords"}
	input, err := p.Run()
	if err != nil {
		return err
	}
	keywords := strings.Fields(input)
	if len(keywords) == 0 {
		return nil
	}

	results, err := search.Search(arc, res, search.Options{
		Keywords: keywords,
		Reporter: progress.Silent(),
	})
	if err != nil {
		return err
	}
	report.PrintResults(os.Stdout, results, false)
	return nil
}

func interactiveResolve(res *resolver.Resolver) error {
	p := promptui.Prompt{Label: "Identifier"}
	identifier, err := p.Run()
	if err != nil {
		return err
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}
	printResolution(os.Stdout, res.Resolve(identifier, resolver.Context{}))
	return nil
}

func interactiveCorrect(db *store.DB, res *resolver.Resolver) error {
	idPrompt := promptui.Prompt{Label: "Identifier"}
	identifier, err := idPrompt.Run()
	if err != nil {
		return err
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}

	namePrompt := promptui.Prompt{
		Label: "Display name",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("name is required")
			}
			return nil
		},
	}
	name, err := namePrompt.Run()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	if err := db.SaveCorrection(context.Background(), identifier, name); err != nil {
		return err
	}
	res.AddManualCorrection(identifier, name)
	fmt.Printf("Correction saved: %s -> %s\n", identifier, name)
	return nil
}
