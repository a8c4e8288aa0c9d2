package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/semantic"
	"github.com/ziadkadry99/chat-lens/internal/site"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report viewer in a browser",
	Long: `Starts a local web server with the generated reports rendered as HTML,
a search API over the archive and, when a semantic index and an LLM
are available, an ask-the-archive websocket.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	arc, res, err := openArchive(cfg)
	if err != nil {
		return err
	}

	// The semantic index and the LLM are optional; without them the
	// viewer reports the ask endpoint as unavailable.
	var vstore semantic.VectorStore
	dir := vectorDir(cfg)
	if _, statErr := os.Stat(dir); statErr == nil {
		embedder, embErr := createEmbedderFromConfig(cfg)
		if embErr == nil {
			s, storeErr := semantic.NewStore(embedder, cfg.MaxConcurrency)
			if storeErr == nil {
				if loadErr := s.Load(context.Background(), dir); loadErr == nil && s.Count() > 0 {
					vstore = s
					fmt.Printf("Ask-the-archive enabled (%d messages indexed)\n", s.Count())
				}
			}
		}
		if vstore == nil {
			fmt.Println("Ask-the-archive unavailable (semantic index could not be loaded)")
		}
	} else {
		fmt.Println("Ask-the-archive unavailable (no semantic index; run `chatlens index` first)")
	}

	var provider llm.Provider
	if p, llmErr := createLLMProviderFromConfig(cfg); llmErr == nil {
		provider = p
	} else {
		fmt.Printf("LLM answers unavailable: %v\n", llmErr)
	}

	srv, err := site.New(site.Config{
		Port:       servePort,
		ReportsDir: cfg.OutputDir,
	}, arc, res, vstore, provider, cfg.Model)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		srv.Shutdown(context.Background())
	}()

	fmt.Fprintf(os.Stderr, "chatlens viewer v%s starting on port %d\n", Version, servePort)
	fmt.Fprintf(os.Stderr, "  Reports: %s\n", cfg.OutputDir)
	fmt.Fprintf(os.Stderr, "  Archive: %d chats, %d messages\n", arc.Len(), arc.TotalMessages())

	return srv.Start()
}
