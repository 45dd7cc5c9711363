package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"shelf-reader/internal/config"
	"shelf-reader/internal/domain"
	"shelf-reader/internal/ui"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shelf-reader",
		Short: "A personal e-book library and reader for the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI("", "")
		},
	}

	root.AddCommand(newImportCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReadCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newQuotesCmd())
	root.AddCommand(newDeleteCmd())
	return root
}

func withContainer(fn func(c *config.Container) error) error {
	c, err := config.NewContainer()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// runTUI starts the terminal app, optionally opening straight into a
// document, positioned at a highlight when highlightID is set.
func runTUI(documentID, highlightID string) error {
	return withContainer(func(c *config.Container) error {
		app := ui.NewApp(context.Background(), c)

		if documentID != "" {
			doc, err := c.DocumentService.GetDocument(documentID)
			if err != nil {
				return err
			}
			var hl *domain.Highlight
			if highlightID != "" {
				highlights, err := c.Store.GetHighlightsForDocument(doc.ID)
				if err != nil {
					return err
				}
				for _, h := range highlights {
					if h.ID == highlightID {
						hl = h
						break
					}
				}
				if hl == nil {
					return fmt.Errorf("highlight %q not found in document %q", highlightID, doc.ID)
				}
			}
			app.OpenAt(doc, hl)
		}

		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
		_, err := p.Run()
		app.Shutdown()
		return err
	})
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Import PDF, EPUB, or text files into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *config.Container) error {
				for _, path := range args {
					doc, err := c.ImportService.ImportFile(cmd.Context(), path)
					if err != nil {
						return fmt.Errorf("importing %s: %w", path, err)
					}
					fmt.Printf("Imported %q (%s, %d words) as %s\n",
						doc.Title, doc.Format, doc.WordCount, doc.ID)
				}
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *config.Container) error {
				docs, err := c.DocumentService.ListDocuments()
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					fmt.Println("Library is empty.")
					return nil
				}
				for _, d := range docs {
					author := ""
					if d.Author != nil {
						author = " by " + *d.Author
					}
					fmt.Printf("%s  %-9s %5.1f%%  %s%s\n", d.ID, d.Format, d.Progress, d.Title, author)
				}
				return nil
			})
		},
	}
}

func newReadCmd() *cobra.Command {
	var highlightID string
	cmd := &cobra.Command{
		Use:   "read <document-id>",
		Short: "Open a document in the reader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(args[0], highlightID)
		},
	}
	cmd.Flags().StringVar(&highlightID, "highlight", "", "open at the given highlight")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [document-id]",
		Short: "Show reading-time statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *config.Container) error {
				if len(args) == 1 {
					doc, err := c.DocumentService.GetDocument(args[0])
					if err != nil {
						return err
					}
					stats, err := c.StatsService.ForDocument(doc.ID)
					if err != nil {
						return err
					}
					printStats(doc.Title, stats.Sessions, stats.ActiveTime, stats.LastReadAt)
					return nil
				}

				totals, err := c.StatsService.Totals()
				if err != nil {
					return err
				}
				docs, err := c.DocumentService.ListDocuments()
				if err != nil {
					return err
				}
				for _, d := range docs {
					if s, ok := totals[d.ID]; ok {
						printStats(d.Title, s.Sessions, s.ActiveTime, s.LastReadAt)
					}
				}
				return nil
			})
		},
	}
}

func printStats(title string, sessions int, active time.Duration, last time.Time) {
	lastStr := "never"
	if !last.IsZero() {
		lastStr = last.Format("2006-01-02 15:04")
	}
	fmt.Printf("%-40s %3d session(s)  %8s active  last read %s\n",
		title, sessions, active.Round(time.Second), lastStr)
}

func newQuotesCmd() *cobra.Command {
	var asJSON bool
	var documentID string
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Export highlights, optionally for a single document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *config.Container) error {
				quotes, err := c.DocumentService.Quotes(documentID)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(quotes)
				}
				for _, q := range quotes {
					fmt.Printf("%s [%s]\n  %q\n", q.Title, q.Highlight.Color, q.Highlight.Text)
					if q.Highlight.Note != "" {
						fmt.Printf("  note: %s\n", q.Highlight.Note)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().StringVar(&documentID, "document", "", "limit to one document")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and all its annotations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(func(c *config.Container) error {
				return c.DocumentService.DeleteDocument(args[0])
			})
		},
	}
}
