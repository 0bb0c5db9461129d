package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/quiphq/quip/internal/bus"
	"github.com/quiphq/quip/internal/config"
	"github.com/quiphq/quip/internal/errors"
	"github.com/quiphq/quip/internal/menu"
	"github.com/quiphq/quip/internal/page"
	"github.com/quiphq/quip/internal/store"
	"github.com/quiphq/quip/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(s *store.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "quip",
		Usage:   "Reusable comment keeper",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(s, cfg),
			agentCmd(cfg),
			addCmd(s),
			getCmd(s),
			listCmd(s),
			updateCmd(s),
			deleteCmd(s),
			useCmd(s),
			topCmd(s, cfg),
			categoriesCmd(s),
			seedCmd(s),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(s *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the daemon: web UI, websocket bus, and quick-access menu",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Override the configured bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Override the configured port"},
		},
		Action: func(c *cli.Context) error {
			if bind := c.String("bind"); bind != "" {
				cfg.Bind = bind
			}
			if port := c.Int("port"); port != 0 {
				cfg.Port = port
			}

			ctx := context.Background()

			if !cfg.DisableSeeding {
				added, err := s.SeedSamples(ctx)
				if err != nil {
					return outputError(err)
				}
				if added > 0 {
					log.Printf("seeded %d sample comments", added)
				}
			}

			hub := bus.NewHub(time.Duration(cfg.InsertTimeoutMS) * time.Millisecond)
			projector := menu.NewProjector(s, hub, cfg.MenuLimit)
			if err := projector.Rebuild(ctx); err != nil {
				return outputError(err)
			}

			// Keep the menu in step with collection changes.
			go projector.Run(ctx, hub.Subscribe())

			srv := web.NewServer(s, cfg, hub, projector, Version)
			if err := web.Run(srv); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// agentCmd creates the agent command.
func agentCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "agent",
		Usage: "Attach an HTML document to the daemon as the page context",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Path to the HTML document"},
			&cli.StringFlag{Name: "url", Usage: "Daemon websocket URL (default ws://<bind>:<port>/ws)"},
		},
		Action: func(c *cli.Context) error {
			data, err := os.ReadFile(c.String("file"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			doc, err := page.Parse(string(data))
			if err != nil {
				return outputError(errors.NewValidation(fmt.Sprintf("invalid HTML: %v", err)))
			}

			url := c.String("url")
			if url == "" {
				url = fmt.Sprintf("ws://%s:%d/ws", cfg.Bind, cfg.Port)
			}

			agent := page.NewAgent(doc, url)
			if err := agent.Run(context.Background()); err != nil {
				return outputError(errors.NewUnreachable("daemon"))
			}
			return nil
		},
	}
}

// addCmd creates the add command.
func addCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a comment (text as argument or piped via stdin)",
		ArgsUsage: "[text]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "shortcode", Aliases: []string{"s"}, Usage: "Short label (derived from text when omitted)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category name (defaults to General)"},
		},
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" && stdinHasData() {
				piped, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				text = piped
			}
			if text == "" {
				return outputError(errors.NewValidation("text is required"))
			}

			output, err := s.Add(c.Context, store.AddInput{
				Text:      text,
				Shortcode: c.String("shortcode"),
				Category:  c.String("category"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a comment by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewValidation("id is required"))
			}

			output, err := s.GetByID(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List comments sorted by usage",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category (\"All\" matches everything)"},
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Match against text and shortcode"},
		},
		Action: func(c *cli.Context) error {
			output, err := s.GetAll(c.Context, c.String("category"), c.String("search"))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"comments": output,
				"count":    len(output),
			})
		},
	}
}

// updateCmd creates the update command.
func updateCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a comment (only the provided flags change)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "New comment text"},
			&cli.StringFlag{Name: "shortcode", Aliases: []string{"s"}, Usage: "New shortcode"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "New category"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewValidation("id is required"))
			}
			id := c.Args().First()

			input := store.UpdateInput{}
			if c.IsSet("text") {
				text := c.String("text")
				input.Text = &text
			}
			if c.IsSet("shortcode") {
				shortcode := c.String("shortcode")
				input.Shortcode = &shortcode
			}
			if c.IsSet("category") {
				category := c.String("category")
				input.Category = &category
			}

			updated, err := s.Update(c.Context, id, input)
			if err != nil {
				return outputError(err)
			}
			if !updated {
				return outputError(errors.NewNotFound(id))
			}

			output, err := s.GetByID(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a comment",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewValidation("id is required"))
			}
			id := c.Args().First()

			deleted, err := s.Delete(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"deleted": deleted,
				"id":      id,
			})
		},
	}
}

// useCmd creates the use command.
func useCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Record a use of a comment and print its text",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewValidation("id is required"))
			}
			id := c.Args().First()

			text, err := s.IncrementUse(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"id":   id,
				"text": text,
			})
		},
	}
}

// topCmd creates the top command.
func topCmd(s *store.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "Show the most-used comments",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum entries (defaults to the menu limit)"},
		},
		Action: func(c *cli.Context) error {
			limit := c.Int("limit")
			if limit <= 0 {
				limit = cfg.MenuLimit
			}

			output, err := s.TopComments(c.Context, limit)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"comments": output,
				"count":    len(output),
			})
		},
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the categories in use",
		Action: func(c *cli.Context) error {
			output, err := s.Categories(c.Context)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"categories": output,
			})
		},
	}
}

// seedCmd creates the seed command.
func seedCmd(s *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Populate an empty store with the sample comments",
		Action: func(c *cli.Context) error {
			added, err := s.SeedSamples(c.Context)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"added": added,
			})
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if qErr, ok := err.(*errors.QuipError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", qErr.Code, qErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
