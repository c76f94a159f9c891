package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ersonp/mythos/internal/application/handlers"
	"github.com/ersonp/mythos/internal/domain/services"
	"github.com/ersonp/mythos/internal/infrastructure/source"
	"github.com/ersonp/mythos/internal/infrastructure/watcher"
)

func newWatchCmd() *cobra.Command {
	var noReload bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive lookup prompt that reloads on data changes",
		Long:  "Loads the index once and answers lookups typed at the prompt. With a directory source, the index is rebuilt whenever an entity file changes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, !noReload)
		},
	}

	cmd.Flags().BoolVar(&noReload, "no-reload", false, "Do not watch the data directory")

	return cmd
}

type watchState struct {
	lookup        *handlers.LookupHandler
	limit         int
	maxAlternates int

	mu  sync.Mutex
	out io.Writer
}

func runWatch(cmd *cobra.Command, reload bool) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return withInternalDeps(ctx, func(d *internalDeps) error {
		state := &watchState{
			lookup:        d.LookupHandler,
			limit:         d.Config.Index.DefaultLimit,
			maxAlternates: d.Config.Index.MaxAlternates,
			out:           os.Stdout,
		}
		state.printf("Loaded %d entities from %s.\n", d.LoadResult.Stats.TotalEntities, d.sourceName)

		if dir, ok := d.source.(*source.DirectorySource); ok && reload {
			go state.watchDirectory(ctx, d, dir.Root())
		}

		return state.runInputLoop(ctx, os.Stdin)
	})
}

// watchDirectory rebuilds the shared index after each batch of file changes.
func (s *watchState) watchDirectory(ctx context.Context, d *internalDeps, dir string) {
	w := watcher.New(dir, watcher.DefaultDebounce, d.Logger)
	err := w.Run(ctx, func(paths []string) {
		var stats int
		err := d.Index.Rebuild(func(index *services.NameVariantIndex) error {
			loaded, err := services.NewLoaderService(index, d.Logger).LoadFromSource(ctx, d.source, d.loadOptions())
			if loaded != nil {
				stats = loaded.TotalEntities
			}
			return err
		})
		if err != nil {
			d.Logger.Error("rebuilding index", slog.String("error", err.Error()))
			return
		}
		s.printf("\nReloaded %d entities (%d files changed).\n> ", stats, len(paths))
	})
	if err != nil && ctx.Err() == nil {
		d.Logger.Error("watching data directory", slog.String("dir", dir), slog.String("error", err.Error()))
	}
}

func (s *watchState) runInputLoop(ctx context.Context, in io.Reader) error {
	s.printf("Mythos interactive mode. Type a name to look it up, 'help' for commands.\n")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		s.printf("> ")
		select {
		case <-ctx.Done():
			s.printf("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if s.handleLine(line) {
				return nil
			}
		}
	}
}

// handleLine runs one prompt line. It returns true when the user asked to exit.
func (s *watchState) handleLine(line string) bool {
	input := strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false
	case "quit", "exit":
		s.printf("Goodbye!\n")
		return true
	case "help":
		s.showHelp()
	case "stats":
		st := s.lookup.HandleStats()
		s.printf("%d entities, %d name variants (%.2f per entity)\n",
			st.TotalEntities, st.TotalNameVariants, st.AverageNamesPerEntity)
	case "aliases":
		if arg == "" {
			s.printf("usage: aliases <id>\n")
			return false
		}
		result := s.lookup.HandleAliases(arg)
		if result.Entity == nil {
			s.printf("Entity %q not found.\n", arg)
			return false
		}
		s.printf("%s: %s\n", result.Entity.PrimaryName, strings.Join(result.Names, ", "))
	case "expand":
		if arg == "" {
			s.printf("usage: expand <term>\n")
			return false
		}
		result := s.lookup.HandleExpand(arg, services.ExpandOptions{MaxAlternates: s.maxAlternates})
		s.printf("%s\n", strings.Join(result.Terms, ", "))
	default:
		s.find(input)
	}
	return false
}

func (s *watchState) find(query string) {
	result := s.lookup.HandleFind(query, services.FindOptions{Limit: s.limit})
	if len(result.Matches) == 0 {
		s.printf("No entities found for %q.\n", query)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeMatches(s.out, result.Matches)
}

func (s *watchState) showHelp() {
	s.printf("Commands:\n")
	s.printf("  <name>          - Find entities by name\n")
	s.printf("  aliases <id>    - List every name of an entity\n")
	s.printf("  expand <term>   - Expand a term with known aliases\n")
	s.printf("  stats           - Show index statistics\n")
	s.printf("  quit            - Exit interactive mode\n")
}

func (s *watchState) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
