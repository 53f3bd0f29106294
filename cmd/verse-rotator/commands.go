package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"verse-rotator/internal/api"
	"verse-rotator/internal/cache"
	"verse-rotator/internal/compiler"
	"verse-rotator/internal/importer"
	"verse-rotator/internal/notes"
	"verse-rotator/internal/rotator"
	"verse-rotator/internal/server"
)

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rotator over HTTP",
		Example: `
verse-rotator serve --addr :8080
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.Addr
			}

			ctx, cancel := signalContext()
			defer cancel()

			serial := &server.Serial{}
			svc, err := a.services(ctx, rotator.NewTickerScheduler(serial.Do), serial.Do)
			if err != nil {
				return err
			}
			defer serial.Do(svc.ctrl.Close)

			srv, err := server.New(server.Deps{
				Controller:     svc.ctrl,
				Serial:         serial,
				Collections:    a.db,
				Notes:          svc.notes,
				Compiler:       svc.compiler,
				AV:             svc.av,
				Prefs:          a.prefs,
				Logger:         a.log.Named("http"),
				AllowedOrigins: a.cfg.AllowedOrigins,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the configured addr)")
	return cmd
}

func newImportCommand() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "import [translation...]",
		Short: "Download translations into the local database",
		Example: `
verse-rotator import --list
verse-rotator import KJV WEB
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			archive, err := cache.NewArchive(a.cfg.CacheDir)
			if err != nil {
				return err
			}
			im := importer.New(api.NewClient(), archive, a.db, a.log.Named("import"))
			ctx, cancel := signalContext()
			defer cancel()

			out := cmd.OutOrStdout()
			if list || len(args) == 0 {
				ts, err := im.Available(ctx)
				if err != nil {
					return err
				}
				for _, t := range ts {
					marker := " "
					if archive.IsCached(t.ShortName) {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %-10s %s\n", marker, t.ShortName, t.FullName)
				}
				return nil
			}

			if len(args) == 1 {
				n, err := im.Import(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Imported %s: %d verses.\n", args[0], n)
				return nil
			}
			if err := im.ImportAll(ctx, args); err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %s.\n", strings.Join(args, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the translations available for import (* = downloaded)")
	return cmd
}

func newCompileCommand() *cobra.Command {
	var translation, file string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile reference prompts into plain text",
		Long:  "Reads one reference prompt per line from --file or stdin and prints the verse text.",
		Example: `
printf 'John 3:16-18\nPsalm 23\n' | verse-rotator compile --translation KJV
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			var in io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := io.ReadAll(in)
			if err != nil {
				return err
			}

			c := compiler.New(cache.NewVerses(a.db), a.prefs, a.log.Named("compiler"))
			if translation == "" {
				translation = c.LastTranslation()
			}
			res, err := c.Run(cmd.Context(), translation, string(text))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			fmt.Fprintln(cmd.ErrOrStderr(), res.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&translation, "translation", "t", "", "translation id (defaults to the last one used)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read prompts from this file instead of stdin")
	return cmd
}

func newNotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notes",
		Aliases: []string{"note"},
		Short:   "List or show notes",
	}

	list := &cobra.Command{
		Use:   "list [search]",
		Short: "List notes, grouped by folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			m, err := notes.NewManager(a.db, a.prefs, a.log.Named("notes"))
			if err != nil {
				return err
			}
			if err := m.Refresh(cmd.Context()); err != nil {
				return err
			}

			search := ""
			if len(args) == 1 {
				search = args[0]
			}
			l := m.List(search)
			out := cmd.OutOrStdout()
			if l.Empty() {
				fmt.Fprintln(out, "No notes found.")
				return nil
			}
			for _, f := range l.Folders {
				fmt.Fprintf(out, "%s/\n", f.Name)
				for _, e := range f.Notes {
					fmt.Fprintf(out, "  %s\n", e.Title)
				}
			}
			for _, e := range l.Standalone {
				fmt.Fprintln(out, e.Title)
			}
			return nil
		},
	}

	var width int
	show := &cobra.Command{
		Use:   "show <name>",
		Short: `Render a note; use "folder\note" for notes in a folder`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			m, err := notes.NewManager(a.db, a.prefs, a.log.Named("notes"))
			if err != nil {
				return err
			}
			n, err := m.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := notes.PreviewTerminal(n.Content, width)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	show.Flags().IntVar(&width, "width", 80, "wrap width")

	cmd.AddCommand(list, show)
	return cmd
}

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect downloaded translation archives",
	}

	withArchive := func(fn func(cmd *cobra.Command, args []string, a *app, archive *cache.Archive) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()
			archive, err := cache.NewArchive(a.cfg.CacheDir)
			if err != nil {
				return err
			}
			return fn(cmd, args, a, archive)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List downloaded translations and their total size",
		Args:  cobra.NoArgs,
		RunE: withArchive(func(cmd *cobra.Command, _ []string, _ *app, archive *cache.Archive) error {
			ids, err := archive.List()
			if err != nil {
				return err
			}
			size, err := archive.Size()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			fmt.Fprintf(out, "%d translations, %.1f MB\n", len(ids), float64(size)/(1<<20))
			return nil
		}),
	}

	var purge bool
	remove := &cobra.Command{
		Use:   "remove <translation>...",
		Short: "Delete downloaded archives (imported verses are kept unless --purge)",
		Args:  cobra.MinimumNArgs(1),
		RunE: withArchive(func(cmd *cobra.Command, args []string, a *app, archive *cache.Archive) error {
			var errs []error
			for _, id := range args {
				if purge {
					if err := a.db.DeleteTranslation(cmd.Context(), id); err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", id, err))
						continue
					}
					a.log.Info("translation deleted", zap.String("translation", id))
				}
				if err := archive.Remove(id); err != nil {
					if purge && errors.Is(err, os.ErrNotExist) {
						fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", id)
						continue
					}
					errs = append(errs, fmt.Errorf("%s: %w", id, err))
					continue
				}
				a.log.Info("archive removed", zap.String("translation", id))
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", id)
			}
			return errors.Join(errs...)
		}),
	}
	remove.Flags().BoolVar(&purge, "purge", false, "also delete the imported translation from the database")

	cmd.AddCommand(list, remove)
	return cmd
}
