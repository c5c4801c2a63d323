package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/mcp"
	"screen-translator/src/present"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/server"
)

func newServeCmd(opts *mainOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resident recognition and translation service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.cfg.ServiceAddr
			}
			svc, err := runtimeinit.NewService(opts.cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			// Refuse to start half-initialized.
			if h := svc.HealthCheck(cmd.Context()); !h.OK {
				return apperr.NewUnavailable(strings.Join(h.Unavailable(), ","), nil)
			}
			log.Printf("Service %s listening on %s", version, addr)
			return server.New(svc, addr).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to SERVICE_ADDR)")
	return cmd
}

func newMCPCmd(opts *mainOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the service as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := opts.openBackend()
			if err != nil {
				return err
			}
			defer closeFn()
			return mcp.Run(b, version)
		},
	}
}

func newTranslateCmd(opts *mainOptions) *cobra.Command {
	var (
		from, to string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "translate <text...>",
		Short: "Translate text, answering single words from the dictionary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := opts.openBackend()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.deadline())
			defer cancel()
			res, err := b.TranslateWith(ctx, strings.Join(args, " "), from, to)
			if err != nil {
				if ctx.Err() != nil {
					return apperr.Timeout(apperr.TranslationFailed, err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			return present.Render(out, present.Result{Recognized: res.Query, Translation: res}, present.DetectStyle(out))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source language (defaults to SOURCE_LANG)")
	cmd.Flags().StringVar(&to, "to", "", "Target language (defaults to TARGET_LANG)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newLookupCmd(opts *mainOptions) *cobra.Command {
	var asJSON, family bool
	cmd := &cobra.Command{
		Use:   "lookup <word>",
		Short: "Look a word up in the dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := opts.openBackend()
			if err != nil {
				return err
			}
			defer closeFn()

			entry, err := b.DictionaryLookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if family {
				forms := lexicon.Family(entry)
				if asJSON {
					return writeJSON(out, forms)
				}
				for _, f := range forms {
					fmt.Fprintf(out, "%s\t%s\n", f.Kind.Label(), f.Form)
				}
				return nil
			}
			if asJSON {
				return writeJSON(out, entry)
			}
			_, err = fmt.Fprintln(out, lexicon.Format(entry))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw entry as JSON")
	cmd.Flags().BoolVar(&family, "family", false, "List the word family instead of the entry")
	return cmd
}

func newSimilarCmd(opts *mainOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "similar <prefix>",
		Short: "List dictionary words starting with a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := opts.openBackend()
			if err != nil {
				return err
			}
			defer closeFn()

			words, err := b.Similar(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, w := range words {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of words")
	return cmd
}

func newHealthCmd(opts *mainOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report engine readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := opts.openBackend()
			if err != nil {
				return err
			}
			defer closeFn()

			h := b.HealthCheck(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, h); err != nil {
					return err
				}
			} else {
				names := make([]string, 0, len(h.Engines))
				for name := range h.Engines {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					st := h.Engines[name]
					state := "ok"
					if !st.Initialized || !st.Reachable {
						state = "down"
					}
					line := fmt.Sprintf("%-12s %-5s %s", name, state, st.Name)
					if !st.Required {
						line += " (optional)"
					}
					if st.Error != "" {
						line += ": " + st.Error
					}
					fmt.Fprintln(out, strings.TrimRight(line, " "))
				}
			}
			if !h.OK {
				return apperr.NewUnavailable(strings.Join(h.Unavailable(), ","), nil)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the health report as JSON")
	return cmd
}

func newDictCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage the dictionary database",
	}

	var dbPath string
	importCmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Build a dictionary database from an ECDICT CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = opts.cfg.DictionaryPath
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := lexicon.ImportCSV(cmd.Context(), f, dbPath)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s\n", n, dbPath)
			return nil
		},
	}
	importCmd.Flags().StringVar(&dbPath, "db", "", "Destination database (defaults to DICTIONARY_PATH)")
	cmd.AddCommand(importCmd)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
