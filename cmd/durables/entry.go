package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/notes-api/internal/durable"
	"github.com/spf13/cobra"
)

var entryOut string

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Write the durable bundle's entry module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		refs, _, err := discover(cfg)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return fmt.Errorf("no durable modules found under %s", cfg.SourceRoot)
		}

		out := entryOut
		if out == "" {
			out = filepath.Join(cfg.DistDir, "durable.input.js")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return err
		}

		prefix, err := filepath.Rel(filepath.Dir(out), cfg.SourceRoot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, []byte(durable.EntrySource(refs, prefix)), 0o644); err != nil {
			return err
		}
		if err := refs.Save(cfg.ReferencesPath); err != nil {
			return err
		}

		slog.Info("wrote durable entry", slog.String("path", out), slog.Int("classes", len(refs)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.Flags().StringVarP(&entryOut, "out", "o", "", "Entry module path (default <dist_dir>/durable.input.js)")
}
