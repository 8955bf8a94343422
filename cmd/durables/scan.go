package main

import (
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/notes-api/internal/config"
	"github.com/aanand-mishra/notes-api/internal/durable"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find durable modules and record them in the references file",
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
		if err := refs.Save(cfg.ReferencesPath); err != nil {
			return err
		}

		for _, m := range refs.Modules() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m, refs[m].Namespace, refs[m].ID)
		}
		return nil
	},
}

// discover loads the references file and adds any new durable modules.
func discover(cfg *config.Deploy) (durable.References, []string, error) {
	refs, err := durable.Load(cfg.ReferencesPath)
	if err != nil {
		return nil, nil, err
	}

	added, err := durable.Discover(cfg.SourceRoot, cfg.WorkerEntry, refs)
	if err != nil {
		return nil, nil, err
	}

	isNew := make(map[string]bool, len(added))
	for _, m := range added {
		isNew[m] = true
	}
	for _, m := range refs.Modules() {
		if isNew[m] {
			slog.Info("registered durable module",
				slog.String("module", m),
				slog.String("namespace", refs[m].Namespace))
			continue
		}
		slog.Debug("already registered, nothing to do", slog.String("module", m))
	}
	return refs, added, nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
