package main

import (
	"log/slog"

	"github.com/aanand-mishra/notes-api/internal/cloudflare"
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Upload the durable script, register namespaces, and bind the calling worker",
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

		d := &cloudflare.Deployer{
			Client:        cloudflare.NewFromConfig(cfg),
			DurableScript: cfg.DurableScript,
			CallingScript: cfg.CallingScript,
			DistDir:       cfg.DistDir,
			Log:           slog.Default(),
		}
		deployErr := d.Deploy(cmd.Context(), refs)

		// Namespace ids recorded before a failure are still worth keeping.
		if err := refs.Save(cfg.ReferencesPath); err != nil {
			slog.Error("failed to save references", slog.String("error", err.Error()))
			if deployErr == nil {
				return err
			}
		}
		return deployErr
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
}
