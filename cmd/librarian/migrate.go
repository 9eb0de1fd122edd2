package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, store, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			log.Info().Str("store", store.Name()).Msg("schema up to date")
			return nil
		},
	}
}
