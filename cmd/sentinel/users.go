package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sentinel/internal/logger"
	"sentinel/internal/store/filestore"
)

func newUsersCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user whitelists in the configured store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <users.yml>",
		Short: "Create or replace user records from a YAML users file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filestore.LoadUsersFile(args[0])
			if err != nil {
				return err
			}

			cfg, _, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			b, err := openBackend(&cfg.Sentinel)
			if err != nil {
				return err
			}
			defer b.close()
			if b.userWriter == nil {
				return fmt.Errorf("store mode %s is read-only", cfg.Sentinel.Store.Mode)
			}

			for i := range f.Users {
				u := f.Users[i]
				if err := b.userWriter.PutUser(cmd.Context(), &u); err != nil {
					return fmt.Errorf("put user %s: %w", u.ID, err)
				}
				logger.With("user", u.ID).Infof("User imported: whitelist=%d", len(u.Whitelist))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported users=%d\n", len(f.Users))
			return nil
		},
	})
	return cmd
}
