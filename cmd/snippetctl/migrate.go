package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Brings the database schema up to date. Opening the database already
migrates it, so this mostly reports the resulting version; it is safe to run
any number of times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := c.db.Migrate()
			if err != nil {
				return err
			}
			success(cmd, "Schema at version %d", version)
			return nil
		},
	}
}
