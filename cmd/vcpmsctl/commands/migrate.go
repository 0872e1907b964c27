package commands

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update every table and load the permission catalogue.

Examples:
  vcpmsctl migrate
  vcpmsctl migrate --config deploy/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.close()
		cmd.Println("Database migrated.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
