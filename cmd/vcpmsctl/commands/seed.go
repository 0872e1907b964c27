package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var confirmUnseed bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data",
	Long: `Load demo accounts, companies, individuals, investments, founders,
programmes and link documents. Records that already exist are skipped.

Both demo accounts (john.doe@example.org and the superuser
petra.pickles@example.org) use the password Password123.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.close()
		if err := rt.seeder().Seed(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Seeding complete.")
		return nil
	},
}

var unseedCmd = &cobra.Command{
	Use:   "unseed",
	Short: "Delete all portfolio data",
	Long: `Delete every company, individual and programme with their documents and
stored files, then every account that is neither staff nor superuser.

Examples:
  vcpmsctl unseed --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmUnseed {
			return errors.New("unseed deletes all portfolio data, rerun with --yes to confirm")
		}
		rt, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer rt.close()
		if err := rt.seeder().Unseed(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Unseeding complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd, unseedCmd)
	unseedCmd.Flags().BoolVarP(&confirmUnseed, "yes", "y", false, "Confirm the deletion")
}
