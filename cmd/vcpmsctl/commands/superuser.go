package commands

import (
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"github.com/spf13/cobra"
)

var superuser models.UserInput

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff account with every permission",
	Long: `Create a superuser. Superusers can see archived records and manage users
and groups.

Examples:
  vcpmsctl createsuperuser --email admin@example.org --password S3cretPass \
    --first-name Ada --last-name Lovelace --phone 07123456789`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer rt.close()
		u, err := rt.adminService().CreateSuperuser(cmd.Context(), superuser)
		if err != nil {
			return err
		}
		cmd.Printf("Superuser %s created (id %d).\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createSuperuserCmd)
	flags := createSuperuserCmd.Flags()
	flags.StringVar(&superuser.Email, "email", "", "Email address used to sign in")
	flags.StringVar(&superuser.Password, "password", "", "Initial password")
	flags.StringVar(&superuser.FirstName, "first-name", "", "First name")
	flags.StringVar(&superuser.LastName, "last-name", "", "Last name")
	flags.StringVar(&superuser.Phone, "phone", "", "UK phone number")
	_ = createSuperuserCmd.MarkFlagRequired("email")
	_ = createSuperuserCmd.MarkFlagRequired("password")
}
