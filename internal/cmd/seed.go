package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	user "backoffice-system/internal/services/user/handler"
	sysutils "backoffice-system/internal/utils"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the first admin account from ADMIN_EMAIL and ADMIN_PASSWORD",
	Long: `Creates an admin account when the users table is empty.
Nothing happens when at least one user already exists.`,
	RunE: runSeedAdmin,
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()

	users := user.NewUserHandler(rt.db, sysutils.NewTokenIssuer(rt.cfg.JWT.Secret, rt.cfg.JWT.TTL), rt.logger)
	created, err := users.SeedAdmin(cmd.Context(), rt.cfg.Admin.Email, rt.cfg.Admin.Password, rt.cfg.Admin.Name)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if !created {
		rt.logger.Info("Users already exist or no admin credentials configured, nothing to do")
	}
	return nil
}
