package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/primar/console/internal/core/domain"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

// createAdminCmd bootstraps the first admin. Roles can only be changed by an
// admin through the API, so the first one has to come from here.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing account to admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email := strings.ToLower(strings.TrimSpace(adminEmail))
		if !domain.ValidEmail(email) {
			return domain.NewValidationError("email", "invalid email")
		}
		if err := domain.ValidatePassword(adminPassword, adminPassword); err != nil {
			return err
		}

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		user, err := a.identity.CreateAccount(ctx, email, adminPassword, adminName)
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			user, err = a.repos.Users.FindByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("find existing account: %w", err)
			}
			log.Info().Str("user_id", user.ID).Msg("account exists, promoting")
		case err != nil:
			return fmt.Errorf("create account: %w", err)
		}

		if err := a.repos.Roles.Assign(ctx, user.ID, domain.RoleAdmin); err != nil {
			return fmt.Errorf("assign admin role: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (%s)\n", email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (min 6 characters)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrador", "admin display name")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
