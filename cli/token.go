package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"panellicense/utils"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue API tokens",
	}
	cmd.AddCommand(newTokenIssueCommand())
	return cmd
}

func newTokenIssueCommand() *cobra.Command {
	var (
		userID string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch role {
			case utils.RoleAdmin, utils.RoleUser:
			default:
				return fmt.Errorf("unknown role %q (want %s or %s)", role, utils.RoleAdmin, utils.RoleUser)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			tm, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}

			token, expiresAt, err := tm.GenerateToken(userID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id carried in the token")
	cmd.Flags().StringVar(&role, "role", utils.RoleUser, "token role (admin or user)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
