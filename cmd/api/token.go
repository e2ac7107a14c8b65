package main

import (
	"fmt"

	"vaultbank-service/internal/config"
	"vaultbank-service/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for local testing",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().String("sub", "", "user id (token subject)")
	tokenCmd.Flags().String("email", "", "email claim")
	tokenCmd.Flags().StringSlice("role", []string{jwt.RoleSupportAgent}, "roles to grant")
	_ = tokenCmd.MarkFlagRequired("sub")
}

func runToken(cmd *cobra.Command, args []string) error {
	sub, _ := cmd.Flags().GetString("sub")
	email, _ := cmd.Flags().GetString("email")
	roles, _ := cmd.Flags().GetStringSlice("role")

	manager, err := jwt.LoadAndBuild(config.Load().JWT)
	if err != nil {
		return err
	}

	primary := jwt.RoleCustomer
	if len(roles) > 0 {
		primary = roles[0]
	}
	token, _, err := manager.Generator.Generate(sub, email, primary, roles)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
