package main

import (
	"errors"
	"fmt"

	"contact-service/internal/dto"

	"github.com/spf13/cobra"
)

func newMemberCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage organization membership",
	}
	cmd.AddCommand(newMemberAddCmd(a))
	return cmd
}

func newMemberAddCmd(a *app) *cobra.Command {
	var (
		organizationID uint
		email          string
		role           string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Grant a user access to an organization",
		Long: `Add makes the user with the given email a member of the organization,
so that login and the token command accept that organization.

Example:
  contactctl member add --org 1 --email ann@example.com --role owner`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if organizationID == 0 {
				return errors.New("--org must be a positive organization id")
			}

			ctx := cmd.Context()
			user, err := a.services.Users.GetByEmail(ctx, email)
			if err != nil {
				return err
			}
			member, err := a.services.Organizations.AddMember(ctx, organizationID, dto.MemberRequest{UserID: user.ID, Role: role})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %d added to organization %d as %s\n", member.UserID, member.OrganizationID, member.Role)
			return nil
		},
	}

	cmd.Flags().UintVar(&organizationID, "org", 0, "organization id (required)")
	cmd.Flags().StringVar(&email, "email", "", "user email (required)")
	cmd.Flags().StringVar(&role, "role", "member", "owner, admin or member")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
