package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geocoder89/docvault/internal/credentials"
	"github.com/geocoder89/docvault/internal/db"
	"github.com/geocoder89/docvault/internal/domain/user"
)

func newCreateUserCmd(a *app) *cobra.Command {
	var name, email, role, password string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account, prompting for the password when --password is omitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = a.readPassword("Password: ", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			return a.withBackend(cmd, func(ctx context.Context, b *backend) error {
				svc := credentials.NewService(b.users, credentials.BcryptHasher())

				id, err := svc.Register(ctx, credentials.RegisterInput{
					Name:     name,
					Email:    email,
					Password: password,
					Role:     role,
				})
				if errors.Is(err, user.ErrEmailTaken) {
					return fmt.Errorf("a user with email %s already exists", user.NormalizeEmail(email))
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", id, user.NormalizeEmail(email))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&role, "role", string(user.RoleUser), "Role: user or admin")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when empty)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace a user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = a.readPassword("New password: ", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			return a.withBackend(cmd, func(ctx context.Context, b *backend) error {
				svc := credentials.NewService(b.users, credentials.BcryptHasher())

				err := svc.ResetPassword(ctx, email, password)
				if errors.Is(err, user.ErrNotFound) {
					return fmt.Errorf("no user with email %s", user.NormalizeEmail(email))
				}
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "password updated")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newSeedAdminCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap admin from ADMIN_EMAIL and ADMIN_PASSWORD if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.AdminEmail == "" || a.cfg.AdminPassword == "" {
				return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
			}

			return a.withBackend(cmd, func(ctx context.Context, b *backend) error {
				created, err := db.EnsureAdminUser(ctx, b.users, a.cfg)
				if err != nil {
					return err
				}

				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "admin %s created\n", a.cfg.AdminEmail)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", a.cfg.AdminEmail)
				}
				return nil
			})
		},
	}
}
