// Package admincli implements the operator command line: seeding an ADMIN
// account and changing or removing existing accounts directly in the store.
package admincli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tact0/internal/server/services"
	"github.com/spf13/cobra"
)

// Opener connects to the credential store named by dsn.
type Opener func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error)

// OpenPostgres opens the store and applies pending migrations.
func OpenPostgres(logger logging.Logger) Opener {
	return func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
		if dsn == "" {
			return nil, fmt.Errorf("%w: database dsn is required", common.ErrConfiguration)
		}
		rm, err := repomanager.New(ctx, dsn, logger)
		if err != nil {
			return nil, err
		}
		if err := rm.RunMigrations(ctx); err != nil {
			_ = rm.Close()
			return nil, err
		}
		return rm, nil
	}
}

type rootOptions struct {
	dsn      string
	email    string
	password string
}

// NewRootCommand builds the createadmin command tree. Without a subcommand
// it upserts the ADMIN account given by --email.
func NewRootCommand(open Opener, lookupEnv func(string) (string, bool), logger logging.Logger) *cobra.Command {
	o := &rootOptions{}
	if v, ok := lookupEnv("DATABASE_URL"); ok {
		o.dsn = v
	}

	withAdmin := func(cmd *cobra.Command, fn func(ctx context.Context, s *services.AdminService) error) error {
		ctx := cmd.Context()
		rm, err := open(ctx, o.dsn)
		if err != nil {
			return err
		}
		defer rm.Close()
		return fn(ctx, services.NewAdminService(rm, logger))
	}

	root := &cobra.Command{
		Use:           "createadmin --email EMAIL [--password PASSWORD]",
		Short:         "Create or promote an ADMIN account",
		Long:          "Creates the account with role ADMIN, or promotes it when it already exists.\nThe password is prompted for when --password is omitted; it is ignored for existing accounts.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.email == "" {
				return errors.New("--email is required")
			}
			password := o.password
			if password == "" {
				var err error
				if password, err = getPassword(cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			return withAdmin(cmd, func(ctx context.Context, s *services.AdminService) error {
				u, created, err := s.EnsureAdmin(ctx, o.email, password)
				if err != nil {
					return err
				}
				verb := "promoted"
				if created {
					verb = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s: %s (%s)\n", verb, u.Email, u.ID)
				return nil
			})
		},
	}
	root.PersistentFlags().StringVarP(&o.dsn, "database-dsn", "d", o.dsn, "PostgreSQL DSN (defaults to $DATABASE_URL)")
	root.Flags().StringVar(&o.email, "email", "", "account email")
	root.Flags().StringVar(&o.password, "password", "", "password for a new account")

	root.AddCommand(
		&cobra.Command{
			Use:   "set-role EMAIL ROLE",
			Short: "Change the role of an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				role, ok := models.ParseRole(args[1])
				if !ok {
					return fmt.Errorf("unknown role %q (want one of %v)", args[1], models.Roles())
				}
				return withAdmin(cmd, func(ctx context.Context, s *services.AdminService) error {
					if err := s.SetRole(ctx, args[0], role); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "role of %s set to %s\n", args[0], role)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete EMAIL",
			Short: "Delete an account; its sessions stop resolving immediately",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withAdmin(cmd, func(ctx context.Context, s *services.AdminService) error {
					if err := s.Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
					return nil
				})
			},
		},
	)

	return root
}
