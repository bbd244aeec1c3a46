package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sakif/snippets-api/internal/service"
)

func (c *cli) createSuperuserCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account",
		Long: `Creates an active staff user. Without --password the password is read
from the first line of standard input, so it stays out of shell history:

  echo "$ADMIN_PASSWORD" | snippetctl createsuperuser --username admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return err
				}
			}

			user, err := c.users.Create(systemCtx(cmd), service.CreateUserInput{
				Username: username,
				Password: password,
				IsStaff:  true,
			})
			if err != nil {
				return err
			}
			success(cmd, "Superuser %s created (id %d)", color.CyanString(user.Username), user.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username of the new staff account")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

func (c *cli) deactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <username>",
		Short: "Soft-delete a user",
		Long: `Marks the user inactive. The account and its snippets stay in the
database, the user can no longer log in, and the change is audited as an
update of the user.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.users.SoftDelete(systemCtx(cmd), args[0])
			if err != nil {
				return err
			}
			success(cmd, "User %s deactivated", color.CyanString(user.Username))
			return nil
		},
	}
}

func (c *cli) purgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <username>",
		Short: "Permanently delete a user and their snippets",
		Long: `Removes the user row and every snippet it owns. Each snippet and then
the user is audited as a delete. Audit records that name the user are kept.
This cannot be undone; pass --yes to confirm.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge %s without --yes", args[0])
			}
			if err := c.users.Purge(systemCtx(cmd), args[0]); err != nil {
				return err
			}
			success(cmd, "User %s and their snippets deleted", color.CyanString(args[0]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the permanent deletion")
	return cmd
}
