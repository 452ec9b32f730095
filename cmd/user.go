package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	userCommand := &cobra.Command{
		Use:   "user",
		Short: "Manage board accounts",
	}
	RootCommand.AddCommand(userCommand)

	var displayName string
	addCommand := &cobra.Command{
		Use:   "add <user id>",
		Short: "Create an active account; the password is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.board.CreateUser(cmd.Context(), args[0], displayName, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.ID, user.DisplayName)
			return nil
		},
	}
	addCommand.Flags().StringVarP(&displayName, "name", "n", "", "display name (defaults to the user id)")
	userCommand.AddCommand(addCommand)

	passwdCommand := &cobra.Command{
		Use:   "passwd <user id>",
		Short: "Set a new password and clear the login lockout; the password is read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.board.SetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		},
	}
	userCommand.AddCommand(passwdCommand)

	for _, active := range []bool{true, false} {
		active := active
		use, short := "enable <user id>", "Allow an account to log in"
		if !active {
			use, short = "disable <user id>", "Block an account from logging in"
		}
		userCommand.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := bootstrap(cmd.Context())
				if err != nil {
					return err
				}
				defer a.close()
				return a.board.SetActive(cmd.Context(), args[0], active)
			},
		})
	}
}

func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
