package main

import (
	"errors"
	"fmt"
	"strings"

	"familytree/client"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *cliApp) *cobra.Command {
	var token, email string

	cmd := &cobra.Command{
		Use:   "login --token <jwt>",
		Short: "Store the access token issued by the identity service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				var err error
				if token, err = app.prompt("Token: "); err != nil {
					return err
				}
				token = strings.TrimSpace(token)
			}
			if token == "" {
				return errors.New("--token is required")
			}

			profile, err := client.ProfileFromToken(token)
			if err != nil {
				return err
			}
			profile.Email = email
			if err := app.session.SignIn(token, profile); err != nil {
				return err
			}

			fmt.Fprintf(app.out, "Signed in as %s\n", profile.Name)
			if !profile.IsPaid {
				fmt.Fprintln(app.out, "This account has no active subscription; the family tree stays locked until you upgrade.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().StringVar(&email, "email", "", "account email shown by whoami")
	return cmd
}

func newLogoutCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.session.SignOut(); err != nil {
				return err
			}
			app.parent.Clear()
			if err := app.saveParent(); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, ok := app.session.Profile()
			if !ok {
				fmt.Fprintln(app.out, "Not signed in")
				return nil
			}
			plan := "free"
			if profile.IsPaid {
				plan = "paid"
			}
			fmt.Fprintf(app.out, "%s (id %d, %s plan)\n", profile.Name, profile.ID, plan)
			if profile.Email != "" {
				fmt.Fprintln(app.out, profile.Email)
			}
			if cur, ok := app.parent.Current(); ok {
				fmt.Fprintf(app.out, "Context parent: %s (%s)\n", cur.Name, cur.ID)
			}
			return nil
		},
	}
}
