package cli

import (
	"context"
	"strconv"

	"github.com/gclaussn/go-planning/planning"
	"github.com/spf13/cobra"
)

func newAuthCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "auth",
		Short:       "Register, log in and show the profile",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.AddCommand(newAuthLoginCmd(cli))
	c.AddCommand(newAuthProfileCmd(cli))
	c.AddCommand(newAuthRegisterCmd(cli))

	return &c
}

func newAuthLoginCmd(cli *Cli) *cobra.Command {
	var cmd planning.LoginCmd

	c := cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token - used for " + envPrefix + "TOKEN",
		RunE: func(c *cobra.Command, _ []string) error {
			token, err := cli.api.Login(context.Background(), cmd)
			if err != nil {
				return err
			}

			c.Print(token)
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Email, "email", "", "Email of a registered user")
	c.Flags().StringVar(&cmd.Password, "password", "", "Password")

	c.MarkFlagRequired("email")
	c.MarkFlagRequired("password")

	return &c
}

func newAuthProfileCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "profile",
		Short: "Show the profile of the logged in user",
		RunE: func(c *cobra.Command, _ []string) error {
			profile, err := cli.api.Profile(context.Background())
			if err != nil {
				return err
			}

			table := newTable([]string{
				"EMAIL",
				"OFFERING ORGANIZATION",
			})

			table.addRow([]string{
				profile.Email,
				strconv.FormatBool(profile.OfferingOrganization),
			})

			c.Print(table.format())
			return nil
		},
	}

	return &c
}

func newAuthRegisterCmd(cli *Cli) *cobra.Command {
	var cmd planning.RegisterCmd

	c := cobra.Command{
		Use:   "register",
		Short: "Register a user",
		RunE: func(c *cobra.Command, _ []string) error {
			user, err := cli.api.Register(context.Background(), cmd)
			if err != nil {
				return err
			}

			c.Println(user.Id)
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Email, "email", "", "Email, used to log in")
	c.Flags().StringVar(&cmd.Name, "name", "", "Full name")
	c.Flags().StringVar(&cmd.Organization, "organization", "", "Name of the user's organization")
	c.Flags().BoolVar(&cmd.OfferingOrganization, "offering-organization", false, "Determines if the organization offers resources")
	c.Flags().StringVar(&cmd.Password, "password", "", "Password with at least 5 characters, including a digit")

	c.MarkFlagRequired("email")
	c.MarkFlagRequired("name")
	c.MarkFlagRequired("password")

	return &c
}
