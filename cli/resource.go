package cli

import (
	"context"

	"github.com/gclaussn/go-planning/planning"
	"github.com/spf13/cobra"
)

func newResourceCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "resource",
		Short:       "Offer, accept and query resources",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.AddCommand(newResourceAcceptCmd(cli))
	c.AddCommand(newResourceListCmd(cli))
	c.AddCommand(newResourceOfferCmd(cli))

	return &c
}

func newResourceAcceptCmd(cli *Cli) *cobra.Command {
	var id int32

	c := cobra.Command{
		Use:   "accept",
		Short: "Accept an offered resource",
		RunE: func(c *cobra.Command, _ []string) error {
			resource, err := cli.api.AcceptResource(context.Background(), id)
			if err != nil {
				return err
			}

			c.Print(formatResources([]planning.Resource{resource}))
			return nil
		},
	}

	flagId(&c, &id, "Resource ID")

	return &c
}

func newResourceListCmd(cli *Cli) *cobra.Command {
	var projectId int32

	c := cobra.Command{
		Use:   "list",
		Short: "List the resources of a project",
		RunE: func(c *cobra.Command, _ []string) error {
			resources, err := cli.api.ListResources(context.Background(), projectId)
			if err != nil {
				return err
			}

			c.Print(formatResources(resources))
			return nil
		},
	}

	c.Flags().Int32Var(&projectId, "project-id", 0, "Project ID")

	c.MarkFlagRequired("project-id")

	return &c
}

func newResourceOfferCmd(cli *Cli) *cobra.Command {
	var id int32

	c := cobra.Command{
		Use:   "offer",
		Short: "Offer a pending resource on behalf of the logged in user's organization",
		RunE: func(c *cobra.Command, _ []string) error {
			resource, err := cli.api.OfferResource(context.Background(), id)
			if err != nil {
				return err
			}

			c.Print(formatResources([]planning.Resource{resource}))
			return nil
		},
	}

	flagId(&c, &id, "Resource ID")

	return &c
}
