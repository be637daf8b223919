package cli

import (
	"context"

	"github.com/gclaussn/go-planning/planning"
	"github.com/spf13/cobra"
)

func newProjectCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "project",
		Short:       "Create and query projects",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.AddCommand(newProjectCreateCmd(cli))
	c.AddCommand(newProjectGetCmd(cli))
	c.AddCommand(newProjectListCmd(cli))

	return &c
}

func newProjectCreateCmd(cli *Cli) *cobra.Command {
	var (
		startDate dateValue
		endDate   dateValue

		cmd planning.CreateProjectCmd
	)

	c := cobra.Command{
		Use:   "create",
		Short: "Create a project and start a process instance for it",
		RunE: func(c *cobra.Command, _ []string) error {
			cmd.StartDate = planning.Date(startDate)
			cmd.EndDate = planning.Date(endDate)

			project, err := cli.api.CreateProject(context.Background(), cmd)
			if err != nil {
				return err
			}

			c.Println(project.Id)
			return nil
		},
	}

	c.Flags().StringVar(&cmd.Name, "name", "", "Project name")
	c.Flags().Var(&startDate, "start-date", "Date, the project starts")
	c.Flags().Var(&endDate, "end-date", "Date, the project ends")
	c.Flags().StringSliceVar(&cmd.Resources, "resource", nil, "Name of a needed resource")

	c.MarkFlagRequired("name")
	c.MarkFlagRequired("start-date")
	c.MarkFlagRequired("end-date")

	return &c
}

func newProjectGetCmd(cli *Cli) *cobra.Command {
	var id int32

	c := cobra.Command{
		Use:   "get",
		Short: "Get a project, including its resources",
		RunE: func(c *cobra.Command, _ []string) error {
			project, err := cli.api.GetProject(context.Background(), id)
			if err != nil {
				return err
			}

			c.Print(formatProjects([]planning.Project{project}))
			c.Println()
			c.Print(formatResources(project.Resources))
			return nil
		},
	}

	flagId(&c, &id, "Project ID")

	return &c
}

func newProjectListCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(c *cobra.Command, _ []string) error {
			projects, err := cli.api.ListProjects(context.Background())
			if err != nil {
				return err
			}

			c.Print(formatProjects(projects))
			return nil
		},
	}

	return &c
}
