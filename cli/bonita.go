package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gclaussn/go-planning/bonita"
	"github.com/spf13/cobra"
)

func newBonitaCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:         "bonita",
		Short:       "Interact with a Bonita server directly",
		RunE:        cli.help,
		Annotations: map[string]string{noClientRequired: ""},
	}

	c.PersistentFlags().String("bonita-base-url", "http://localhost:8080/bonita/", "Base URL of the Bonita server")
	c.PersistentFlags().String("bonita-username", "", "Name of the technical Bonita user")
	c.PersistentFlags().String("bonita-password", "", "Password of the technical Bonita user")
	c.PersistentFlags().String("bonita-process-definition-id", "", "ID of the process definition to instantiate")
	c.PersistentFlags().String("bonita-process-name", "", "Name of the process definition to instantiate")
	c.PersistentFlags().String("bonita-user-id", "", "ID of the Bonita user, the first task of a case is assigned to")

	c.PersistentFlags().SetAnnotation("bonita-base-url", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("bonita-username", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("bonita-password", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("bonita-process-definition-id", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("bonita-process-name", envLookupAllowed, nil)
	c.PersistentFlags().SetAnnotation("bonita-user-id", envLookupAllowed, nil)

	c.AddCommand(newBonitaCheckCmd(cli))
	c.AddCommand(newBonitaCompleteTaskCmd(cli))
	c.AddCommand(newBonitaLoginCmd(cli))
	c.AddCommand(newBonitaProcessesCmd(cli))
	c.AddCommand(newBonitaResolveCmd(cli))
	c.AddCommand(newBonitaStartCmd(cli))

	return &c
}

func newBonitaClient(c *cobra.Command, debugEnabled bool) (*bonita.Client, error) {
	flags := c.Flags()

	baseUrl, _ := flags.GetString("bonita-base-url")
	username, _ := flags.GetString("bonita-username")
	if username == "" {
		return nil, fmt.Errorf("no Bonita user set.\n\nuse flag --bonita-username or environment variable %sBONITA_USERNAME\n ", envPrefix)
	}

	b, err := bonita.New(baseUrl, func(o *bonita.Options) {
		o.Username = username
		o.Password, _ = flags.GetString("bonita-password")
		o.ProcessDefinitionId, _ = flags.GetString("bonita-process-definition-id")
		o.ProcessName, _ = flags.GetString("bonita-process-name")
		o.UserId, _ = flags.GetString("bonita-user-id")

		if timeout, err := flags.GetDuration("timeout"); err == nil {
			o.Timeout = timeout
		}

		if debugEnabled {
			o.OnRequest = debugRequest
			o.OnResponse = debugResponse
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Bonita client: %v", err)
	}

	return b, nil
}

func newBonitaCheckCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "check",
		Short: "Check if Bonita is available",
		RunE: func(c *cobra.Command, _ []string) error {
			if !cli.bonita.CheckAvailability(context.Background()) {
				return errors.New("Bonita BPM is not available")
			}

			c.Println("available")
			return nil
		},
		Annotations: map[string]string{bonitaRequired: ""},
	}

	return &c
}

func newBonitaCompleteTaskCmd(cli *Cli) *cobra.Command {
	var caseId string

	c := cobra.Command{
		Use:   "complete-task",
		Short: "Assign and execute the first ready user task of a case",
		RunE: func(c *cobra.Command, _ []string) error {
			return cli.bonita.CompleteFirstTask(context.Background(), caseId)
		},
		Annotations: map[string]string{bonitaRequired: ""},
	}

	c.Flags().StringVar(&caseId, "case-id", "", "Case ID")

	c.MarkFlagRequired("case-id")

	return &c
}

func newBonitaLoginCmd(cli *Cli) *cobra.Command {
	var (
		username string
		password string
	)

	c := cobra.Command{
		Use:   "login",
		Short: "Log a Bonita user in and show its identity",
		RunE: func(c *cobra.Command, _ []string) error {
			userSession, err := cli.bonita.LoginUser(context.Background(), username, password)
			if err != nil {
				return err
			}

			table := newTable([]string{
				"USER ID",
				"ROLES",
				"LOGGED IN AT",
			})

			table.addRow([]string{
				userSession.UserId,
				strings.Join(userSession.Roles, ","),
				formatTime(userSession.ObtainedAt),
			})

			c.Print(table.format())
			return nil
		},
		Annotations: map[string]string{bonitaRequired: ""},
	}

	c.Flags().StringVar(&username, "username", "", "Name of the Bonita user")
	c.Flags().StringVar(&password, "password", "", "Password of the Bonita user")

	c.MarkFlagRequired("username")
	c.MarkFlagRequired("password")

	return &c
}

func newBonitaProcessesCmd(cli *Cli) *cobra.Command {
	c := cobra.Command{
		Use:   "processes",
		Short: "List deployed process definitions",
		RunE: func(c *cobra.Command, _ []string) error {
			processes := cli.bonita.ListAvailableProcesses(context.Background())

			table := newTable([]string{
				"ID",
				"NAME",
				"VERSION",
				"STATE",
				"DISPLAY NAME",
			})

			for _, process := range processes {
				table.addRow([]string{
					process.Id,
					process.Name,
					process.Version,
					process.State,
					process.DisplayName,
				})
			}

			c.Print(table.format())
			return nil
		},
		Annotations: map[string]string{bonitaRequired: ""},
	}

	return &c
}

func newBonitaResolveCmd(cli *Cli) *cobra.Command {
	var name string

	c := cobra.Command{
		Use:   "resolve",
		Short: "Resolve the ID of a process definition by name",
		RunE: func(c *cobra.Command, _ []string) error {
			id, err := cli.bonita.ResolveProcessDefinition(context.Background(), name)
			if err != nil {
				return err
			}

			c.Println(id)
			return nil
		},
		Annotations: map[string]string{bonitaRequired: ""},
	}

	c.Flags().StringVar(&name, "name", "", "Process name")

	c.MarkFlagRequired("name")

	return &c
}

func newBonitaStartCmd(cli *Cli) *cobra.Command {
	var (
		startDate dateValue
		endDate   dateValue

		fields bonita.ProjectFields
	)

	c := cobra.Command{
		Use:   "start",
		Short: "Start a process instance for a project, without persisting the project",
		RunE: func(c *cobra.Command, _ []string) error {
			fields.StartDate = startDate.Time()
			fields.EndDate = endDate.Time()

			caseId, err := cli.bonita.StartProcessInstance(context.Background(), fields)
			if err != nil {
				return err
			}

			c.Println(caseId)
			return nil
		},
		Annotations: map[string]string{bonitaRequired: ""},
	}

	c.Flags().StringVar(&fields.Name, "name", "", "Project name")
	c.Flags().Var(&startDate, "start-date", "Start date of the project")
	c.Flags().Var(&endDate, "end-date", "End date of the project")
	c.Flags().StringSliceVar(&fields.Resources, "resource", nil, "Name of a needed resource")

	c.MarkFlagRequired("name")
	c.MarkFlagRequired("start-date")
	c.MarkFlagRequired("end-date")

	return &c
}
