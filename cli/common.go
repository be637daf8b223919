package cli

import (
	"strconv"

	"github.com/gclaussn/go-planning/planning"
	"github.com/spf13/cobra"
)

func flagId(c *cobra.Command, id *int32, usage string) {
	c.Flags().Int32Var(id, "id", 0, usage)
	c.MarkFlagRequired("id")
}

func formatProjects(projects []planning.Project) string {
	table := newTable([]string{
		"ID",
		"NAME",
		"START DATE",
		"END DATE",
		"CASE ID",
		"CREATED AT",
	})
	table.limit(1, 40)

	for _, project := range projects {
		table.addRow([]string{
			strconv.Itoa(int(project.Id)),
			project.Name,
			project.StartDate.String(),
			project.EndDate.String(),
			project.CaseId,
			formatTime(project.CreatedAt),
		})
	}

	return table.format()
}

func formatResources(resources []planning.Resource) string {
	table := newTable([]string{
		"ID",
		"PROJECT ID",
		"NAME",
		"STATE",
		"CONTACT EMAIL",
	})
	table.limit(2, 40)

	for _, resource := range resources {
		table.addRow([]string{
			strconv.Itoa(int(resource.Id)),
			strconv.Itoa(int(resource.ProjectId)),
			resource.Name,
			resource.State.String(),
			resource.ContactEmail,
		})
	}

	return table.format()
}
