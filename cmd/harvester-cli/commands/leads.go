package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(leadsCmd)
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Harvest team leads entered inside the date window.",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustLogin(cmd.Context())

		leads, err := client.Leads(cmd.Context(), window())
		if err != nil {
			fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Name", "Email", "Phone"})
		for _, lead := range leads {
			t.AppendRow(table.Row{lead.Name, lead.Email, lead.Phone})
		}
		t.Render()
	},
}
