package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(prospectsCmd)
}

var prospectsCmd = &cobra.Command{
	Use:   "prospects",
	Short: "Harvest prospects entered inside the date window.",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustLogin(cmd.Context())

		prospects, err := client.Prospects(cmd.Context(), window())
		if err != nil {
			fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"First Name", "Last Name", "Email", "Phone"})
		for _, prospect := range prospects {
			t.AppendRow(table.Row{prospect.FirstName, prospect.LastName, prospect.Email, prospect.Phone})
		}
		t.Render()
	},
}
