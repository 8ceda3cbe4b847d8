package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(customersCmd)
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Harvest customers who ordered inside the date window, with order history.",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustLogin(cmd.Context())

		customers, err := client.Customers(cmd.Context(), window())
		if err != nil {
			fatal(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Customer", "Email", "Phone", "Orders"})
		for _, customer := range customers {
			orders := ""
			for i, order := range customer.Orders {
				if i > 0 {
					orders += "\n"
				}
				orders += fmt.Sprintf("%s x %s (%s)", order.Qty, order.Description, order.Subtotal)
			}
			t.AppendRow(table.Row{customer.CustomerName, customer.Email, customer.Phone, orders})
		}
		t.Render()
	},
}
