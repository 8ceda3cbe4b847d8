package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"frequense-harvester/lib/scrapers/frequense"
	"frequense-harvester/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	baseUrl  string
	username string
	password string
	days     int
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "harvester-cli",
	Short: "harvester-cli pulls leads, prospects and customers out of the Frequense portal.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseUrl, "base-url", frequense.DefaultBaseUrl, "portal base url")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "portal username")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "portal password")
	rootCmd.PersistentFlags().IntVarP(&days, "days", "d", 1, "look back this many days ending at yesterday")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", frequense.DefaultTimeout, "end-to-end harvest timeout")
	rootCmd.MarkPersistentFlagRequired("username")
	rootCmd.MarkPersistentFlagRequired("password")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

func mustLogin(ctx context.Context) *frequense.Client {
	client, err := frequense.NewClient(frequense.ClientOptions{
		BaseUrl: baseUrl,
		Timeout: timeout,
	})
	if err != nil {
		fatal(err)
	}
	err = client.Login(ctx, username, password)
	if err != nil {
		fatal(err)
	}
	return client
}

func window() frequense.Window {
	return frequense.NewWindow(timezone.Now(), days)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
