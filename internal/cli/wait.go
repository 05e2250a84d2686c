package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "wait",
	Short: "Wait until the SPARQL endpoint answers queries",
	Long: `Poll the SPARQL endpoint with a trivial ASK query until it answers.
There is no attempt limit; interrupt the command to give up.`,
	RunE: runWait,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	client, err := connect(cfg, out)
	if err != nil {
		return err
	}

	if err := waitForEndpoint(commandContext(cmd), client, cfg); err != nil {
		return err
	}

	fmt.Fprintln(out, "SPARQL endpoint is ready.")

	return nil
}
