package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/srag/transform"
)

var streamFlags struct {
	cost bool
}

var streamCmd = &cobra.Command{
	Use:   "stream <question>",
	Short: "Answer a question, printing the response as it is generated",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStream,
}

func init() {
	streamCmd.Flags().BoolVar(&streamFlags.cost, "cost", false, "print token usage and cost")
}

func runStream(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	st := a.pipeline.Stream(transform.Query(strings.Join(args, " ")))
	defer st.Close()

	out := cmd.OutOrStdout()
	var printed string
	var last *transform.State
	for {
		s, ok, err := st.Next(ctx)
		if err != nil {
			return a.fail(ctx, err)
		}
		if !ok {
			break
		}
		last = s
		// States are shared, so only the new suffix of the response is printed.
		if rest, found := strings.CutPrefix(s.Response, printed); found && rest != "" {
			fmt.Fprint(out, rest)
			printed = s.Response
		}
	}
	fmt.Fprintln(out)
	if streamFlags.cost && last != nil {
		printCost(cmd, last)
	}
	return nil
}
