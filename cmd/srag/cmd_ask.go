package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/srag/llm"
	"github.com/kbukum/srag/rag"
	"github.com/kbukum/srag/transform"
)

var askFlags struct {
	showState bool
	cost      bool
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	f := askCmd.Flags()
	f.BoolVar(&askFlags.showState, "state", false, "print the final pipeline state as JSON")
	f.BoolVar(&askFlags.cost, "cost", false, "print token usage and cost")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	s, err := a.pipeline.CallState(ctx, transform.Query(strings.Join(args, " ")))
	if err != nil {
		return a.fail(ctx, err)
	}

	out := cmd.OutOrStdout()
	if askFlags.showState {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s.Snapshot())
	}
	fmt.Fprintln(out, s.Response)
	if askFlags.cost {
		printCost(cmd, s)
	}
	return nil
}

func printCost(cmd *cobra.Command, s *transform.State) {
	var c llm.Cost
	if s.Cost != nil {
		c = *s.Cost
	}
	hit, _ := transform.Lookup[bool](s, rag.KeyCacheHit)
	fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d prompt, %d completion, cost %.6f (cached: %t)\n",
		c.InputTokens, c.OutputTokens, c.TotalCost, hit)
}
