package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tbxark/eventagent/agent"
)

func newChatCommand() *cobra.Command {
	var showState bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Plan an event interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.engine.Start(ctx)
			if err != nil {
				return err
			}
			ctx = agent.WithSessionID(ctx, sess.ID)
			runner := adk.NewRunner(ctx, adk.RunnerConfig{
				Agent: agent.NewAgent("EventPlanner", "Collects the details needed to plan an event", a.engine),
			})

			reader := bufio.NewReader(os.Stdin)
			fmt.Println("Tell me about the event you're planning (Ctrl-D to quit):")
			for {
				fmt.Print("you: ")
				input, rErr := reader.ReadString('\n')
				if rErr != nil {
					fmt.Println()
					return nil
				}
				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}
				iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
				for {
					event, ok := iter.Next()
					if !ok {
						break
					}
					if event.Err != nil {
						return event.Err
					}
					msg, mErr := event.Output.MessageOutput.GetMessage()
					if mErr != nil {
						return mErr
					}
					fmt.Printf("\nassistant: %s\n", msg.Content)
					if out, ok := event.Output.CustomizedOutput.(*agent.Output); ok {
						if showState {
							printState(out)
						}
						if out.ReadyToGenerate {
							fmt.Println("======")
						}
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&showState, "state", false, "print the collected parameters after each turn")
	return cmd
}

func printState(out *agent.Output) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Parameter", "Value")
	for _, k := range out.Params.Keys() {
		_ = table.Append(string(k), out.Params[k].String())
	}
	_ = table.Render()
	if q := out.Question; q != nil {
		fmt.Printf("options: %s\n", strings.Join(q.Labels(), " | "))
	}
}
