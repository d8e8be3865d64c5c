package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wardenhq/warden/internal/tool"

	"github.com/spf13/cobra"
)

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "List and execute agent tools",
}

var toolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available tools and their schemas",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := buildRegistry()
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(registry.Schemas())
		}

		for _, schema := range registry.Schemas() {
			fmt.Printf("%-15s %s\n", schema.Name, schema.Description)
		}
		return nil
	},
}

var toolExecCmd = &cobra.Command{
	Use:   "exec <name> [arguments-json]",
	Short: "Execute one tool call with JSON arguments",
	Long:  `Execute a single tool call through the full pipeline, exactly as an agent call would run: filters, directory scoping, protected-file checks, audit, and output redaction all apply.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		arguments := json.RawMessage(`{}`)
		if len(args) == 2 {
			arguments = json.RawMessage(args[1])
		}

		registry, err := buildRegistry()
		if err != nil {
			return err
		}
		runner := tool.NewRunner(registry)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := runner.Run(ctx, "", name, arguments)
		if err != nil {
			return err
		}

		fmt.Println(result.Output)
		return nil
	},
}

func buildRegistry() (*tool.Registry, error) {
	tools, err := tool.NewDefaultTools(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("build tools: %w", err)
	}
	return tool.NewRegistry(tools...), nil
}

func init() {
	toolListCmd.Flags().Bool("json", false, "emit tool schemas as JSON")
	toolCmd.AddCommand(toolListCmd)
	toolCmd.AddCommand(toolExecCmd)
	rootCmd.AddCommand(toolCmd)
}
