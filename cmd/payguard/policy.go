package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finchly/payguard/internal/clifmt"
	"github.com/finchly/payguard/policy"
)

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the effective governance tables",
	}
	cmd.AddCommand(newPolicyRiskCmd())
	cmd.AddCommand(newPolicyToolsCmd())
	return cmd
}

// payguard policy risk run_department_payroll 75000
func newPolicyRiskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "risk <operation> [amount]",
		Short: "Classify an operation and amount against the risk tables",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var amount float64
			if len(args) == 2 {
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", args[1], err)
				}
				amount = v
			}
			level := classifierFromViper(log).Classify(args[0], amount)
			fmt.Println(clifmt.Risk(string(level)))
			return nil
		},
	}
}

// payguard policy tools payroll
func newPolicyToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools <agent-role>",
		Short: "Show the tool allow-list for an agent role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := policyFromViper()
			tools := policy.NewToolAccessPolicy(cfg.ToolAllowlist, log).AllowedTools(args[0])
			if len(tools) == 0 {
				fmt.Println(clifmt.Dim("no tools allowed for role " + args[0]))
				return nil
			}
			fmt.Println(strings.Join(tools, "\n"))
			return nil
		},
	}
}
