package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/finchly/payguard/approval"
	"github.com/finchly/payguard/internal/clifmt"
)

func newApprovalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Inspect and decide pending approvals",
	}
	cmd.AddCommand(newApprovalsListCmd())
	cmd.AddCommand(newApprovalsShowCmd())
	cmd.AddCommand(newApprovalsDecideCmd("approve", approval.StatusApproved))
	cmd.AddCommand(newApprovalsDecideCmd("reject", approval.StatusRejected))
	return cmd
}

func newApprovalsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending approvals, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, cleanup, err := buildWorkflow(log, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			pending, err := wf.ListPending(cmd.Context())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Println(clifmt.Dim("no pending approvals"))
				return nil
			}

			fmt.Println(clifmt.Headerf("%-30s %-10s %-12s %-20s %s", "ID", "RISK", "TYPE", "CREATED", "EXECUTION"))
			for _, rec := range pending {
				fmt.Printf("%-30s %-10s %-12s %-20s %s\n",
					rec.ID,
					string(rec.RiskLevel),
					rec.Type,
					rec.CreatedAt.UTC().Format(time.RFC3339),
					rec.ExecutionID,
				)
			}
			return nil
		},
	}
}

func newApprovalsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <approval-id>",
		Short: "Show one approval in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, cleanup, err := buildWorkflow(log, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := wf.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printApproval(rec)
			return nil
		},
	}
}

func newApprovalsDecideCmd(use string, decision approval.Status) *cobra.Command {
	var (
		approverID   string
		approverRole string
		reason       string
	)
	cmd := &cobra.Command{
		Use:   use + " <approval-id>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a pending approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, cleanup, err := buildWorkflow(log, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			sum, err := decide(cmd.Context(), wf, args[0], decision, approverID, approverRole, reason)
			if err != nil {
				return err
			}
			if sum.Status == approval.StatusApproved {
				fmt.Println(clifmt.Success(fmt.Sprintf("approved %s", sum.ApprovalID)))
			} else {
				fmt.Println(clifmt.Warn(fmt.Sprintf("rejected %s", sum.ApprovalID)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&approverID, "as", "", "approver id")
	cmd.Flags().StringVar(&approverRole, "role", "", "approver role")
	cmd.Flags().StringVar(&reason, "reason", "", "decision reason (required)")
	_ = cmd.MarkFlagRequired("as")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func decide(ctx context.Context, wf *approval.Workflow, id string, decision approval.Status, approverID, approverRole, reason string) (approval.DecisionSummary, error) {
	return wf.Decide(ctx, id, decision, approval.Actor{ID: approverID, Role: approverRole}, reason)
}

func printApproval(rec approval.Approval) {
	fmt.Printf("%s %s\n", clifmt.Key("id:"), rec.ID)
	fmt.Printf("%s %s\n", clifmt.Key("status:"), string(rec.Status))
	fmt.Printf("%s %s\n", clifmt.Key("type:"), rec.Type)
	fmt.Printf("%s %s\n", clifmt.Key("risk:"), clifmt.Risk(string(rec.RiskLevel)))
	fmt.Printf("%s %s\n", clifmt.Key("execution:"), rec.ExecutionID)
	fmt.Printf("%s %s\n", clifmt.Key("requested_by:"), rec.RequestedBy)
	fmt.Printf("%s %s\n", clifmt.Key("created_at:"), rec.CreatedAt.UTC().Format(time.RFC3339))
	if rec.DecidedAt != nil {
		fmt.Printf("%s %s by %s\n", clifmt.Key("decided_at:"), rec.DecidedAt.UTC().Format(time.RFC3339), rec.DecidedBy)
		fmt.Printf("%s %s\n", clifmt.Key("reason:"), rec.DecisionReason)
	}
	if len(rec.Payload) > 0 {
		fmt.Println(clifmt.Key("payload:"))
		for k, v := range rec.Payload {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}
}
