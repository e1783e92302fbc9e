package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/finchly/payguard/approval"
	"github.com/finchly/payguard/policy"
)

func newTestServer(t *testing.T) (*httptest.Server, *approval.Workflow) {
	t.Helper()
	store, err := approval.NewSQLiteStore(filepath.Join(t.TempDir(), "approvals.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	matrix := policy.NewPermissionMatrix(policy.DefaultConfig().Permissions)
	wf := approval.NewWorkflow(store, matrix, nil, nil, nil)

	ts := httptest.NewServer(NewServer(wf, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, wf
}

func requestApproval(t *testing.T, wf *approval.Workflow, risk policy.RiskLevel) approval.Approval {
	t.Helper()
	rec, err := wf.Request(context.Background(), approval.Approval{
		ExecutionID: "exec-1",
		Type:        approval.TypeFinancial,
		RiskLevel:   risk,
		Payload:     map[string]any{"tool": "calculate_department_payroll", "amount": 75000.0},
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return rec
}

func postDecision(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestListPending(t *testing.T) {
	ts, wf := newTestServer(t)
	requestApproval(t, wf, policy.RiskHigh)
	requestApproval(t, wf, policy.RiskCritical)

	resp, err := http.Get(ts.URL + "/approvals")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Approvals []ApprovalView `json:"approvals"`
		Count     int            `json:"count"`
	}
	decodeBody(t, resp, &body)
	if body.Count != 2 || len(body.Approvals) != 2 {
		t.Fatalf("body = %+v", body)
	}
	if body.Approvals[0].Status != "pending" {
		t.Fatalf("status = %q", body.Approvals[0].Status)
	}
}

func TestGetApproval(t *testing.T) {
	ts, wf := newTestServer(t)
	rec := requestApproval(t, wf, policy.RiskHigh)

	resp, err := http.Get(ts.URL + "/approvals/" + rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var view ApprovalView
	decodeBody(t, resp, &view)
	if view.ID != rec.ID || view.RiskLevel != "high" {
		t.Fatalf("view = %+v", view)
	}
	if view.CreatedAt == "" || view.DecidedAt != "" {
		t.Fatalf("timestamps = %q / %q", view.CreatedAt, view.DecidedAt)
	}
}

func TestGetApprovalNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/approvals/apr_missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestApproveEndpoint(t *testing.T) {
	ts, wf := newTestServer(t)
	rec := requestApproval(t, wf, policy.RiskHigh)

	resp := postDecision(t, ts.URL+"/approvals/"+rec.ID+"/approve", decisionRequest{
		ApproverID:   "mgr-7",
		ApproverRole: "manager",
		Reason:       "verified against the run sheet",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var sum approval.DecisionSummary
	decodeBody(t, resp, &sum)
	if sum.Status != approval.StatusApproved || sum.DecidedBy != "mgr-7" {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Payload["tool"] != "calculate_department_payroll" {
		t.Fatalf("payload = %v", sum.Payload)
	}
}

func TestRejectEndpoint(t *testing.T) {
	ts, wf := newTestServer(t)
	rec := requestApproval(t, wf, policy.RiskHigh)

	resp := postDecision(t, ts.URL+"/approvals/"+rec.ID+"/reject", decisionRequest{
		ApproverID:   "mgr-7",
		ApproverRole: "manager",
		Reason:       "department budget frozen",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	got, err := wf.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != approval.StatusRejected {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestDecisionErrorMapping(t *testing.T) {
	ts, wf := newTestServer(t)
	decided := requestApproval(t, wf, policy.RiskHigh)
	if _, err := wf.Decide(context.Background(), decided.ID, approval.StatusApproved,
		approval.Actor{ID: "adm-1", Role: "admin"}, "fine"); err != nil {
		t.Fatalf("decide: %v", err)
	}
	critical := requestApproval(t, wf, policy.RiskCritical)

	cases := []struct {
		name string
		url  string
		body decisionRequest
		want int
	}{
		{
			"unknown_id", "/approvals/apr_missing/approve",
			decisionRequest{ApproverID: "adm-1", ApproverRole: "admin", Reason: "ok"},
			http.StatusNotFound,
		},
		{
			"already_decided", "/approvals/" + decided.ID + "/reject",
			decisionRequest{ApproverID: "adm-1", ApproverRole: "admin", Reason: "changed my mind"},
			http.StatusConflict,
		},
		{
			"missing_reason", "/approvals/" + critical.ID + "/approve",
			decisionRequest{ApproverID: "adm-1", ApproverRole: "admin"},
			http.StatusBadRequest,
		},
		{
			"missing_approver", "/approvals/" + critical.ID + "/approve",
			decisionRequest{Reason: "ok"},
			http.StatusBadRequest,
		},
		{
			"forbidden_role", "/approvals/" + critical.ID + "/approve",
			decisionRequest{ApproverID: "emp-1", ApproverRole: "employee", Reason: "please"},
			http.StatusForbidden,
		},
		{
			"critical_needs_admin", "/approvals/" + critical.ID + "/approve",
			decisionRequest{ApproverID: "mgr-1", ApproverRole: "manager", Reason: "looks fine"},
			http.StatusForbidden,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postDecision(t, ts.URL+tc.url, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}

	// None of the failed attempts may have consumed the pending approval.
	got, err := wf.Get(context.Background(), critical.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != approval.StatusPending {
		t.Fatalf("status = %q, want pending", got.Status)
	}
}
