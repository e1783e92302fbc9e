package policy

import "testing"

func testClassifier() *RiskClassifier {
	cfg := DefaultConfig()
	return NewRiskClassifier(cfg.OperationRisk, cfg.Thresholds, nil)
}

func TestClassify(t *testing.T) {
	c := testClassifier()

	cases := []struct {
		name      string
		operation string
		amount    float64
		want      RiskLevel
	}{
		{"read_no_amount", "query_employee", 0, RiskLow},
		{"unknown_operation", "no_such_operation", 0, RiskLow},
		{"financial_dominates", "calculate_pay", 75_000, RiskHigh},
		{"operation_dominates", "process_payroll", 500, RiskCritical},
		{"both_low", "view_payslip", 9_999, RiskLow},
		{"threshold_exclusive", "query_employee", 10_000, RiskLow},
		{"just_over_medium", "query_employee", 10_000.01, RiskMedium},
		{"critical_amount", "query_employee", 250_000, RiskCritical},
		{"medium_op_medium_amount", "calculate_pay", 20_000, RiskMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.operation, tc.amount)
			if got != tc.want {
				t.Fatalf("Classify(%q, %v) = %s, want %s", tc.operation, tc.amount, got, tc.want)
			}
		})
	}
}

func TestClassifyMonotonicInAmount(t *testing.T) {
	c := testClassifier()
	amounts := []float64{0, 5_000, 10_000, 10_001, 50_000, 50_001, 100_000, 100_001, 1_000_000}

	for _, op := range []string{"query_employee", "calculate_pay", "run_department_payroll", "process_payroll"} {
		prev := -1
		for _, amount := range amounts {
			got := c.Classify(op, amount)
			if got.Severity() < prev {
				t.Fatalf("Classify(%q, %v) = %s dropped below previous severity %d", op, amount, got, prev)
			}
			if got.Severity() < c.OperationRisk(op).Severity() {
				t.Fatalf("Classify(%q, %v) = %s is below operation risk %s", op, amount, got, c.OperationRisk(op))
			}
			prev = got.Severity()
		}
	}
}

func TestRiskLevelOrdering(t *testing.T) {
	order := []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Severity() <= order[i-1].Severity() {
			t.Fatalf("%s should be more severe than %s", order[i], order[i-1])
		}
	}
	if !RiskHigh.AtLeast(RiskHigh) {
		t.Fatal("AtLeast should be inclusive")
	}
	if RiskMedium.AtLeast(RiskHigh) {
		t.Fatal("medium must not satisfy a high threshold")
	}
	if RiskLevel("banana").Severity() >= RiskLow.Severity() {
		t.Fatal("unknown level must rank below low")
	}
}
