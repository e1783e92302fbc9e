package policy

import "log/slog"

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity returns the position of the level in the total order
// low < medium < high < critical. Unknown levels rank below low.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Severity() >= other.Severity()
}

func maxRisk(a, b RiskLevel) RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// FinancialThresholds are the ascending dollar amounts above which an
// operation escalates to the corresponding level. Comparison is exclusive:
// an amount equal to a threshold does not escalate.
type FinancialThresholds struct {
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

type RiskClassifier struct {
	operationRisk map[string]RiskLevel
	thresholds    FinancialThresholds

	log *slog.Logger
}

func NewRiskClassifier(operationRisk map[string]RiskLevel, thresholds FinancialThresholds, log *slog.Logger) *RiskClassifier {
	if log == nil {
		log = slog.Default()
	}
	m := make(map[string]RiskLevel, len(operationRisk))
	for op, lvl := range operationRisk {
		m[op] = lvl
	}
	return &RiskClassifier{operationRisk: m, thresholds: thresholds, log: log}
}

// Classify returns the more severe of the operation-based and amount-based
// risk signals. One signal never lowers the other.
func (c *RiskClassifier) Classify(operation string, amount float64) RiskLevel {
	opRisk := c.OperationRisk(operation)
	finRisk := c.financialRisk(amount)
	final := maxRisk(opRisk, finRisk)

	c.log.Info("risk_classified",
		"operation", operation,
		"amount", amount,
		"operation_risk", string(opRisk),
		"financial_risk", string(finRisk),
		"risk_level", string(final),
	)
	return final
}

// OperationRisk returns the static risk for an operation type.
// Unknown operations default to low.
func (c *RiskClassifier) OperationRisk(operation string) RiskLevel {
	if lvl, ok := c.operationRisk[operation]; ok {
		return lvl
	}
	return RiskLow
}

func (c *RiskClassifier) financialRisk(amount float64) RiskLevel {
	switch {
	case amount > c.thresholds.Critical:
		return RiskCritical
	case amount > c.thresholds.High:
		return RiskHigh
	case amount > c.thresholds.Medium:
		return RiskMedium
	default:
		return RiskLow
	}
}
