package pool

import (
	"testing"

	"github.com/mtlprog/poolshare/internal/domain"
)

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		"a": {Name: "Alice", Capital: dec("1000"), InvestorMetrics: domain.InvestorMetrics{Commission: dec("100")}},
		"b": {Name: "Bob", Capital: dec("1000"), InvestorMetrics: domain.InvestorMetrics{Commission: dec("50")}},
		"c": {Name: "Carol", Capital: dec("1000"), InvestorMetrics: domain.InvestorMetrics{Commission: dec("0")}},
	}
}

func TestValidateReinvestmentsAccepts(t *testing.T) {
	result := ValidateReinvestments([]domain.ReinvestmentRequest{
		{InvestorID: "a", Amount: ptr("100")},
		{InvestorID: "b", Amount: ptr("50")},
	}, testSnapshot())

	if !result.Valid {
		t.Fatalf("valid = false, errors = %+v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %d, want 0", len(result.Errors))
	}
	if len(result.Validated) != 2 {
		t.Fatalf("validated = %d, want 2", len(result.Validated))
	}
	if result.Validated[0].Name != "Alice" {
		t.Errorf("name = %q, want Alice", result.Validated[0].Name)
	}
}

func TestValidateReinvestmentsRejectsOverClaim(t *testing.T) {
	result := ValidateReinvestments([]domain.ReinvestmentRequest{
		{InvestorID: "a", Amount: ptr("150")},
	}, testSnapshot())

	if result.Valid {
		t.Fatal("valid = true, want false")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	e := result.Errors[0]
	if e.InvestorID != "a" {
		t.Errorf("investorId = %q, want a", e.InvestorID)
	}
	if e.Requested == nil || e.Max == nil {
		t.Fatal("requested and max should be set")
	}
	assertDecimal(t, "requested", *e.Requested, "150")
	assertDecimal(t, "max", *e.Max, "100")
	if len(result.Validated) != 0 {
		t.Errorf("validated = %d, want 0", len(result.Validated))
	}
}

func TestValidateReinvestmentsTolerance(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		valid  bool
		want   string
	}{
		{"half a cent over is clamped", "100.005", true, "100"},
		{"exactly a cent over is clamped", "100.01", true, "100"},
		{"just past tolerance rejected", "100.0101", false, ""},
		{"under available kept", "99.994", true, "99.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateReinvestments([]domain.ReinvestmentRequest{
				{InvestorID: "a", Amount: ptr(tt.amount)},
			}, testSnapshot())

			if result.Valid != tt.valid {
				t.Fatalf("valid = %v, want %v", result.Valid, tt.valid)
			}
			if tt.valid {
				assertDecimal(t, "amount", result.Validated[0].Amount, tt.want)
			}
		})
	}
}

func TestValidateReinvestmentsUnknownInvestor(t *testing.T) {
	result := ValidateReinvestments([]domain.ReinvestmentRequest{
		{InvestorID: "unknown", Amount: ptr("50")},
	}, testSnapshot())

	if result.Valid {
		t.Fatal("valid = true, want false")
	}
	if result.Errors[0].Message != InvestorNotFoundMessage {
		t.Errorf("error = %q, want %q", result.Errors[0].Message, InvestorNotFoundMessage)
	}
	if len(result.Validated) != 0 {
		t.Errorf("validated = %d, want 0", len(result.Validated))
	}
}

func TestValidateReinvestmentsDefaultsToMaxCommission(t *testing.T) {
	result := ValidateReinvestments([]domain.ReinvestmentRequest{{InvestorID: "a"}}, testSnapshot())

	if !result.Valid {
		t.Fatal("valid = false, want true")
	}
	assertDecimal(t, "amount", result.Validated[0].Amount, "100")
}

func TestValidateReinvestmentsDropsNonPositive(t *testing.T) {
	result := ValidateReinvestments([]domain.ReinvestmentRequest{
		{InvestorID: "a", Amount: ptr("0")},
		{InvestorID: "b", Amount: ptr("-5")},
		{InvestorID: "c"},
	}, testSnapshot())

	if !result.Valid {
		t.Fatalf("valid = false, errors = %+v", result.Errors)
	}
	if len(result.Validated) != 0 {
		t.Errorf("validated = %d, want 0", len(result.Validated))
	}
}

func TestValidateReinvestmentsActions(t *testing.T) {
	result := ValidateReinvestments([]domain.ReinvestmentRequest{
		{InvestorID: "a", Amount: ptr("50")},
		{InvestorID: "b", Amount: ptr("50"), Action: domain.ActionWithdraw},
	}, testSnapshot())

	if result.Validated[0].Action != domain.ActionReinvest {
		t.Errorf("default action = %q, want reinvest", result.Validated[0].Action)
	}
	if result.Validated[1].Action != domain.ActionWithdraw {
		t.Errorf("action = %q, want withdraw", result.Validated[1].Action)
	}
}

func TestValidateReinvestmentsOneFailureInvalidatesBatch(t *testing.T) {
	result := ValidateReinvestments([]domain.ReinvestmentRequest{
		{InvestorID: "a", Amount: ptr("100")},
		{InvestorID: "b", Amount: ptr("51")},
	}, testSnapshot())

	if result.Valid {
		t.Error("valid = true, want false")
	}
	if len(result.Validated) != 1 || len(result.Errors) != 1 {
		t.Errorf("validated = %d errors = %d, want 1 and 1", len(result.Validated), len(result.Errors))
	}
}

func TestValidateReinvestmentsSameSnapshotForEveryRequest(t *testing.T) {
	snap := testSnapshot()
	result := ValidateReinvestments([]domain.ReinvestmentRequest{
		{InvestorID: "a", Amount: ptr("60")},
		{InvestorID: "a", Amount: ptr("60")},
	}, snap)

	// Both pass against the snapshot; rejecting the double claim is the caller's job.
	if !result.Valid || len(result.Validated) != 2 {
		t.Errorf("valid = %v validated = %d, want true and 2", result.Valid, len(result.Validated))
	}
	assertDecimal(t, "snapshot untouched", snap["a"].Commission, "100")
}
