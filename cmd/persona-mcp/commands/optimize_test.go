package commands

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestOverridesFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addOptimizerFlags(cmd)

	if err := cmd.ParseFlags([]string{"--sleep", "8", "--growth", "family=1.5,spiritual=2"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	in, err := overridesFromFlags(cmd)
	if err != nil {
		t.Fatalf("overridesFromFlags failed: %v", err)
	}
	if in.TargetSleepPerDay == nil || *in.TargetSleepPerDay != 8 {
		t.Errorf("Expected sleep override 8, got %v", in.TargetSleepPerDay)
	}
	if in.HasReadiness() || in.MaxWorkHoursPerMonth != nil {
		t.Error("Expected unset flags to stay nil")
	}
	if in.GrowthMultipliers["family"] != 1.5 || in.GrowthMultipliers["spiritual"] != 2 {
		t.Errorf("Expected growth family=1.5 spiritual=2, got %v", in.GrowthMultipliers)
	}
}

func TestOverridesFromFlags_BadGrowth(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addOptimizerFlags(cmd)

	if err := cmd.ParseFlags([]string{"--growth", "family=lots"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if _, err := overridesFromFlags(cmd); err == nil {
		t.Error("Expected an error for a non-numeric multiplier")
	}
}
