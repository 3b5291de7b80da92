package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
)

func TestExecute_CleansUpAfterFailedRun(t *testing.T) {
	tests := []struct {
		name    string
		runErr  error
		wantErr bool
	}{
		{"successful run", nil, false},
		{"failed run", errors.New("listen: address in use"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var closed, flushed bool
			cmd := &cobra.Command{
				Use: "test",
				PersistentPreRun: func(cmd *cobra.Command, args []string) {
					closeSources = func() error { closed = true; return nil }
					shutdownTelemetry = func(context.Context) error { flushed = true; return nil }
				},
				RunE: func(cmd *cobra.Command, args []string) error { return tt.runErr },
			}
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			cmd.SetArgs([]string{})

			err := execute(context.Background(), cmd)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if !closed {
				t.Error("Expected entry sources to be closed")
			}
			if !flushed {
				t.Error("Expected telemetry to be flushed")
			}
			if closeSources != nil || shutdownTelemetry != nil {
				t.Error("Expected cleanup hooks to be cleared")
			}
		})
	}
}
