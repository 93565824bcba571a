package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func newEnhanceFlagCmd(t *testing.T, noEnhance bool) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{}
	cmd.Flags().Bool("no-enhance", false, "")
	if noEnhance {
		if err := cmd.Flags().Set("no-enhance", "true"); err != nil {
			t.Fatalf("setting flag: %v", err)
		}
	}
	return cmd
}

func TestEnhanceRequested(t *testing.T) {
	cases := []struct {
		name      string
		cfg       *EnhanceConfig
		noEnhance bool
		want      bool
	}{
		{"enabled", &EnhanceConfig{Enabled: true}, false, true},
		{"disabled in config", &EnhanceConfig{Enabled: false}, false, false},
		{"no config", nil, false, false},
		{"flag overrides enabled config", &EnhanceConfig{Enabled: true}, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := enhanceRequested(newEnhanceFlagCmd(t, tc.noEnhance), tc.cfg); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
