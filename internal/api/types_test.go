package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkload(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Workload
		wantErr  bool
	}{
		{name: "exact match", input: "flux", expected: WorkloadFlux},
		{name: "uppercase", input: "FLUX", expected: WorkloadFlux},
		{name: "surrounding whitespace", input: "  wan\n", expected: WorkloadWan},
		{name: "hyphenated workload", input: "ace-step", expected: WorkloadACEStep},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "sdxl", wantErr: true},
		{name: "underscore instead of hyphen", input: "ace_step", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := ParseWorkload(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				// The error names every valid workload to help the user.
				for _, known := range Workloads() {
					assert.Contains(t, err.Error(), string(known))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, w)
		})
	}
}

func TestWorkloadsAreParseable(t *testing.T) {
	for _, w := range Workloads() {
		parsed, err := ParseWorkload(string(w))
		require.NoError(t, err)
		assert.Equal(t, w, parsed)
	}
}

func TestGPUTierValid(t *testing.T) {
	for _, tier := range GPUTiers() {
		assert.True(t, tier.Valid(), "tier %s should be valid", tier)
	}

	assert.False(t, GPUTier("").Valid())
	assert.False(t, GPUTier("H100").Valid())
	assert.False(t, GPUTier("t4").Valid(), "tiers are case-sensitive")
}
