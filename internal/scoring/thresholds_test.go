package scoring

import "testing"

// TestSufficient_PerUseCase verifies each use case applies its own bar.
func TestSufficient_PerUseCase(t *testing.T) {
	thresholds := DefaultThresholds()

	cases := []struct {
		score   float64
		useCase UseCase
		want    bool
	}{
		{0.6, UseBriefGeneration, true},
		{0.59, UseBriefGeneration, false},
		{0.5, UseAIAnalysis, true},
		{0.49, UseAIAnalysis, false},
		{0.8, UseContactMerge, true},
		{0.79, UseContactMerge, false},
		{0.3, UseDisplayOnly, true},
		{0.29, UseDisplayOnly, false},
	}

	for _, tc := range cases {
		if got := thresholds.Sufficient(tc.score, tc.useCase); got != tc.want {
			t.Errorf("Sufficient(%.2f, %s) = %v, want %v", tc.score, tc.useCase, got, tc.want)
		}
	}
}

// TestSufficient_UnknownUseCase verifies unknown use cases fall back to the
// strictest bar.
func TestSufficient_UnknownUseCase(t *testing.T) {
	thresholds := DefaultThresholds()
	if thresholds.Sufficient(0.7, UseCase("bulk_export")) {
		t.Error("unknown use case accepted a score below the strictest threshold")
	}
	if !thresholds.Sufficient(0.8, UseCase("bulk_export")) {
		t.Error("unknown use case rejected a score meeting the strictest threshold")
	}
}
