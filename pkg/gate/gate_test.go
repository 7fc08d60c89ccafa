package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zen-systems/promptchain/pkg/pipeline"
	"github.com/zen-systems/promptchain/pkg/schema"
)

func result(record schema.Record) *pipeline.Result {
	return pipeline.Succeed("extraction", record, nil)
}

func TestMinConfidenceBoundaryFails(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       bool
	}{
		{"above threshold passes", 0.61, true},
		{"exactly at threshold fails", 0.6, false},
		{"below threshold fails", 0.3, false},
	}

	pred := MinConfidence("confidence_score", 0.6)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, evidence := pred(result(schema.Record{"confidence_score": tt.confidence}))
			assert.Equal(t, tt.want, passed)
			assert.Contains(t, evidence, "confidence_score")
		})
	}
}

func TestFlagSet(t *testing.T) {
	pred := FlagSet("is_calendar_event")

	passed, _ := pred(result(schema.Record{"is_calendar_event": true}))
	assert.True(t, passed)

	passed, _ = pred(result(schema.Record{"is_calendar_event": false}))
	assert.False(t, passed)

	// Missing field reads as false.
	passed, _ = pred(result(schema.Record{}))
	assert.False(t, passed)
}

func TestAllRequiresEveryPredicate(t *testing.T) {
	pred := All(FlagSet("is_calendar_event"), MinConfidence("confidence_score", 0.6))

	passed, evidence := pred(result(schema.Record{"is_calendar_event": true, "confidence_score": 0.9}))
	assert.True(t, passed)
	assert.Contains(t, evidence, " AND ")

	passed, _ = pred(result(schema.Record{"is_calendar_event": true, "confidence_score": 0.6}))
	assert.False(t, passed)

	passed, _ = pred(result(schema.Record{"is_calendar_event": false, "confidence_score": 0.9}))
	assert.False(t, passed)
}

func TestCheckFailedStageNeverPasses(t *testing.T) {
	failed := pipeline.Fail("extraction", pipeline.ProviderError, "", "adapter mock: boom")

	decision := Check(failed, FlagSet("is_calendar_event"))
	assert.False(t, decision.Passed)
	assert.Contains(t, decision.Evidence, "provider_error")
}

func TestCheckCarriesEvidence(t *testing.T) {
	decision := Check(result(schema.Record{"confidence_score": 0.45}), MinConfidence("confidence_score", 0.6))
	assert.False(t, decision.Passed)
	assert.Contains(t, decision.Evidence, "0.45")
}
