package app

import "testing"

func TestEstimateTimelineSmallWorkload(t *testing.T) {
	result := EstimateTimeline(EstimationRequest{
		VMCount:        50,
		HostCount:      5,
		Infrastructure: InfraTraditional,
	})

	// 7 prep + 5 migration (50 VMs at 10/day) + 7 validation.
	if result.EstimatedDays != 19 {
		t.Fatalf("estimated days = %d, want 19", result.EstimatedDays)
	}
	if result.Confidence != ConfidenceHigh {
		t.Fatalf("confidence = %q, want high", result.Confidence)
	}
}

func TestEstimateTimelinePrepByInfrastructure(t *testing.T) {
	traditional := prepTime(EstimationRequest{VMCount: 100, Infrastructure: InfraTraditional})
	hci := prepTime(EstimationRequest{VMCount: 100, Infrastructure: InfraHCIS2D})
	azure := prepTime(EstimationRequest{VMCount: 100, Infrastructure: InfraAzureLocal})

	if !(traditional < hci && hci < azure) {
		t.Fatalf("prep ordering wrong: traditional=%d hci=%d azure=%d", traditional, hci, azure)
	}
}

func TestEstimateTimelineCompatibilityIssuesAddBuffer(t *testing.T) {
	clean := EstimateTimeline(EstimationRequest{VMCount: 200, Infrastructure: InfraTraditional})
	dirty := EstimateTimeline(EstimationRequest{VMCount: 200, Infrastructure: InfraTraditional, CompatibilityIssues: true})

	if dirty.EstimatedDays <= clean.EstimatedDays {
		t.Fatalf("compatibility issues should add time: clean=%d dirty=%d", clean.EstimatedDays, dirty.EstimatedDays)
	}
	if dirty.Confidence != ConfidenceLow {
		t.Fatalf("confidence = %q, want low", dirty.Confidence)
	}
}

func TestEstimateTimelineMinimumOneMigrationDay(t *testing.T) {
	result := EstimateTimeline(EstimationRequest{VMCount: 0, Infrastructure: InfraHCIS2D})
	for _, task := range result.Tasks {
		if task.Name == "VM Migration" && task.DurationDays < 1 {
			t.Fatalf("migration days = %d, want >= 1", task.DurationDays)
		}
	}
}

func TestEstimateTimelineCriticalPathMatchesFlags(t *testing.T) {
	result := EstimateTimeline(EstimationRequest{VMCount: 120, Infrastructure: InfraAzureLocal})

	flagged := 0
	for _, task := range result.Tasks {
		if task.CriticalPath {
			flagged++
		}
	}
	if len(result.CriticalPath) != flagged {
		t.Fatalf("critical path has %d entries, %d tasks flagged", len(result.CriticalPath), flagged)
	}
	if result.Confidence != ConfidenceMedium {
		t.Fatalf("confidence = %q, want medium for azure local", result.Confidence)
	}
}

func TestEstimateTimelineUnknownInfrastructureDefaults(t *testing.T) {
	result := EstimateTimeline(EstimationRequest{VMCount: 10, Infrastructure: "mainframe"})
	// Falls back to traditional prep: 7 + 1 + 7.
	if result.EstimatedDays != 15 {
		t.Fatalf("estimated days = %d, want 15", result.EstimatedDays)
	}
}
