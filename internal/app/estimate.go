package app

import (
	"math"
	"slices"
)

// InfrastructureType classifies the target platform for an estimation run.
type InfrastructureType string

// InfrastructureType values.
const (
	InfraTraditional InfrastructureType = "traditional"
	InfraHCIS2D      InfrastructureType = "hci_s2d"
	InfraAzureLocal  InfrastructureType = "azure_local"
)

var validInfrastructureTypes = []InfrastructureType{
	InfraTraditional,
	InfraHCIS2D,
	InfraAzureLocal,
}

// Valid reports whether the infrastructure type is known.
func (t InfrastructureType) Valid() bool {
	return slices.Contains(validInfrastructureTypes, t)
}

// Confidence grades how reliable an estimate is.
type Confidence string

// Confidence values.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// EstimationRequest describes the workload being sized.
type EstimationRequest struct {
	VMCount             int
	HostCount           int
	Infrastructure      InfrastructureType
	CompatibilityIssues bool
}

// TaskEstimate is one entry in the breakdown of an estimated migration.
type TaskEstimate struct {
	Name         string
	DurationDays int
	Dependencies []string
	CriticalPath bool
}

// EstimationResult is the full output of one estimation run.
type EstimationResult struct {
	EstimatedDays int
	Tasks         []TaskEstimate
	CriticalPath  []string
	Confidence    Confidence
}

// EstimateTimeline sizes a migration from workload counts and platform
// complexity: preparation scales with infrastructure type, migration with VM
// count and per-platform throughput, validation with workload size. The task
// breakdown carries fixed critical-path flags; this is not a critical-path
// computation over the user's own activity graph.
func EstimateTimeline(req EstimationRequest) EstimationResult {
	if !req.Infrastructure.Valid() {
		req.Infrastructure = InfraTraditional
	}
	if req.VMCount < 0 {
		req.VMCount = 0
	}

	prepDays := prepTime(req)
	migrationDays := migrationTime(req)
	validationDays := validationTime(req)

	tasks := taskBreakdown(prepDays, migrationDays, validationDays)
	var criticalPath []string
	for _, task := range tasks {
		if task.CriticalPath {
			criticalPath = append(criticalPath, task.Name)
		}
	}

	return EstimationResult{
		EstimatedDays: prepDays + migrationDays + validationDays,
		Tasks:         tasks,
		CriticalPath:  criticalPath,
		Confidence:    estimateConfidence(req),
	}
}

// prepTime returns infrastructure preparation days. Traditional setups need
// network/storage/compute setup only; HCI S2D adds storage-pool
// configuration; Azure Local adds Arc registration and cloud integration.
func prepTime(req EstimationRequest) int {
	var base int
	switch req.Infrastructure {
	case InfraHCIS2D:
		base = 10
	case InfraAzureLocal:
		base = 14
	default:
		base = 7
	}
	if req.CompatibilityIssues {
		base += 3
	}
	return base
}

// migrationTime returns VM migration days from per-platform throughput
// (10 VMs/day baseline, faster on S2D storage), with a 25% buffer for
// compatibility remediation and a one-day floor.
func migrationTime(req EstimationRequest) int {
	rate := 10.0
	switch req.Infrastructure {
	case InfraHCIS2D:
		rate *= 1.5
	case InfraAzureLocal:
		rate *= 1.3
	}

	days := int(math.Ceil(float64(req.VMCount) / rate))
	if req.CompatibilityIssues {
		days += days / 4
	}
	if days < 1 {
		days = 1
	}
	return days
}

// validationTime returns testing/validation days, scaled up for larger
// workloads.
func validationTime(req EstimationRequest) int {
	switch {
	case req.VMCount > 200:
		return 10
	case req.VMCount > 100:
		return 9
	default:
		return 7
	}
}

// taskBreakdown expands the three component durations into the standard
// migration task sequence with its dependency edges.
func taskBreakdown(prepDays, migrationDays, validationDays int) []TaskEstimate {
	return []TaskEstimate{
		{Name: "Infrastructure Preparation", DurationDays: prepDays, CriticalPath: true},
		{Name: "Hardware Deployment", DurationDays: 5, Dependencies: []string{"Infrastructure Preparation"}, CriticalPath: true},
		{Name: "Network Configuration", DurationDays: 3, Dependencies: []string{"Hardware Deployment"}},
		{Name: "Storage Configuration", DurationDays: 3, Dependencies: []string{"Hardware Deployment"}},
		{Name: "Cluster Configuration", DurationDays: 3, Dependencies: []string{"Network Configuration", "Storage Configuration"}, CriticalPath: true},
		{Name: "Hyper-V Configuration", DurationDays: 2, Dependencies: []string{"Cluster Configuration"}, CriticalPath: true},
		{Name: "VM Migration", DurationDays: migrationDays, Dependencies: []string{"Hyper-V Configuration"}, CriticalPath: true},
		{Name: "Application Testing", DurationDays: validationDays, Dependencies: []string{"VM Migration"}, CriticalPath: true},
		{Name: "Performance Validation", DurationDays: 2, Dependencies: []string{"VM Migration"}},
		{Name: "Documentation & Handoff", DurationDays: 2, Dependencies: []string{"Application Testing"}, CriticalPath: true},
	}
}

// estimateConfidence grades the estimate: compatibility issues add the most
// uncertainty, then very large workloads, then newer platforms with less
// historical data.
func estimateConfidence(req EstimationRequest) Confidence {
	switch {
	case req.CompatibilityIssues:
		return ConfidenceLow
	case req.VMCount > 500:
		return ConfidenceMedium
	case req.Infrastructure == InfraAzureLocal:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}
