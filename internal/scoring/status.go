package scoring

import (
	"github.com/Masterminds/semver/v3"

	"github.com/opsledger/catalog/internal/models"
)

// CascadeRequired reports whether a component update must trigger a
// rescore of dependent projects: any status change does, and so does an
// active-version change when the final status is Active. Unrelated field
// edits never cascade.
func CascadeRequired(original, updated models.ComponentSnapshot) bool {
	if updated.Status != original.Status {
		return true
	}
	if updated.Status == models.StatusActive && !equalPtr(original.ActiveVersion, updated.ActiveVersion) {
		return true
	}
	return false
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeriveStatus computes the per-project status of a component from its
// active-version range and the version the project records. A component
// without an active version cannot be scored; an unparseable recorded
// version is likewise Unscored rather than penalized.
func DeriveStatus(activeVersion *string, version string) models.ProjectComponentStatus {
	if activeVersion == nil || *activeVersion == "" {
		return models.ScoreUnscored
	}
	rng, err := semver.NewConstraint(*activeVersion)
	if err != nil {
		return models.ScoreUnscored
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return models.ScoreUnscored
	}
	if rng.Check(v) {
		return models.ScoreUpToDate
	}
	return models.ScoreOutdated
}

// ScoreValue maps a derived status to the numeric score recorded with
// it. Only an up-to-date version of an Active component earns points.
func ScoreValue(componentStatus models.ComponentStatus, status models.ProjectComponentStatus) int {
	if componentStatus == models.StatusActive && status == models.ScoreUpToDate {
		return 100
	}
	return 0
}
