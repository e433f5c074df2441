package scoring

import (
	"testing"

	"github.com/opsledger/catalog/internal/models"
)

func strPtr(s string) *string { return &s }

func snapshot(status models.ComponentStatus, activeVersion *string) models.ComponentSnapshot {
	return models.ComponentSnapshot{
		PackageURL:    "pkg:generic/foo",
		Name:          "foo",
		Status:        status,
		ActiveVersion: activeVersion,
	}
}

func TestCascadeRequired(t *testing.T) {
	tests := []struct {
		name     string
		original models.ComponentSnapshot
		updated  models.ComponentSnapshot
		expected bool
	}{
		{
			name:     "status change triggers",
			original: snapshot(models.StatusActive, strPtr(">=1.0")),
			updated:  snapshot(models.StatusDeprecated, strPtr(">=1.0")),
			expected: true,
		},
		{
			name:     "active version change on active component triggers",
			original: snapshot(models.StatusActive, strPtr(">=2.0")),
			updated:  snapshot(models.StatusActive, strPtr(">=3.0")),
			expected: true,
		},
		{
			name:     "active version set from nil triggers",
			original: snapshot(models.StatusActive, nil),
			updated:  snapshot(models.StatusActive, strPtr(">=1.0")),
			expected: true,
		},
		{
			name:     "active version change on deprecated component does not trigger",
			original: snapshot(models.StatusDeprecated, strPtr(">=2.0")),
			updated:  snapshot(models.StatusDeprecated, strPtr(">=3.0")),
			expected: false,
		},
		{
			name:     "unrelated edit does not trigger",
			original: snapshot(models.StatusActive, strPtr(">=1.0")),
			updated:  snapshot(models.StatusActive, strPtr(">=1.0")),
			expected: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CascadeRequired(tc.original, tc.updated); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name          string
		activeVersion *string
		version       string
		expected      models.ProjectComponentStatus
	}{
		{"no active version", nil, "1.2.3", models.ScoreUnscored},
		{"empty active version", strPtr(""), "1.2.3", models.ScoreUnscored},
		{"unparseable range", strPtr("not a range"), "1.2.3", models.ScoreUnscored},
		{"unparseable version", strPtr(">=1.0"), "latest", models.ScoreUnscored},
		{"satisfying version", strPtr(">=3.0"), "3.1.0", models.ScoreUpToDate},
		{"version below range", strPtr(">=3.0"), "2.9.0", models.ScoreOutdated},
		{"caret range match", strPtr("^2.0.0"), "2.4.1", models.ScoreUpToDate},
		{"caret range major bump", strPtr("^2.0.0"), "3.0.0", models.ScoreOutdated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.activeVersion, tc.version); got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestScoreValue(t *testing.T) {
	if got := ScoreValue(models.StatusActive, models.ScoreUpToDate); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	for _, status := range []models.ProjectComponentStatus{models.ScoreOutdated, models.ScoreUnscored} {
		if got := ScoreValue(models.StatusActive, status); got != 0 {
			t.Fatalf("expected 0 for %s, got %d", status, got)
		}
	}
	if got := ScoreValue(models.StatusDeprecated, models.ScoreUpToDate); got != 0 {
		t.Fatalf("deprecated components never score, got %d", got)
	}
}
