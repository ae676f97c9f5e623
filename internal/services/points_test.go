package services

import (
	"testing"

	"github.com/bountydesk/bountydesk/internal/models"
)

func TestPointsForStatus(t *testing.T) {
	testCases := []struct {
		status   string
		expected int
	}{
		{models.StatusValid, 10},
		{models.StatusInvalid, -5},
		{models.StatusUnreviewed, 0},
		{models.StatusClosed, 0},
		{"", 0},
		{"bogus", 0},
	}

	for _, tc := range testCases {
		if got := PointsForStatus(tc.status); got != tc.expected {
			t.Errorf("PointsForStatus(%q) = %d, expected %d", tc.status, got, tc.expected)
		}
	}
}

func TestPointsForStatus_ReReviewDelta(t *testing.T) {
	// Moving an issue from valid to invalid must swing the reporter by the
	// incremental difference, not the face value of the new status.
	delta := PointsForStatus(models.StatusInvalid) - PointsForStatus(models.StatusValid)
	if delta != -15 {
		t.Errorf("valid->invalid delta = %d, expected -15", delta)
	}

	delta = PointsForStatus(models.StatusValid) - PointsForStatus(models.StatusInvalid)
	if delta != 15 {
		t.Errorf("invalid->valid delta = %d, expected 15", delta)
	}
}
