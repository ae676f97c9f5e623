package services

import "github.com/bountydesk/bountydesk/internal/models"

// Fixed scoring policy. A valid report earns points, an invalid one costs
// points, anything not yet reviewed (or closed upstream) contributes nothing.
var statusPoints = map[string]int{
	models.StatusValid:   10,
	models.StatusInvalid: -5,
}

// PointsForStatus returns the score contribution of an issue in the given status.
func PointsForStatus(status string) int {
	return statusPoints[status]
}
