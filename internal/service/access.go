package service

import (
	"context"

	"github.com/noah-isme/paper-track-api/internal/models"
)

// canReadPaper reports whether the actor may see a paper and its documents:
// staff always, the owning student, the supervising teacher, or a member of
// the assigned committee.
func canReadPaper(ctx context.Context, committees committeeChecker, actor Actor, paper *models.Paper) (bool, error) {
	if actor.Role.IsPrivileged() {
		return true, nil
	}
	switch actor.Role {
	case models.RoleStudent:
		return actor.ID == paper.StudentID, nil
	case models.RoleTeacher:
		if actor.ID == paper.TeacherID {
			return true, nil
		}
		if paper.CommitteeID != nil && committees != nil {
			return committees.IsMember(ctx, *paper.CommitteeID, actor.ID)
		}
	}
	return false, nil
}
