package memberships

import (
	"github.com/labstock/labstock-backend/pkg/db/models"
)

type labMemberRow struct {
	models.LabMembership
	Email    string `gorm:"column:email"`
	FullName string `gorm:"column:full_name"`
}

func labMemberFromRow(row labMemberRow) LabMemberDTO {
	return LabMemberDTO{
		MembershipID: row.ID,
		LabID:        row.LabID,
		UserID:       row.UserID,
		Email:        row.Email,
		FullName:     row.FullName,
		CanEditLab:   row.CanEditLab,
		CanEditItems: row.CanEditItems,
		CanEditUsers: row.CanEditUsers,
		CreatedAt:    row.CreatedAt,
	}
}

func labMembersFromRows(rows []labMemberRow) []LabMemberDTO {
	out := make([]LabMemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, labMemberFromRow(row))
	}
	return out
}
