package auth

import (
	"sort"
	"strings"

	"meramarket/models"
)

// filterUsers applies admin filters and returns one page, newest first.
func filterUsers(users []models.User, f models.UserFilters, page models.PageRequest) models.Page[models.User] {
	q := strings.ToLower(f.Query)
	kept := make([]models.User, 0, len(users))
	for _, u := range users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Suspended != nil && u.Suspended != *f.Suspended {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Name), q) && !strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		kept = append(kept, u)
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].CreatedAt.Equal(kept[j].CreatedAt) {
			return kept[i].ID < kept[j].ID
		}
		return kept[i].CreatedAt.After(kept[j].CreatedAt)
	})
	return models.Paginate(kept, page)
}

func validRole(role string) bool {
	return role == models.RoleUser || role == models.RoleAdmin
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
