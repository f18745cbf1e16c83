package policy

import (
	"github.com/techpress/publishing-api/internal/core/domain"
)

// SelfRegisterRole resolves the role a new account may claim for itself.
// An empty request means reader; admin is never self-assignable.
func SelfRegisterRole(requested string) (domain.Role, error) {
	if requested == "" {
		return domain.RoleReader, nil
	}
	role, err := domain.ParseRole(requested)
	if err != nil {
		return "", err
	}
	switch role {
	case domain.RoleReader, domain.RoleWriter:
		return role, nil
	case domain.RoleAdmin:
		return "", domain.ErrAdminSelfRegistration
	default:
		return "", domain.ErrForbidden
	}
}

// UpdateUser checks that actor may apply patch to the user targetID.
// An admin cannot change their own role through this path.
func UpdateUser(actor domain.Principal, targetID string, patch domain.UserPatch) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if actor.Is(targetID) && patch.Role != nil && *patch.Role != actor.Role {
		return domain.ErrOwnRoleChange
	}
	return nil
}

// DeleteUser checks that actor may delete the user targetID.
func DeleteUser(actor domain.Principal, targetID string) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}
	if actor.Is(targetID) {
		return domain.ErrOwnAccountDeletion
	}
	return nil
}

// EditReview checks that p owns r.
func EditReview(p domain.Principal, r *domain.Review) error {
	if r == nil {
		return domain.ErrReviewNotFound
	}
	if !p.Is(r.UserID) {
		return domain.ErrNotReviewOwner
	}
	return nil
}

// DeleteReview checks that p owns r or is an admin.
func DeleteReview(p domain.Principal, r *domain.Review) error {
	if r == nil {
		return domain.ErrReviewNotFound
	}
	if p.Is(r.UserID) || p.IsAdmin() {
		return nil
	}
	return domain.ErrForbidden
}
