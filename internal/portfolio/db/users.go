package db

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/models"
	"gorm.io/gorm/clause"
)

// SeedPermissions inserts any catalogue permission that is missing.
func (r *Repository) SeedPermissions(ctx context.Context) error {
	perms := make([]models.Permission, len(models.PermissionCatalogue))
	copy(perms, models.PermissionCatalogue)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "codename"}}, DoNothing: true}).
		Create(&perms).Error
	return translate(err)
}

// CreateUser stores u and, when groupID is set, makes it the only group.
func (r *Repository) CreateUser(ctx context.Context, u *models.User, groupID *uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error; err != nil {
			return translate(err)
		}
		return tx.setUserGroup(ctx, u, groupID)
	})
}

// UpdateUser saves every profile column of u and, when groupID is set,
// replaces its groups.
func (r *Repository) UpdateUser(ctx context.Context, u *models.User, groupID *uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		res := tx.db.WithContext(ctx).Model(u).Select("*").Omit("id", "created_at", clause.Associations).Updates(u)
		if err := deleted(res); err != nil {
			return err
		}
		return tx.setUserGroup(ctx, u, groupID)
	})
}

func (r *Repository) setUserGroup(ctx context.Context, u *models.User, groupID *uint) error {
	if groupID == nil {
		return nil
	}
	g, err := r.GetGroup(ctx, *groupID)
	if err != nil {
		return err
	}
	u.Groups = []models.Group{*g}
	return translate(r.db.WithContext(ctx).Model(u).Omit("Groups.*").Association("Groups").Replace(&u.Groups))
}

// GetUser loads a user with its groups.
func (r *Repository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Preload("Groups.Permissions").First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetUserByEmail matches the normalised address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// EmailTaken compares normalised addresses, ignoring excludeID.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.exists(ctx, &models.User{}, "email = ? AND id <> ?", models.NormalizeEmail(email), excludeID)
}

// SetPassword stores an already hashed password.
func (r *Repository) SetPassword(ctx context.Context, id uint, hash string) error {
	return deleted(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash))
}

// SetProfilePicture stores the path of a new avatar.
func (r *Repository) SetProfilePicture(ctx context.Context, id uint, path string) error {
	return deleted(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("profile_picture", path))
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return deleted(r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at))
}

// DeleteUser removes a user and its group memberships.
func (r *Repository) DeleteUser(ctx context.Context, id uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		if err := db.Exec("DELETE FROM user_groups WHERE user_id = ?", id).Error; err != nil {
			return translate(err)
		}
		return deleted(db.Delete(&models.User{}, id))
	})
}

// ListUsers returns users in id order, staff included.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Groups").Order("id").Find(&users).Error
	return users, translate(err)
}

// DeleteNonStaffUsers removes every account that is neither staff nor
// superuser.
func (r *Repository) DeleteNonStaffUsers(ctx context.Context) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		regular := tx.db.Model(&models.User{}).Select("id").Where("is_staff = ? AND is_superuser = ?", false, false)
		if err := db.Exec("DELETE FROM user_groups WHERE user_id IN (?)", regular).Error; err != nil {
			return translate(err)
		}
		return translate(db.Where("is_staff = ? AND is_superuser = ?", false, false).Delete(&models.User{}).Error)
	})
}

// CreateGroup stores g with the permissions named by codenames.
func (r *Repository) CreateGroup(ctx context.Context, g *models.Group, codenames []string) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		perms, err := tx.permissionsByCodename(ctx, codenames)
		if err != nil {
			return err
		}
		g.Permissions = perms
		return translate(tx.db.WithContext(ctx).Omit("Permissions.*").Create(g).Error)
	})
}

// UpdateGroup renames g and replaces its permissions.
func (r *Repository) UpdateGroup(ctx context.Context, g *models.Group, codenames []string) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		if err := deleted(db.Model(g).Update("name", g.Name)); err != nil {
			return err
		}
		perms, err := tx.permissionsByCodename(ctx, codenames)
		if err != nil {
			return err
		}
		g.Permissions = perms
		return translate(db.Model(g).Omit("Permissions.*").Association("Permissions").Replace(&g.Permissions))
	})
}

func (r *Repository) permissionsByCodename(ctx context.Context, codenames []string) ([]models.Permission, error) {
	var perms []models.Permission
	if len(codenames) == 0 {
		return perms, nil
	}
	if err := r.db.WithContext(ctx).Where("codename IN ?", codenames).Order("id").Find(&perms).Error; err != nil {
		return nil, translate(err)
	}
	if len(perms) != len(uniqueStrings(codenames)) {
		return nil, fmt.Errorf("%w: permission", e.ErrNotFound)
	}
	return perms, nil
}

// GetGroup loads a group with its permissions.
func (r *Repository) GetGroup(ctx context.Context, id uint) (*models.Group, error) {
	var g models.Group
	if err := r.db.WithContext(ctx).Preload("Permissions", orderByID).First(&g, id).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// GroupNameTaken reports whether another group uses name.
func (r *Repository) GroupNameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	return r.exists(ctx, &models.Group{}, "name = ? AND id <> ?", name, excludeID)
}

// ListGroups returns every group in id order.
func (r *Repository) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Preload("Permissions", orderByID).Order("id").Find(&groups).Error
	return groups, translate(err)
}

// DeleteGroup removes a group with its memberships and grants.
func (r *Repository) DeleteGroup(ctx context.Context, id uint) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		db := tx.db.WithContext(ctx)
		for _, stmt := range []string{
			"DELETE FROM user_groups WHERE group_id = ?",
			"DELETE FROM group_permissions WHERE group_id = ?",
		} {
			if err := db.Exec(stmt, id).Error; err != nil {
				return translate(err)
			}
		}
		return deleted(db.Delete(&models.Group{}, id))
	})
}

func uniqueStrings(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
