package models

import (
	"regexp"
	"strings"
	"time"

	e "github.com/gartstein/vcpms/internal/portfolio/errors"
)

// DefaultResetPassword is what an administrator reset sets a password to.
const DefaultResetPassword = "Password123"

var (
	ukPhonePattern = regexp.MustCompile(`^(?:0|\+?44)(?:\d\s?){9,10}$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
)

// User is an account that can sign in. Staff accounts can see archived
// records and administer other users.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password       string     `gorm:"size:255;not null" json:"-"`
	FirstName      string     `gorm:"size:255;not null" json:"first_name"`
	LastName       string     `gorm:"size:255;not null" json:"last_name"`
	Phone          string     `gorm:"size:255;not null" json:"phone"`
	ProfilePicture string     `gorm:"size:500" json:"profile_picture"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
	IsStaff        bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser    bool       `gorm:"not null" json:"is_superuser"`
	Groups         []Group    `gorm:"many2many:user_groups" json:"groups,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"date_joined"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NormalizeEmail lower-cases the domain part of an address.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// UserInput is the administrator's user form. Password is only read on
// create.
type UserInput struct {
	Email     string `json:"email" form:"email"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Password  string `json:"password,omitempty" form:"password"`
	Phone     string `json:"phone" form:"phone"`
	IsActive  bool   `json:"is_active" form:"is_active"`
	GroupID   uint   `json:"group" form:"group"`
}

func (in UserInput) Validate(withPassword bool) error {
	v := e.NewValidationError()
	if required(v, "email", in.Email) {
		maxLen(v, "email", in.Email, 255)
		validEmail(v, "email", in.Email)
	}
	for field, value := range map[string]string{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"phone":      in.Phone,
	} {
		if required(v, field, value) {
			maxLen(v, field, value, 255)
		}
	}
	if withPassword {
		required(v, "password", in.Password)
	}
	return v.OrNil()
}

// Apply copies profile fields onto u. Password and groups are handled by the
// caller.
func (in UserInput) Apply(u *User) {
	u.Email = NormalizeEmail(in.Email)
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Phone = in.Phone
	u.IsActive = in.IsActive
}

func (u *User) Input() UserInput {
	in := UserInput{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		IsActive:  u.IsActive,
	}
	if len(u.Groups) > 0 {
		in.GroupID = u.Groups[0].ID
	}
	return in
}

// ChangePasswordInput is the settings page password form.
type ChangePasswordInput struct {
	OldPassword     string `json:"old_password" form:"old_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// Validate checks everything except the old password, which needs the hash.
func (in ChangePasswordInput) Validate() *e.ValidationError {
	v := e.NewValidationError()
	required(v, "old_password", in.OldPassword)
	if required(v, "new_password", in.NewPassword) {
		if !upperPattern.MatchString(in.NewPassword) ||
			!lowerPattern.MatchString(in.NewPassword) ||
			!digitPattern.MatchString(in.NewPassword) {
			v.Add("new_password", "Password must contain an uppercase character, a lowercase character and a number.")
		}
	}
	if required(v, "confirm_password", in.ConfirmPassword) && in.NewPassword != in.ConfirmPassword {
		v.Add("confirm_password", "Confirmation does not match password.")
	}
	return v
}

// ContactDetailsInput is the settings page contact form.
type ContactDetailsInput struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Email     string `json:"email" form:"email"`
	Phone     string `json:"phone" form:"phone"`
}

func (in ContactDetailsInput) Validate() error {
	v := e.NewValidationError()
	if required(v, "first_name", in.FirstName) {
		maxLen(v, "first_name", in.FirstName, 255)
	}
	if required(v, "last_name", in.LastName) {
		maxLen(v, "last_name", in.LastName, 255)
	}
	if required(v, "email", in.Email) {
		validEmail(v, "email", in.Email)
	}
	if required(v, "phone", in.Phone) && !ukPhonePattern.MatchString(in.Phone) {
		v.Add("phone", "Your phone number should be of the format: 0712345678 or +44712345678")
	}
	return v.OrNil()
}

// Group is a named set of permissions.
type Group struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:150;not null;uniqueIndex" json:"name"`
	Permissions []Permission `gorm:"many2many:group_permissions" json:"permissions,omitempty"`
}

type GroupInput struct {
	Name        string   `json:"name" form:"name"`
	Permissions []string `json:"permissions" form:"permissions"`
}

func (in GroupInput) Validate() error {
	v := e.NewValidationError()
	if required(v, "name", in.Name) {
		maxLen(v, "name", in.Name, 100)
	}
	if len(in.Permissions) == 0 {
		v.Add("permissions", "This field is required.")
	}
	for _, codename := range in.Permissions {
		if _, ok := permissionLabels[codename]; !ok {
			v.Add("permissions", "Select a valid choice. "+codename+" is not one of the available choices.")
		}
	}
	return v.OrNil()
}

func (g *Group) Input() GroupInput {
	in := GroupInput{Name: g.Name}
	for _, p := range g.Permissions {
		in.Permissions = append(in.Permissions, p.Codename)
	}
	return in
}

// Permission grants one action on one kind of record.
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Codename string `gorm:"size:100;not null;uniqueIndex" json:"codename"`
	Name     string `gorm:"size:255;not null" json:"name"`
}

var permissionLabels = map[string]string{}

// PermissionCatalogue is every permission a group can be granted.
var PermissionCatalogue = func() []Permission {
	actions := []struct{ code, label string }{
		{"add", "Create"}, {"change", "Edit"}, {"delete", "Delete"}, {"view", "View"},
	}
	subjects := []struct{ code, label string }{
		{"user", "user"}, {"company", "company"}, {"individual", "individual"},
		{"residentialaddress", "residential address"},
	}
	var out []Permission
	for _, s := range subjects {
		for _, a := range actions {
			p := Permission{Codename: a.code + "_" + s.code, Name: a.label + " " + s.label}
			permissionLabels[p.Codename] = p.Name
			out = append(out, p)
		}
	}
	return out
}()
