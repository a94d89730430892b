package models

import (
	"strings"
	"time"
)

// User is an authenticated account. Profile is loaded separately and may be nil.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	IsStaff      bool      `json:"isStaff" db:"is_staff"`
	IsSuperuser  bool      `json:"isSuperuser" db:"is_superuser"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	Profile *Profile `json:"profile,omitempty"`
}

// DisplayName is the profile's full name, falling back to the username when
// there is no profile or the name is blank.
func (u *User) DisplayName() string {
	if u.Profile != nil {
		if name := strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName); name != "" {
			return name
		}
	}
	return u.Username
}

// Gender of a profile
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// AcademicRole distinguishes students from faculty. It is unrelated to
// community membership roles.
type AcademicRole string

const (
	AcademicRoleStudent AcademicRole = "student"
	AcademicRoleFaculty AcademicRole = "faculty"
)

// Profile holds personal details and the two independent cooldown stamps.
type Profile struct {
	ID                       int64        `json:"id" db:"id"`
	UserID                   int64        `json:"userId" db:"user_id"`
	FirstName                string       `json:"firstName" db:"first_name"`
	LastName                 string       `json:"lastName" db:"last_name"`
	BirthDate                time.Time    `json:"birthDate" db:"birth_date"`
	Gender                   Gender       `json:"gender" db:"gender"`
	Role                     AcademicRole `json:"role" db:"role"`
	Department               string       `json:"department" db:"department"`
	Course                   string       `json:"course" db:"course"`
	LastProfileDetailsUpdate *time.Time   `json:"lastProfileDetailsUpdate,omitempty" db:"last_profile_details_update"`
	LastPasswordChange       *time.Time   `json:"lastPasswordChange,omitempty" db:"last_password_change"`
	CreatedAt                time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt                time.Time    `json:"updatedAt" db:"updated_at"`
}

// Cooldowns are the windows between profile edits and between password changes.
type Cooldowns struct {
	Details  time.Duration
	Password time.Duration
}

// DefaultCooldowns are one week for details and two weeks for passwords.
var DefaultCooldowns = Cooldowns{
	Details:  7 * 24 * time.Hour,
	Password: 14 * 24 * time.Hour,
}

// CanUpdateDetails reports whether the details window has elapsed.
func (p *Profile) CanUpdateDetails(now time.Time, window time.Duration) bool {
	return cooldownElapsed(p.LastProfileDetailsUpdate, now, window)
}

// DaysUntilDetailsUpdate returns the whole days left in the details window.
func (p *Profile) DaysUntilDetailsUpdate(now time.Time, window time.Duration) int {
	return daysRemaining(p.LastProfileDetailsUpdate, now, window)
}

// CanChangePassword reports whether the password window has elapsed.
func (p *Profile) CanChangePassword(now time.Time, window time.Duration) bool {
	return cooldownElapsed(p.LastPasswordChange, now, window)
}

// DaysUntilPasswordChange returns the whole days left in the password window.
func (p *Profile) DaysUntilPasswordChange(now time.Time, window time.Duration) int {
	return daysRemaining(p.LastPasswordChange, now, window)
}

func cooldownElapsed(last *time.Time, now time.Time, window time.Duration) bool {
	if last == nil {
		return true
	}
	return now.Sub(*last) >= window
}

func daysRemaining(last *time.Time, now time.Time, window time.Duration) int {
	if last == nil {
		return 0
	}
	remaining := window - now.Sub(*last)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / (24 * time.Hour))
}

// Departments and the courses offered under each.
var Departments = map[string][]string{
	"ccis": {"bscs", "bsit", "bsis"},
	"coe":  {"bsce", "bsee", "bsece", "bscpe"},
	"cbt": {
		"bet", "baet", "beet", "bexet", "bmet", "bmet-mt", "bmet-ract", "bmet-waft",
		"bit", "bit-adt", "bit-at", "bit-elt", "bit-elex", "bit-mt", "bit-hvacr", "bit-waft",
		"bshm", "bsmt",
	},
	"cas": {"bsm", "bses", "bael"},
	"cte": {"beed", "bsed", "bped", "btvted"},
}

// IsKnownCourse reports whether course exists anywhere in the catalogue.
func IsKnownCourse(course string) bool {
	for _, courses := range Departments {
		for _, c := range courses {
			if c == course {
				return true
			}
		}
	}
	return false
}

// IsKnownDepartment reports whether department is in the catalogue.
func IsKnownDepartment(department string) bool {
	_, ok := Departments[department]
	return ok
}
