package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies which profile variant a user carries.
type Role string

const (
	RoleLearner    Role = "learner"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Profile is the role-specific part of a user. The set of variants is closed:
// LearnerProfile, InstructorProfile and AdminProfile.
type Profile interface {
	Role() Role
	profile()
}

// CertificateHolder is implemented by profiles that may receive certificates.
type CertificateHolder interface {
	Profile
	HoldsCertificates() bool
}

// CourseOwner is implemented by profiles that may author courses.
type CourseOwner interface {
	Profile
	OwnsCourses() bool
}

type LearnerProfile struct {
	Headline string `json:"headline,omitempty"`
}

func (LearnerProfile) Role() Role              { return RoleLearner }
func (LearnerProfile) HoldsCertificates() bool { return true }
func (LearnerProfile) profile()                {}

type InstructorProfile struct {
	Bio       string   `json:"bio,omitempty"`
	Expertise []string `json:"expertise,omitempty"`
}

func (InstructorProfile) Role() Role        { return RoleInstructor }
func (InstructorProfile) OwnsCourses() bool { return true }
func (InstructorProfile) profile()          {}

type AdminProfile struct {
	Permissions []string `json:"permissions,omitempty"`
}

func (AdminProfile) Role() Role        { return RoleAdmin }
func (AdminProfile) OwnsCourses() bool { return true }
func (AdminProfile) profile()          {}

// User is a platform account. ChatID is zero until the user links a Telegram chat.
type User struct {
	ID        int64
	Name      string
	Email     string
	ChatID    int64
	Profile   Profile
	CreatedAt time.Time
}

func NewLearner(id int64, name, email string) *User {
	return &User{
		ID:        id,
		Name:      name,
		Email:     email,
		Profile:   LearnerProfile{},
		CreatedAt: time.Now().UTC(),
	}
}

// Role returns the role of the user's profile, or an empty role when none is set.
func (u *User) Role() Role {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Role()
}

// CanHoldCertificate reports whether the user's role is allowed to be certified.
func (u *User) CanHoldCertificate() bool {
	h, ok := u.Profile.(CertificateHolder)
	return ok && h.HoldsCertificates()
}

// MarshalProfile encodes the profile for storage next to its role.
func MarshalProfile(p Profile) (Role, []byte, error) {
	if p == nil {
		return "", nil, fmt.Errorf("profile is nil")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s profile: %w", p.Role(), err)
	}
	return p.Role(), raw, nil
}

// UnmarshalProfile decodes a stored profile back into its variant.
func UnmarshalProfile(role Role, raw []byte) (Profile, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	switch role {
	case RoleLearner:
		var p LearnerProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal learner profile: %w", err)
		}
		return p, nil
	case RoleInstructor:
		var p InstructorProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal instructor profile: %w", err)
		}
		return p, nil
	case RoleAdmin:
		var p AdminProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal admin profile: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
}
