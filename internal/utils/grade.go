package utils

// Grades, lowest first.
var grades = []struct {
	Key   string
	Label string
	Icon  string
}{
	{"cherry", "Cherry", "🍒"},
	{"blueberry", "Blueberry", "🫐"},
	{"kiwi", "Kiwi", "🥝"},
	{"apple", "Apple", "🍎"},
	{"melon", "Melon", "🍈"},
	{"watermelon", "Watermelon", "🍉"},
	{"earth", "Earth", "🌍"},
	{"saturn", "Saturn", "🪐"},
	{"sun", "Sun", "🌞"},
	{"galaxy", "Galaxy", "🌌"},
}

// Roles, lowest first.
const (
	RoleMember    = "member"
	RoleLeader    = "leader"
	RoleViceAdmin = "vice_admin"
	RoleAdmin     = "admin"
)

var roles = []string{RoleMember, RoleLeader, RoleViceAdmin, RoleAdmin}

// DefaultGrade is given to new accounts.
const DefaultGrade = "cherry"

// GradeRank returns the position of grade on the ladder, or -1 if unknown.
func GradeRank(grade string) int {
	for i, g := range grades {
		if g.Key == grade {
			return i
		}
	}
	return -1
}

// ValidGrade reports whether grade is on the ladder.
func ValidGrade(grade string) bool {
	return GradeRank(grade) >= 0
}

// CompareGrades returns -1, 0 or 1 as a is below, equal to or above b.
// Unknown grades sort below every known one.
func CompareGrades(a, b string) int {
	ra, rb := GradeRank(a), GradeRank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

// GradeLabel returns the display name and icon of grade.
func GradeLabel(grade string) (name string, icon string) {
	if i := GradeRank(grade); i >= 0 {
		return grades[i].Label, grades[i].Icon
	}
	return grades[0].Label, grades[0].Icon
}

// RoleRank returns the position of role, or -1 if unknown.
func RoleRank(role string) int {
	for i, r := range roles {
		if r == role {
			return i
		}
	}
	return -1
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	return RoleRank(role) >= 0
}

// RoleAtLeast reports whether role is min or higher.
func RoleAtLeast(role, min string) bool {
	r := RoleRank(role)
	return r >= 0 && r >= RoleRank(min)
}

// IsPrivileged reports whether role belongs to the staff (vice admin and up).
func IsPrivileged(role string) bool {
	return RoleAtLeast(role, RoleViceAdmin)
}
