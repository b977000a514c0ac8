package directory

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/octobees/user-directory/api/internal/entity"
)

// Filters is the user-controlled search state. Empty fields impose no constraint.
type Filters struct {
	NameQuery string `json:"name"`
	City      string `json:"city"`
	Company   string `json:"company"`
}

// IsZero reports whether no filter is active.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.NameQuery) == "" && f.City == "" && f.Company == ""
}

// Matches reports whether u satisfies every active filter. Names are compared
// with full Unicode case folding, so "STRASSE" finds "Straße".
func Matches(u entity.User, f Filters) bool {
	return newMatcher(f).match(u)
}

// Apply returns the users matching f, in source order.
func Apply(users []entity.User, f Filters) []entity.User {
	m := newMatcher(f)
	out := make([]entity.User, 0, len(users))
	for _, u := range users {
		if m.match(u) {
			out = append(out, u)
		}
	}
	return out
}

var folder = cases.Fold()

type matcher struct {
	query   string
	city    string
	company string
}

func newMatcher(f Filters) matcher {
	m := matcher{city: f.City, company: f.Company}
	if q := strings.TrimSpace(f.NameQuery); q != "" {
		m.query = folder.String(q)
	}
	return m
}

func (m matcher) match(u entity.User) bool {
	if m.query != "" && !strings.Contains(folder.String(u.Name), m.query) {
		return false
	}
	if m.city != "" && u.City() != m.city {
		return false
	}
	if m.company != "" && u.CompanyName() != m.company {
		return false
	}
	return true
}

// CityOptions returns the distinct non-empty cities, sorted ascending.
func CityOptions(users []entity.User) []string {
	return distinctSorted(users, entity.User.City)
}

// CompanyOptions returns the distinct non-empty company names, sorted ascending.
func CompanyOptions(users []entity.User) []string {
	return distinctSorted(users, entity.User.CompanyName)
}

func distinctSorted(users []entity.User, field func(entity.User) string) []string {
	seen := make(map[string]struct{}, len(users))
	out := make([]string, 0, len(users))
	for _, u := range users {
		value := field(u)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
