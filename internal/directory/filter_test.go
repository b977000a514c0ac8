package directory

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/octobees/user-directory/api/internal/entity"
)

func newUser(id int, name, city, company string) entity.User {
	return entity.User{
		ID:      id,
		Name:    name,
		Address: entity.UserAddress{City: city},
		Company: entity.UserCompany{Name: company},
	}
}

func sampleUsers() []entity.User {
	return []entity.User{
		newUser(1, "Leanne Graham", "Gwenborough", "Romaguera-Crona"),
		newUser(2, "Ervin Howell", "Wisokyburgh", "Deckow-Crist"),
	}
}

func names(users []entity.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Name)
	}
	return out
}

func TestApply_CityScenario(t *testing.T) {
	got := Apply(sampleUsers(), Filters{City: "Gwenborough"})
	if !reflect.DeepEqual(names(got), []string{"Leanne Graham"}) {
		t.Fatalf("expected only Leanne Graham, got %v", names(got))
	}
}

func TestApply_NoMatches(t *testing.T) {
	got := Apply(sampleUsers(), Filters{NameQuery: "xyz"})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}
}

func TestApply_CaseInsensitiveSearch(t *testing.T) {
	users := []entity.User{
		newUser(1, "Jane Doe", "A", "X"),
		newUser(2, "JANE SMITH", "B", "Y"),
		newUser(3, "John Doe", "C", "Z"),
	}

	got := Apply(users, Filters{NameQuery: "jane"})
	if !reflect.DeepEqual(names(got), []string{"Jane Doe", "JANE SMITH"}) {
		t.Fatalf("unexpected matches: %v", names(got))
	}

	got = Apply(users, Filters{NameQuery: "  JaNe  "})
	if len(got) != 2 {
		t.Fatalf("expected query to be trimmed and case-folded, got %v", names(got))
	}

	got = Apply(users, Filters{NameQuery: "   "})
	if len(got) != 3 {
		t.Fatalf("expected whitespace-only query to impose no constraint, got %v", names(got))
	}
}

func TestApply_UnicodeCaseFolding(t *testing.T) {
	users := []entity.User{
		newUser(1, "Grete Straße", "A", "X"),
		newUser(2, "Tobiaſ Keller", "B", "Y"),
		newUser(3, "ΟΔΥΣΣΕΥΣ", "C", "Z"),
	}

	cases := []struct {
		query string
		want  []string
	}{
		{query: "STRASSE", want: []string{"Grete Straße"}},
		{query: "tobias", want: []string{"Tobiaſ Keller"}},
		{query: "οδυσσευς", want: []string{"ΟΔΥΣΣΕΥΣ"}},
		{query: "strasze", want: []string{}},
	}
	for _, tc := range cases {
		got := Apply(users, Filters{NameQuery: tc.query})
		if !reflect.DeepEqual(names(got), tc.want) {
			t.Fatalf("query %q: expected %v, got %v", tc.query, tc.want, names(got))
		}
		for _, u := range users {
			want := false
			for _, n := range tc.want {
				want = want || n == u.Name
			}
			if Matches(u, Filters{NameQuery: tc.query}) != want {
				t.Fatalf("query %q: Matches(%q) disagrees with Apply", tc.query, u.Name)
			}
		}
	}
}

func TestApply_ExactCityAndCompany(t *testing.T) {
	users := []entity.User{
		newUser(1, "A", "Gwenborough", "Acme"),
		newUser(2, "B", "gwenborough", "acme"),
	}
	if got := Apply(users, Filters{City: "gwenborough"}); !reflect.DeepEqual(names(got), []string{"B"}) {
		t.Fatalf("city match must be case-sensitive, got %v", names(got))
	}
	if got := Apply(users, Filters{Company: "Acme"}); !reflect.DeepEqual(names(got), []string{"A"}) {
		t.Fatalf("company match must be case-sensitive, got %v", names(got))
	}
	if got := Apply(users, Filters{City: "Gwen"}); len(got) != 0 {
		t.Fatalf("city match must not be a substring match, got %v", names(got))
	}
}

func TestApply_AndComposition(t *testing.T) {
	cities := []string{"", "Alpha", "Beta"}
	companies := []string{"", "Red", "Blue"}
	queries := []string{"", "an", "ZZ"}

	var users []entity.User
	id := 0
	for _, city := range cities[1:] {
		for _, company := range companies[1:] {
			for _, name := range []string{"Ann", "Bob", "Dana"} {
				id++
				users = append(users, newUser(id, name, city, company))
			}
		}
	}

	for _, q := range queries {
		for _, city := range cities {
			for _, company := range companies {
				f := Filters{NameQuery: q, City: city, Company: company}
				got := Apply(users, f)

				var want []string
				for _, u := range users {
					nameOK := q == "" || containsFold(u.Name, q)
					cityOK := city == "" || u.City() == city
					companyOK := company == "" || u.CompanyName() == company
					if nameOK && cityOK && companyOK {
						want = append(want, u.Name)
					}
				}
				if len(want) == 0 {
					want = []string{}
				}
				if !reflect.DeepEqual(names(got), want) {
					t.Fatalf("filters %+v: expected %v, got %v", f, want, names(got))
				}
			}
		}
	}
}

func TestApply_PreservesSourceOrder(t *testing.T) {
	users := []entity.User{
		newUser(3, "Zed", "C", "X"),
		newUser(1, "Amy", "C", "X"),
		newUser(2, "Max", "C", "X"),
	}
	got := Apply(users, Filters{City: "C"})
	if !reflect.DeepEqual(names(got), []string{"Zed", "Amy", "Max"}) {
		t.Fatalf("expected source order, got %v", names(got))
	}
}

func TestApply_EmptySource(t *testing.T) {
	if got := Apply(nil, Filters{NameQuery: "a", City: "b", Company: "c"}); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestOptions_DistinctAndSorted(t *testing.T) {
	users := []entity.User{
		newUser(1, "A", "South Christy", "Romaguera-Crona"),
		newUser(2, "B", "Gwenborough", "Deckow-Crist"),
		newUser(3, "C", "South Christy", "Romaguera-Crona"),
		newUser(4, "D", "", "Abernathy Group"),
		newUser(5, "E", "Aliyaview", ""),
	}

	cities := CityOptions(users)
	if !reflect.DeepEqual(cities, []string{"Aliyaview", "Gwenborough", "South Christy"}) {
		t.Fatalf("unexpected cities: %v", cities)
	}
	companies := CompanyOptions(users)
	if !reflect.DeepEqual(companies, []string{"Abernathy Group", "Deckow-Crist", "Romaguera-Crona"}) {
		t.Fatalf("unexpected companies: %v", companies)
	}
	if !sort.StringsAreSorted(cities) || !sort.StringsAreSorted(companies) {
		t.Fatalf("options must be sorted ascending")
	}

	if got := CityOptions(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty options for empty source, got %#v", got)
	}
}

func TestFilters_IsZero(t *testing.T) {
	if !(Filters{}).IsZero() {
		t.Fatalf("expected empty filters to be zero")
	}
	if !(Filters{NameQuery: "  "}).IsZero() {
		t.Fatalf("expected whitespace-only query to count as zero")
	}
	if (Filters{Company: "Acme"}).IsZero() {
		t.Fatalf("expected company filter to be active")
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}
