package record

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeNormalizesLegacyLinkKey(t *testing.T) {
	input := `{
  "fullName": "Jane Doe",
  "maritalStatus": "ignored",
  "projects": [
    {"title": "A", "Link": "https://a.example"},
    {"title": "B", "link": "https://b.example", "Link": "https://old.example"}
  ]
}`
	rec, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := rec.Projects[0].Link; got != "https://a.example" {
		t.Fatalf("legacy Link key not folded: %q", got)
	}
	if got := rec.Projects[1].Link; got != "https://b.example" {
		t.Fatalf("canonical link should win, got %q", got)
	}
}

func TestNormalizeDropsBlankEntries(t *testing.T) {
	rec := Default()
	rec.FullName = "  Jane  "
	rec.CustomLinks = []Link{{Title: "GitHub"}, {URL: " https://x.example "}}
	rec.Experience = append(rec.Experience, Experience{Title: "Dev", Details: []string{" ", "Shipped"}})

	n := rec.Normalize()
	if n.FullName != "Jane" {
		t.Fatalf("name not trimmed: %q", n.FullName)
	}
	if len(n.Education) != 0 || len(n.Projects) != 0 {
		t.Fatalf("blank entries should be dropped: edu=%d proj=%d", len(n.Education), len(n.Projects))
	}
	if len(n.Experience) != 1 || len(n.Experience[0].Details) != 1 || n.Experience[0].Details[0] != "Shipped" {
		t.Fatalf("unexpected experience: %#v", n.Experience)
	}
	if len(n.CustomLinks) != 1 || n.CustomLinks[0].URL != "https://x.example" {
		t.Fatalf("unexpected links: %#v", n.CustomLinks)
	}
	// 原值不应被修改
	if rec.FullName != "  Jane  " || len(rec.Education) != 1 {
		t.Fatalf("Normalize mutated its receiver")
	}
}

func TestTransitionsReturnNewValues(t *testing.T) {
	rec := Record{Education: []Education{{Degree: "A"}, {Degree: "B"}, {Degree: "C"}}}

	moved, err := rec.MoveItem(SectionEducation, 0, 2)
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if got := degrees(moved.Education); got != "BCA" {
		t.Fatalf("unexpected order after move: %s", got)
	}
	if got := degrees(rec.Education); got != "ABC" {
		t.Fatalf("receiver mutated: %s", got)
	}

	back, err := moved.MoveItem(SectionEducation, 2, 0)
	if err != nil {
		t.Fatalf("move back failed: %v", err)
	}
	if got := degrees(back.Education); got != "ABC" {
		t.Fatalf("unexpected order after move back: %s", got)
	}

	removed, err := rec.RemoveItem(SectionEducation, 1)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if got := degrees(removed.Education); got != "AC" {
		t.Fatalf("unexpected order after remove: %s", got)
	}

	added, err := removed.AddItem(SectionEducation)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(added.Education) != 3 || !added.Education[2].IsZero() {
		t.Fatalf("add should append a blank entry: %#v", added.Education)
	}
}

func TestTransitionErrors(t *testing.T) {
	rec := Record{}
	if _, err := rec.RemoveItem(SectionProjects, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := rec.AddItem(Section("hobbies")); !errors.Is(err, ErrUnknownSection) {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
	if _, err := rec.SetField("maritalStatus", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := rec.MoveDetail(0, 0, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange for details, got %v", err)
	}
}

func TestDetailTransitions(t *testing.T) {
	rec := Record{Experience: []Experience{{Title: "Dev", Details: []string{"a"}}}}
	rec, err := rec.AddDetail(0)
	if err != nil {
		t.Fatalf("add detail: %v", err)
	}
	rec, err = rec.SetDetail(0, 1, "b")
	if err != nil {
		t.Fatalf("set detail: %v", err)
	}
	rec, err = rec.MoveDetail(0, 1, 0)
	if err != nil {
		t.Fatalf("move detail: %v", err)
	}
	if got := strings.Join(rec.Experience[0].Details, ""); got != "ba" {
		t.Fatalf("unexpected details: %q", got)
	}
	rec, err = rec.RemoveDetail(0, 0)
	if err != nil {
		t.Fatalf("remove detail: %v", err)
	}
	if got := strings.Join(rec.Experience[0].Details, ""); got != "a" {
		t.Fatalf("unexpected details after remove: %q", got)
	}
}

func TestFileName(t *testing.T) {
	cases := []struct {
		name     string
		template string
		want     string
	}{
		{"Jane Doe", "", "Jane_Doe_Resume"},
		{"", "", "Resume"},
		{"  ", "", "Resume"},
		{"A/B: C", "", "AB_C_Resume"},
		{"Jane Doe", "CV-${fullName}", "CV-Jane_Doe"},
	}
	for _, tc := range cases {
		got := Record{FullName: tc.name}.FileName(tc.template)
		if got != tc.want {
			t.Fatalf("FileName(%q, %q) = %q, want %q", tc.name, tc.template, got, tc.want)
		}
	}
}

func degrees(es []Education) string {
	var b strings.Builder
	for _, e := range es {
		b.WriteString(e.Degree)
	}
	return b.String()
}
