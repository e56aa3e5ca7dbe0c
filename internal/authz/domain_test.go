package authz

import (
	"reflect"
	"testing"
)

func TestScopeCovers(t *testing.T) {
	ordered := []Scope{ScopeOwn, ScopeTeam, ScopeDepartment, ScopeOrganization}
	for i, granted := range ordered {
		for j, required := range ordered {
			want := i >= j
			if got := granted.Covers(required); got != want {
				t.Errorf("%s.Covers(%s) = %v, want %v", granted, required, got, want)
			}
		}
	}
}

func TestScopeValid(t *testing.T) {
	for _, s := range []Scope{ScopeOwn, ScopeTeam, ScopeDepartment, ScopeOrganization} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Scope("global").Valid() {
		t.Error("unknown scope should be invalid")
	}
	if Scope("").Valid() {
		t.Error("empty scope should be invalid")
	}
}

func TestRelationshipRequiredScope(t *testing.T) {
	cases := map[Relationship]Scope{
		RelSelf:           ScopeOwn,
		RelSameTeam:       ScopeTeam,
		RelSameDepartment: ScopeDepartment,
		RelAny:            ScopeOrganization,
	}
	for rel, want := range cases {
		got, ok := rel.RequiredScope()
		if !ok || got != want {
			t.Errorf("RequiredScope(%s) = %s, %v; want %s, true", rel, got, ok, want)
		}
	}
	if _, ok := Relationship("sibling").RequiredScope(); ok {
		t.Error("unknown relationship must not map to a scope")
	}
}

func TestEffectivePermissionSetListSorted(t *testing.T) {
	set := newEffectiveSet(3)
	set.add("b.second")
	set.add("a.first")
	set.add("c.third")
	set.add("a.first") // duplicate

	if set.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", set.Len())
	}
	want := []string{"a.first", "b.second", "c.third"}
	if got := set.List(); !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	if !set.Has("b.second") {
		t.Error("expected membership for b.second")
	}
	if set.Has("d.missing") {
		t.Error("unexpected membership for d.missing")
	}
}
