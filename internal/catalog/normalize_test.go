package catalog

import (
	"context"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"DNC", "dnc"},
		{"Wrong Number", "wrong_number"},
		{"Not Interested!", "not_interested"},
		{"already-has  Solar", "already_has_solar"},
		{"  Do Not Call  ", "do_not_call"},
		{"abusive", "abusive"},
		{"___", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestServiceResolve_IDThenNameFallback(t *testing.T) {
	repo := NewMemoryRepo(
		Disposition{ID: "d1", UserID: "u", Name: "Interested", PipelineStage: "Hot Leads", Active: true},
	)
	svc := NewService(repo)

	d, ok, err := svc.Resolve(context.Background(), "u", "d1", "")
	if err != nil || !ok {
		t.Fatalf("resolve by id: ok=%v err=%v", ok, err)
	}
	if d.PipelineStage != "Hot Leads" {
		t.Fatalf("unexpected stage: %q", d.PipelineStage)
	}

	d, ok, err = svc.Resolve(context.Background(), "u", "", "interested")
	if err != nil || !ok {
		t.Fatalf("resolve by name: ok=%v err=%v", ok, err)
	}
	if d.ID != "d1" {
		t.Fatalf("unexpected id: %q", d.ID)
	}

	_, ok, err = svc.Resolve(context.Background(), "u", "", "no-such")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok {
		t.Fatalf("expected not found")
	}
}
