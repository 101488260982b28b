package service

import (
	"reflect"
	"testing"

	"account-linker/internal/domain"
)

func TestDecide(t *testing.T) {
	linkedPrimary := record("ad|jdoe", true, ident("ad", "jdoe"), ident("github", "1"))
	unlinkedFirst := record("ad|jdoe", true, ident("ad", "jdoe"))
	noIdentities := domain.IdentityRecord{UserID: "ad|jdoe", EmailVerified: true}
	single := record("google|2", true, ident("google-oauth2", "2"))
	multi := record("google|2", true, ident("google-oauth2", "2"), ident("github", "3"))

	tests := []struct {
		name        string
		user        domain.IdentityRecord
		candidates  []domain.IdentityRecord
		wantKind    DecisionKind
		wantPrimary string
		wantIDs     []string
	}{
		{
			name:       "single candidate",
			user:       single,
			candidates: []domain.IdentityRecord{single},
			wantKind:   DecisionNoAction,
		},
		{
			name:       "login through linked primary",
			user:       linkedPrimary,
			candidates: []domain.IdentityRecord{linkedPrimary, single},
			wantKind:   DecisionNoAction,
		},
		{
			name:        "unlinked secondary links into first",
			user:        single,
			candidates:  []domain.IdentityRecord{linkedPrimary, single},
			wantKind:    DecisionLink,
			wantPrimary: "ad|jdoe",
		},
		{
			name:        "first without secondaries still becomes primary",
			user:        single,
			candidates:  []domain.IdentityRecord{unlinkedFirst, single},
			wantKind:    DecisionLink,
			wantPrimary: "ad|jdoe",
		},
		{
			name:        "single-identity user that is first still links into first",
			user:        unlinkedFirst,
			candidates:  []domain.IdentityRecord{unlinkedFirst, single},
			wantKind:    DecisionLink,
			wantPrimary: "ad|jdoe",
		},
		{
			name:       "multi-identity user that is not first",
			user:       multi,
			candidates: []domain.IdentityRecord{unlinkedFirst, multi},
			wantKind:   DecisionUnresolved,
			wantIDs:    []string{"ad|jdoe", "google|2"},
		},
		{
			name:        "first without identities and user is first",
			user:        record("ad|jdoe", true, ident("ad", "jdoe")),
			candidates:  []domain.IdentityRecord{noIdentities, single},
			wantKind:    DecisionLink,
			wantPrimary: "google|2",
		},
		{
			name:        "first without identities and user is second",
			user:        single,
			candidates:  []domain.IdentityRecord{noIdentities, single},
			wantKind:    DecisionLink,
			wantPrimary: "ad|jdoe",
		},
		{
			name:       "three candidates",
			user:       single,
			candidates: []domain.IdentityRecord{record("a", true), record("b", true), record("c", true)},
			wantKind:   DecisionAmbiguous,
			wantIDs:    []string{"a", "b", "c"},
		},
		{
			name:       "no candidates",
			user:       single,
			candidates: nil,
			wantKind:   DecisionAmbiguous,
			wantIDs:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.user, tt.candidates)
			if got.Kind != tt.wantKind {
				t.Fatalf("expected kind %s, got %s", tt.wantKind, got.Kind)
			}
			if tt.wantKind == DecisionLink {
				if got.Primary == nil || got.Primary.UserID != tt.wantPrimary {
					t.Fatalf("expected primary %s, got %+v", tt.wantPrimary, got.Primary)
				}
				if got.Secondary == nil || got.Secondary.UserID != tt.user.UserID {
					t.Fatalf("expected authenticating user as secondary, got %+v", got.Secondary)
				}
			}
			if tt.wantIDs != nil && !reflect.DeepEqual(got.CandidateIDs, tt.wantIDs) {
				t.Fatalf("expected ids %v, got %v", tt.wantIDs, got.CandidateIDs)
			}
		})
	}
}

func TestVerifiedOnlyKeepsOrder(t *testing.T) {
	in := []domain.IdentityRecord{record("a", true), record("b", false), record("c", true)}
	got := userIDs(verifiedOnly(in))
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("expected [a c], got %v", got)
	}
}

func TestMergeUserMetadata(t *testing.T) {
	secondary := domain.Metadata{"locale": "en", "theme": "dark"}
	primary := domain.Metadata{"locale": "fr"}

	got := MergeUserMetadata(secondary, primary)
	want := domain.Metadata{"locale": "fr", "theme": "dark"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if secondary["locale"] != "en" || len(primary) != 1 {
		t.Fatalf("expected inputs untouched")
	}

	empty := MergeUserMetadata(nil, nil)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty map, got %#v", empty)
	}
}
