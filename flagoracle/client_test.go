package flagoracle

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/loufret/fivefret/fret"
)

func TestHTTPOracleFetchesAndCaches(t *testing.T) {
	store := NewStore()
	id := uuid.New()
	store.Set(id, fret.FlagAutoPlay, true)

	srv := httptest.NewServer(NewServer(store))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL)
	defer oracle.Close()
	if !oracle.IsFlagSet(id, fret.FlagAutoPlay) {
		t.Fatalf("expected construction to fetch an initial snapshot with AutoPlay=true")
	}

	// A store mutation within minPollInterval should not be observed yet,
	// since the oracle only refreshes its snapshot periodically.
	store.Set(id, fret.FlagAutoPlay, false)
	if !oracle.IsFlagSet(id, fret.FlagAutoPlay) {
		t.Fatalf("expected the cached snapshot to still report true before the next poll")
	}
}

func TestHTTPOracleUnknownProfileDefaultsFalse(t *testing.T) {
	store := NewStore()
	srv := httptest.NewServer(NewServer(store))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL)
	defer oracle.Close()
	if oracle.IsFlagSet(uuid.New(), fret.FlagAutoPlay) {
		t.Fatalf("a profile the server never reports should default to false")
	}
}

func TestHTTPOracleUnreachableServerDefaultsFalse(t *testing.T) {
	oracle := NewHTTPOracle("http://127.0.0.1:0")
	defer oracle.Close()
	if oracle.IsFlagSet(uuid.New(), fret.FlagAutoPlay) {
		t.Fatalf("an unreachable server should fail safe to false, not panic or block forever")
	}
}
