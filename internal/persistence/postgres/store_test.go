package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"soacore/internal/core"
	"soacore/internal/persistence/postgres/testutil"
)

const snapshotFixture = `{
  "soa_rules": {
    "version": "1.0",
    "technology": "smos10hv",
    "devices": {
      "nmos_core": {
        "device_type": "mos_transistor",
        "subcategory": "core",
        "multi_level": {"enabled": true, "tmaxfrac_levels": [0.1, 0.01, 0.0]},
        "parameters": {
          "vhigh_ds_on": {
            "name": "vhigh_ds_on",
            "severity": "high",
            "type": "voltage",
            "unit": "V",
            "values": {"multi_level": {"0.1": 1.65, "0.01": 1.71, "0.0": 1.838}},
            "description": "drain-source on-state limit"
          }
        }
      }
    }
  }
}`

func fixtureDoc(t *testing.T) core.Document {
	t.Helper()
	doc, err := core.DecodeDocument([]byte(snapshotFixture))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return doc
}

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := Open(context.Background(), "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return store, conn
}

func TestStoreSaveAndHydrate(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)

	if err := store.LoadDocument(ctx, fixtureDoc(t)); err != nil {
		t.Fatalf("load document: %v", err)
	}
	payload, ok := conn.State["soa_rules"]
	if !ok || len(payload) == 0 {
		t.Fatalf("expected snapshot to be upserted")
	}

	// A second store over the same connection hydrates from the snapshot.
	reloaded, err := Open(ctx, "")
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	rs, ok := reloaded.Device("nmos_core")
	if !ok {
		t.Fatalf("expected hydrated device")
	}
	if rs.Subcategory != "core" {
		t.Fatalf("unexpected rule set %+v", rs)
	}
	result, err := reloaded.CheckCompliance("nmos_core", 0.1, map[string]float64{"vhigh_ds_on": 1.6})
	if err != nil {
		t.Fatalf("check compliance: %v", err)
	}
	if !result.Compliant {
		t.Fatalf("expected 1.6 within the 1.65 limit")
	}
}

func TestStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := Open(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping failure, got %v", err)
	}
}

func TestStoreExecFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := Open(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "ensure state table") {
		t.Fatalf("expected table creation failure, got %v", err)
	}
}

func TestStoreHydrateFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.State["soa_rules"] = []byte(`{"soa_rules":{}}`)
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("expected hydrate of malformed snapshot to fail")
	}
}

func TestStoreSaveFailure(t *testing.T) {
	ctx := context.Background()
	store, conn := openStub(t)
	conn.FailExec = true
	if err := store.LoadDocument(ctx, fixtureDoc(t)); err == nil || !strings.Contains(err.Error(), "upsert soa_rules") {
		t.Fatalf("expected save failure, got %v", err)
	}
}
