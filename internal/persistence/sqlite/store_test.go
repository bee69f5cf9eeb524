package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"soacore/internal/core"
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

func TestStorePersistAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	if err := store.LoadDocument(fixtureDoc(t)); err != nil {
		t.Fatalf("load document: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reload sqlite store: %v", err)
	}
	defer func() { _ = reloaded.Close() }()
	rs, ok := reloaded.Device("nmos_core")
	if !ok {
		t.Fatalf("expected device after reload")
	}
	if rs.DeviceType != "mos_transistor" || len(rs.Parameters) != 1 {
		t.Fatalf("unexpected rule set %+v", rs)
	}
	result, err := reloaded.CheckCompliance("nmos_core", 0.1, map[string]float64{"vhigh_ds_on": 1.7})
	if err != nil {
		t.Fatalf("check compliance: %v", err)
	}
	if result.Compliant {
		t.Fatalf("expected 1.7 to violate the 1.65 limit after reload")
	}
	if reloaded.Path() != path {
		t.Fatalf("expected path %s, got %s", path, reloaded.Path())
	}
	if reloaded.DB() == nil {
		t.Fatalf("expected db handle")
	}
}

func TestStoreSaveAfterAddDevice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.LoadDocument(fixtureDoc(t)); err != nil {
		t.Fatalf("load: %v", err)
	}
	extra, _ := store.Device("nmos_core")
	store.AddDevice("nmos_copy", extra)
	if err := store.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = store.Close()

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer func() { _ = reloaded.Close() }()
	keys := reloaded.DeviceKeys()
	if len(keys) != 2 || keys[0] != "nmos_copy" || keys[1] != "nmos_core" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestStoreSaveErrorAfterClose(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = store.DB().Close()
	if err := store.LoadDocument(fixtureDoc(t)); err == nil {
		t.Fatalf("expected save on closed db to fail")
	}
}

func TestStoreRejectsBadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.DB().Exec(
		`INSERT INTO state(bucket,payload) VALUES(?,?)`, "soa_rules", []byte(`{"soa_rules":{}}`),
	); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = store.Close()
	if _, err := Open(path); err == nil {
		t.Fatalf("expected hydrate of malformed snapshot to fail")
	}
}
