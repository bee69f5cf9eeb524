package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingLogger struct {
	failed bool
	msg    string
}

func (r *recordingLogger) Fatalf(format string, args ...any) {
	r.failed = true
	r.msg = format
	_ = args
}

func TestPredicates(t *testing.T) {
	if !InternalImportForbidden("soacore/internal/core") {
		t.Fatalf("expected internal path to match")
	}
	if InternalImportForbidden("soacore/pkg/soa") {
		t.Fatalf("expected public path not to match")
	}
	if !StorageImportForbidden("soacore/internal/persistence/sqlite") {
		t.Fatalf("expected persistence path to match")
	}
	if !StorageImportForbidden("soacore/internal/docstore") {
		t.Fatalf("expected docstore path to match")
	}
	if StorageImportForbidden("soacore/internal/core") {
		t.Fatalf("expected core path not to match")
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	src := `package sample

import (
	"fmt"

	"soacore/internal/persistence/sqlite"
)

var _ = fmt.Sprintf
var _ = sqlite.Open
`
	if err := os.WriteFile(filepath.Join(dir, "sample.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	// test files are skipped
	if err := os.WriteFile(filepath.Join(dir, "sample_test.go"), []byte("package sample\n\nimport _ \"soacore/internal/docstore\"\n"), 0o644); err != nil {
		t.Fatalf("write sample test: %v", err)
	}

	viols, err := directImportViolations(dir, StorageImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "soacore/internal/persistence/sqlite") {
		t.Fatalf("unexpected violations %v", viols)
	}
}

func TestAssertNoDirectImportsFails(t *testing.T) {
	dir := t.TempDir()
	src := "package sample\n\nimport _ \"soacore/internal/docstore\"\n"
	if err := os.WriteFile(filepath.Join(dir, "sample.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	logger := &recordingLogger{}
	viols, err := directImportViolations(dir, StorageImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	failIfViolations(logger, "core stays storage-agnostic", viols)
	if !logger.failed {
		t.Fatalf("expected guard to report a violation")
	}
}

func TestTransitiveDependencyViolationsUsesStub(t *testing.T) {
	prev := goListDeps
	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nsoacore/internal/docstore\nsoacore/pkg/soa\n"), nil
	}
	defer func() { goListDeps = prev }()

	viols, _, err := transitiveDependencyViolations("./...", StorageImportForbidden)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(viols) != 1 || viols[0] != "soacore/internal/docstore" {
		t.Fatalf("unexpected violations %v", viols)
	}
}
