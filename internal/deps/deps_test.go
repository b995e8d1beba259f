package deps

import (
	"testing"

	"clive/internal/config"
	"clive/internal/testsupport"
)

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Missing", Command: "definitely-not-installed-binary"},
		{Name: "Unconfigured", Command: "   "},
		{Name: "Shell", Command: "sh"},
	})
	if len(statuses) != 3 {
		t.Fatalf("statuses = %d, want 3", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("missing binary reported available")
	}
	if statuses[1].Available || statuses[1].Detail != "command not configured" {
		t.Fatalf("unconfigured status = %+v", statuses[1])
	}
	if !statuses[2].Available {
		t.Skipf("sh not on PATH: %s", statuses[2].Detail)
	}
	if statuses[2].Command == "sh" {
		t.Fatal("expected resolved absolute path for available binary")
	}
}

func TestRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Binary = "my-whisper"
	requirements := Requirements(&cfg)
	if len(requirements) != 3 {
		t.Fatalf("requirements = %d, want 3", len(requirements))
	}
	if requirements[2].Command != "my-whisper" {
		t.Fatalf("whisper command = %q", requirements[2].Command)
	}
}

func TestCheckBinariesFindsStubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	statuses := CheckBinaries(Requirements(cfg))
	if missing := MissingRequired(statuses); len(missing) != 0 {
		t.Fatalf("missing = %v", missing)
	}
}

func TestMissingRequired(t *testing.T) {
	statuses := []Status{
		{Name: "A", Available: true},
		{Name: "B", Available: false},
		{Name: "C", Available: false, Optional: true},
	}
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0] != "B" {
		t.Fatalf("missing = %v", missing)
	}
}
