package alias

import "testing"

func TestTable_Normalize(t *testing.T) {
	table := NewTable()
	if err := table.Set(SourceUnderstat, EntityPlayer, "Alisson", "Alisson Becker"); err != nil {
		t.Fatalf("set alias: %v", err)
	}
	if err := table.Set(SourceUnderstat, EntityTeam, "Manchester City", "Man City"); err != nil {
		t.Fatalf("set alias: %v", err)
	}

	if got := table.Normalize(SourceUnderstat, EntityPlayer, " Alisson "); got != "Alisson Becker" {
		t.Fatalf("expected alias hit, got %q", got)
	}
	if got := table.Normalize(SourceFBref, EntityPlayer, "Alisson"); got != "Alisson" {
		t.Fatalf("aliases are per source, got %q", got)
	}
	if got := table.Normalize(SourceUnderstat, EntityPlayer, "Manchester City"); got != "Manchester City" {
		t.Fatalf("aliases are per entity, got %q", got)
	}
	if got := table.Normalize(SourceUnderstat, EntityPlayer, "Bukayo Saka"); got != "Bukayo Saka" {
		t.Fatalf("unlisted name must pass through, got %q", got)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", table.Len())
	}
}

func TestTable_SetRejectsBlankNames(t *testing.T) {
	if err := NewTable().Set(SourceFBref, EntityTeam, " ", "Spurs"); err == nil {
		t.Fatalf("expected error for blank alias")
	}
}

func TestTable_NilPassesThrough(t *testing.T) {
	var table *Table
	if got := table.Normalize(SourceFPL, EntityTeam, "Arsenal "); got != "Arsenal" {
		t.Fatalf("unexpected %q", got)
	}
}
