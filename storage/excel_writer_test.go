package storage

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"nhatot-market/models"
)

func TestCleanSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Giá theo quận", "Giá theo quận"},
		{"a/b\\c?d*e[f]g", "a-b-c-d-e-f-g"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}

	for _, tt := range tests {
		if got := CleanSheetName(tt.in); got != tt.want {
			t.Errorf("CleanSheetName(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanSheetNameMultibyteBoundary(t *testing.T) {
	// 29 ASCII chars followed by Vietnamese text: the 31-char cut falls
	// inside the multibyte tail and must not split a rune.
	in := strings.Repeat("x", 29) + "ậcôn dài quá"

	got := CleanSheetName(in)
	if !utf8.ValidString(got) {
		t.Fatalf("CleanSheetName produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 31 {
		t.Errorf("rune count: got %d, want 31", n)
	}
	if !strings.HasSuffix(got, "ậc") {
		t.Errorf("truncation boundary: got %q", got)
	}
}

func TestPersistSanitizesSheetName(t *testing.T) {
	store, dir := newTestStore(t, false)

	stored, paths, err := store.Persist("hanoi[2024]", []*models.Listing{
		sampleListing("https://www.nhatot.com/a"),
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored rows: got %d, want 1", len(stored))
	}
	if paths.XLSX == "" {
		t.Fatal("expected an xlsx artifact path")
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "hanoi[2024].xlsx"))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "hanoi-2024-" {
		t.Errorf("sheet names: got %v, want [hanoi-2024-]", sheets)
	}
}
