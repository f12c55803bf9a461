package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-portal/internal/models"
)

func TestWriteStaff(t *testing.T) {
	added := time.Date(2026, 9, 1, 23, 30, 0, 0, time.UTC)
	staff := []models.StaffEntry{
		{Name: "Mona", JobTitle: "معلمة", NationalID: "0290010112345", CodeNumber: "7", Whatsapp: "01001234567", Role: "teacher", CreatedAt: &added},
		{Name: "Omar", JobTitle: "وكيل", NationalID: "29001011234568", Role: "staff"},
	}

	var buf bytes.Buffer
	if err := WriteStaff(&buf, staff, time.FixedZone("EET", 2*3600)); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(staffSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "الاسم" || len(rows[0]) != len(staffHeader) {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][2] != "0290010112345" {
		t.Fatalf("national id must keep leading zero, got %q", rows[1][2])
	}
	if rows[1][7] != "2026-09-02" {
		t.Fatalf("date must be in the given zone, got %q", rows[1][7])
	}
	if rows[2][0] != "Omar" {
		t.Fatalf("order not kept: %v", rows[2])
	}
}

func TestStaffFilename(t *testing.T) {
	got := StaffFilename(`  Al/Noor  School `, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if got != "staff - Al_Noor School - 2026-09-01.xlsx" {
		t.Fatalf("got %q", got)
	}
	if got := StaffFilename("", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)); got != "staff - - - 2026-09-01.xlsx" {
		t.Fatalf("got %q", got)
	}
}

func TestColumnName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"} {
		if got := columnName(n); got != want {
			t.Fatalf("%d: got %q want %q", n, got, want)
		}
	}
}
