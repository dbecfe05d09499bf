package bdoc

import (
	"errors"
	"math"
	"testing"
	"time"
)

// ============================================================
// Document Tests
// ============================================================

func TestDocument_SetAppendsInOrder(t *testing.T) {
	d := NewDocument().
		Set("name", String("bob")).
		Set("age", Int32(21)).
		Set("dbl", Double(3.14159))

	got := d.Keys()
	want := []string{"name", "age", "dbl"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Key %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDocument_OverwriteKeepsPosition(t *testing.T) {
	d := NewDocument().
		Set("a", Int32(1)).
		Set("b", Int32(2)).
		Set("c", Int32(3))
	d.Set("a", String("again"))

	if d.Len() != 3 {
		t.Fatalf("Expected 3 fields, got %d", d.Len())
	}
	if keys := d.Keys(); keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Order changed after overwrite: %v", keys)
	}
	v, ok := d.Get("a")
	if !ok {
		t.Fatal("Expected field a")
	}
	if s, err := v.AsString(); err != nil || s != "again" {
		t.Errorf("Expected overwritten value, got %v (%v)", s, err)
	}
}

func TestDocument_GetMissing(t *testing.T) {
	d := NewDocument().Set("x", Null())

	if _, ok := d.Get("y"); ok {
		t.Error("Expected missing field to report false")
	}
	_, err := d.Lookup("y")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := d.Lookup("x"); err != nil {
		t.Errorf("Lookup of present field failed: %v", err)
	}
}

func TestDocument_Delete(t *testing.T) {
	d := NewDocument().
		Set("a", Int32(1)).
		Set("b", Int32(2)).
		Set("c", Int32(3))

	if !d.Delete("b") {
		t.Fatal("Expected Delete to report true")
	}
	if d.Delete("b") {
		t.Error("Second Delete should report false")
	}
	v, ok := d.Get("c")
	if !ok {
		t.Fatal("Field c lost after delete")
	}
	if n, _ := v.AsInt32(); n != 3 {
		t.Errorf("Expected c=3, got %d", n)
	}
	d.Set("b", Int32(4))
	if keys := d.Keys(); keys[2] != "b" {
		t.Errorf("Re-inserted field should append, got %v", keys)
	}
}

func TestDocument_SetCopiesValue(t *testing.T) {
	inner := NewDocument().Set("k", Int32(1))
	outer := NewDocument().Set("inner", Doc(inner))

	inner.Set("k", Int32(2))

	v, _ := outer.Get("inner")
	got, _ := v.AsDocument()
	k, _ := got.Get("k")
	if n, _ := k.AsInt32(); n != 1 {
		t.Errorf("Nested document was shared with caller: k=%d", n)
	}
}

func TestDocument_SelfInsertIsNotCyclic(t *testing.T) {
	d := NewDocument().Set("a", Int32(1))
	d.Set("self", Doc(d))
	d.Set("self2", Doc(d))

	lines := 0
	for range Walk(d, 0) {
		lines++
		if lines > 100 {
			t.Fatal("Walk did not terminate")
		}
	}
	// a, self, self.a, self2, self2.a, self2.self, self2.self.a
	if lines != 7 {
		t.Errorf("Expected 7 lines, got %d", lines)
	}
}

// ============================================================
// Value Tests
// ============================================================

func TestValue_Accessors(t *testing.T) {
	if b, err := Bool(true).AsBool(); err != nil || !b {
		t.Errorf("AsBool: %v %v", b, err)
	}
	if n, err := Int32(-7).AsInt32(); err != nil || n != -7 {
		t.Errorf("AsInt32: %v %v", n, err)
	}
	if n, err := Int64(math.MaxInt64).AsInt64(); err != nil || n != math.MaxInt64 {
		t.Errorf("AsInt64: %v %v", n, err)
	}
	if f, err := Double(2.5).AsDouble(); err != nil || f != 2.5 {
		t.Errorf("AsDouble: %v %v", f, err)
	}
	if s, err := String("héllo").AsString(); err != nil || s != "héllo" {
		t.Errorf("AsString: %v %v", s, err)
	}
	if d, err := DecimalValue(MustDecimal("1.50")).AsDecimal(); err != nil || d.String() != "1.50" {
		t.Errorf("AsDecimal: %v %v", d, err)
	}
	if b, err := Binary([]byte{1, 2}).AsBinary(); err != nil || len(b) != 2 {
		t.Errorf("AsBinary: %v %v", b, err)
	}
	if _, err := Int32(1).AsString(); err == nil {
		t.Error("Expected kind mismatch error")
	}
}

func TestValue_TimeTruncatesToMillis(t *testing.T) {
	ts := time.Date(2022, 8, 25, 21, 18, 19, 912_345_678, time.FixedZone("X", 3600))
	v := Time(ts)

	ms, err := v.AsDateTime()
	if err != nil {
		t.Fatal(err)
	}
	if ms != ts.UnixMilli() {
		t.Errorf("Expected %d, got %d", ts.UnixMilli(), ms)
	}
	back, _ := v.AsTime()
	if back.Location() != time.UTC {
		t.Errorf("Expected UTC, got %v", back.Location())
	}
	if !back.Equal(ts.Truncate(time.Millisecond)) {
		t.Errorf("Expected %v, got %v", ts.Truncate(time.Millisecond), back)
	}
}

func TestValue_Index(t *testing.T) {
	arr := Array(Int32(1), String("foo"))
	if arr.Len() != 2 {
		t.Fatalf("Expected len 2, got %d", arr.Len())
	}
	v, err := arr.Index(1)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := v.AsString(); s != "foo" {
		t.Errorf("Expected foo, got %q", s)
	}
	if _, err := arr.Index(2); err == nil {
		t.Error("Expected out of bounds error")
	}
	if _, err := Int32(1).Index(0); err == nil {
		t.Error("Expected not-an-array error")
	}
}

func TestValue_ZeroIsInvalid(t *testing.T) {
	var v Value
	if v.Kind() != KindInvalid {
		t.Errorf("Expected KindInvalid, got %s", v.Kind())
	}
	if v.Kind().Valid() {
		t.Error("KindInvalid must not be valid")
	}
}

// ============================================================
// Equality Tests
// ============================================================

func TestEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"null", Null(), Null(), true},
		{"int32 vs int64", Int32(1), Int64(1), false},
		{"double bits", Double(0), Double(math.Copysign(0, -1)), false},
		{"nan", Double(math.NaN()), Double(math.NaN()), true},
		{"decimal scale", DecimalValue(MustDecimal("107.78")), DecimalValue(MustDecimal("107.780")), false},
		{"decimal same", DecimalValue(MustDecimal("107.78")), DecimalValue(MustDecimal("107.78")), true},
		{"binary", Binary([]byte("ab")), Binary([]byte("ab")), true},
		{"binary differs", Binary([]byte("ab")), Binary([]byte("ac")), false},
		{"empty binary vs nil", Binary(nil), Binary([]byte{}), true},
		{"array order", Array(Int32(1), Int32(2)), Array(Int32(2), Int32(1)), false},
		{"array len", Array(Int32(1)), Array(Int32(1), Int32(1)), false},
		{
			"doc order",
			Doc(NewDocument().Set("a", Null()).Set("b", Null())),
			Doc(NewDocument().Set("b", Null()).Set("a", Null())),
			false,
		},
		{
			"nested",
			Array(Doc(NewDocument().Set("x", Array(Int32(1))))),
			Array(Doc(NewDocument().Set("x", Array(Int32(1))))),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal = %v, want %v", got, tt.equal)
			}
		})
	}
}
