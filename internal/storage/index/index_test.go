package index

import (
	"testing"

	"github.com/GoldaRizki/sawitdb/internal/storage/heap"
	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

func openHeapWithRows(t *testing.T) (*pager.Pager, *heap.Heap, []pager.RowID) {
	t.Helper()
	p, err := pager.Open(t.TempDir()+"/idx.sawit", pager.Config{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	head, err := p.CreateTable("kebun", false)
	if err != nil {
		t.Fatal(err)
	}
	h := heap.Open(p, head)

	var ids []pager.RowID
	for i, bibit := range []string{"Dura", "Tenera", "Dura"} {
		rec := pager.NewRecord(
			pager.Field{Name: "id", Value: pager.IntValue(int64(i))},
			pager.Field{Name: "bibit", Value: pager.StringValue(bibit)},
		)
		id, err := h.Insert(rec)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	return p, h, ids
}

func TestBuildFromScan_GroupsByValue(t *testing.T) {
	_, h, ids := openHeapWithRows(t)
	ix, err := BuildFromScan(h, "kebun", "bibit")
	if err != nil {
		t.Fatal(err)
	}
	duras := ix.Lookup(pager.StringValue("Dura"))
	if len(duras) != 2 {
		t.Fatalf("expected 2 Dura rows, got %d", len(duras))
	}
	if duras[0] != ids[0] || duras[1] != ids[2] {
		t.Fatalf("unexpected Dura RowIDs: %v", duras)
	}
	tenera := ix.Lookup(pager.StringValue("Tenera"))
	if len(tenera) != 1 || tenera[0] != ids[1] {
		t.Fatalf("unexpected Tenera RowIDs: %v", tenera)
	}
}

func TestIndex_AddRemoveMove(t *testing.T) {
	ix := New("kebun", "bibit")
	id := pager.RowID{Page: 1, Slot: 0}
	ix.Add(pager.StringValue("Dura"), id)
	if got := ix.Lookup(pager.StringValue("Dura")); len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}

	ix.Move(pager.StringValue("Dura"), pager.StringValue("Tenera"), id)
	if got := ix.Lookup(pager.StringValue("Dura")); len(got) != 0 {
		t.Fatal("expected Dura bucket to be empty after Move")
	}
	if got := ix.Lookup(pager.StringValue("Tenera")); len(got) != 1 {
		t.Fatal("expected Tenera bucket to hold the moved id")
	}

	ix.Remove(pager.StringValue("Tenera"), id)
	if got := ix.Lookup(pager.StringValue("Tenera")); len(got) != 0 {
		t.Fatal("expected Tenera bucket to be empty after Remove")
	}
}

func TestIndex_DistinguishesValueKindNotJustString(t *testing.T) {
	ix := New("t", "c")
	id1 := pager.RowID{Page: 1, Slot: 0}
	id2 := pager.RowID{Page: 2, Slot: 0}
	ix.Add(pager.StringValue("1"), id1)
	ix.Add(pager.IntValue(1), id2)

	if got := ix.Lookup(pager.StringValue("1")); len(got) != 1 || got[0] != id1 {
		t.Fatalf("string key collided with int key: %v", got)
	}
	if got := ix.Lookup(pager.IntValue(1)); len(got) != 1 || got[0] != id2 {
		t.Fatalf("int key collided with string key: %v", got)
	}
}

func TestIndex_EncodeDecodeRoundTrip(t *testing.T) {
	_, h, _ := openHeapWithRows(t)
	ix, err := BuildFromScan(h, "kebun", "bibit")
	if err != nil {
		t.Fatal(err)
	}
	rec := ix.Encode()
	decoded, err := Decode(rec)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Table != ix.Table || decoded.Column != ix.Column {
		t.Fatalf("table/column mismatch: got %s.%s, want %s.%s", decoded.Table, decoded.Column, ix.Table, ix.Column)
	}
	if decoded.Size() != ix.Size() {
		t.Fatalf("expected %d distinct values, got %d", ix.Size(), decoded.Size())
	}
	if got := decoded.Lookup(pager.StringValue("Dura")); len(got) != 2 {
		t.Fatalf("expected 2 Dura rows after round-trip, got %d", len(got))
	}
}
