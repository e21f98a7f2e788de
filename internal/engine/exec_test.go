package engine

import (
	"testing"

	"github.com/GoldaRizki/sawitdb/internal/storage/pager"
)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	p, err := pager.Open(t.TempDir()+"/exec.sawit", pager.Config{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return NewExecutor(p)
}

func kebunRow(id int64, bibit string, umur int64) *pager.Record {
	return pager.NewRecord(
		pager.Field{Name: "id", Value: pager.IntValue(id)},
		pager.Field{Name: "bibit", Value: pager.StringValue(bibit)},
		pager.Field{Name: "umur", Value: pager.IntValue(umur)},
	)
}

func TestExecutor_CreateInsertSelectAll(t *testing.T) {
	ex := newExecutor(t)
	if err := ex.ExecuteCreateTable(CreateTable{Name: "kebun"}); err != nil {
		t.Fatal(err)
	}
	rows := []*pager.Record{
		kebunRow(1, "Dura", 5),
		kebunRow(2, "Tenera", 3),
		kebunRow(3, "Pisifera", 8),
	}
	for _, r := range rows {
		if err := ex.ExecuteInsert(Insert{Table: "kebun", Data: r}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ex.ExecuteSelect(Select{Table: "kebun"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i, r := range got {
		want := rows[i].Clone()
		want.Set("_id", pager.IntValue(int64(i)))
		if !r.EqualByValue(want) {
			t.Fatalf("row %d mismatch: got %+v, want %+v", i, r, want)
		}
	}
}

func TestExecutor_SelectWithCriteria(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(1, "Dura", 5)})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(2, "Tenera", 3)})

	c := Leaf("id", OpEq, pager.IntValue(1))
	got, err := ex.ExecuteSelect(Select{Table: "kebun", Criteria: &c})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if v, _ := got[0].Get("bibit"); v.S != "Dura" {
		t.Fatalf("got bibit=%q", v.S)
	}
}

func TestExecutor_Update(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(1, "Dura", 5)})

	c := Leaf("id", OpEq, pager.IntValue(1))
	n, err := ex.ExecuteUpdate(Update{
		Table:    "kebun",
		Updates:  map[string]pager.Value{"umur": pager.IntValue(6)},
		Criteria: &c,
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row updated, got %d", n)
	}

	got, err := ex.ExecuteSelect(Select{Table: "kebun", Criteria: &c})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got[0].Get("umur"); v.I != 6 {
		t.Fatalf("expected umur=6, got %d", v.I)
	}
}

func TestExecutor_CreateIndexAndEqualityLookup(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(1, "Dura", 5)})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(2, "Tenera", 3)})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(3, "Dura", 8)})

	if err := ex.ExecuteCreateIndex(CreateIndex{Table: "kebun", Column: "bibit"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := ex.indexes[indexKey("kebun", "bibit")]; !ok {
		t.Fatal("expected the index to be registered in memory")
	}

	c := Leaf("bibit", OpEq, pager.StringValue("Dura"))
	got, err := ex.ExecuteSelect(Select{Table: "kebun", Criteria: &c})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 Dura rows via the index path, got %d", len(got))
	}
}

func TestExecutor_IndexMaintainedOnInsertUpdateDelete(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})
	if err := ex.ExecuteCreateIndex(CreateIndex{Table: "kebun", Column: "bibit"}); err != nil {
		t.Fatal(err)
	}

	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(1, "Dura", 5)})
	ix := ex.indexes[indexKey("kebun", "bibit")]
	if len(ix.Lookup(pager.StringValue("Dura"))) != 1 {
		t.Fatal("expected the index to pick up the new insert")
	}

	c := Leaf("id", OpEq, pager.IntValue(1))
	ex.ExecuteUpdate(Update{Table: "kebun", Updates: map[string]pager.Value{"bibit": pager.StringValue("Tenera")}, Criteria: &c})
	if len(ix.Lookup(pager.StringValue("Dura"))) != 0 {
		t.Fatal("expected Dura bucket to be emptied after the update")
	}
	if len(ix.Lookup(pager.StringValue("Tenera"))) != 1 {
		t.Fatal("expected Tenera bucket to hold the updated row")
	}

	n, err := ex.ExecuteDelete(Delete{Table: "kebun", Criteria: &c})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row deleted, got %d", n)
	}
	if len(ix.Lookup(pager.StringValue("Tenera"))) != 0 {
		t.Fatal("expected Tenera bucket to be emptied after delete")
	}
}

func TestExecutor_DeleteAndAggregateSum(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(1, "Dura", 6)})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(2, "Tenera", 3)})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(3, "Pisifera", 8)})

	c := Leaf("id", OpEq, pager.IntValue(3))
	if _, err := ex.ExecuteDelete(Delete{Table: "kebun", Criteria: &c}); err != nil {
		t.Fatal(err)
	}

	rows, err := ex.ExecuteSelect(Select{Table: "kebun"})
	if err != nil {
		t.Fatal(err)
	}
	var sum int64
	for _, r := range rows {
		v, _ := r.Get("umur")
		sum += v.I
	}
	if sum != 9 {
		t.Fatalf("expected sum(umur) = 9, got %d", sum)
	}
}

func TestExecutor_EventsEmittedOnMutation(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})

	var events []Event
	ex.Subscribe(func(ev Event) { events = append(events, ev) })

	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(1, "Dura", 5)})
	c := Leaf("id", OpEq, pager.IntValue(1))
	ex.ExecuteUpdate(Update{Table: "kebun", Updates: map[string]pager.Value{"umur": pager.IntValue(6)}, Criteria: &c})
	ex.ExecuteDelete(Delete{Table: "kebun", Criteria: &c})

	if len(events) != 3 {
		t.Fatalf("expected 3 events (insert/update/delete), got %d", len(events))
	}
	if events[0].Type != OnTableInserted || events[1].Type != OnTableUpdated || events[2].Type != OnTableDeleted {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
}

func TestExecutor_SelectProjectsColumns(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})
	ex.ExecuteInsert(Insert{Table: "kebun", Data: kebunRow(1, "Dura", 5)})

	got, err := ex.ExecuteSelect(Select{Table: "kebun", Cols: []string{"bibit"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got[0].Fields) != 1 {
		t.Fatalf("expected projection to 1 column, got %d fields", len(got[0].Fields))
	}
	if v, ok := got[0].Get("bibit"); !ok || v.S != "Dura" {
		t.Fatalf("expected bibit=Dura, got %+v ok=%v", v, ok)
	}
	if _, ok := got[0].Get("umur"); ok {
		t.Fatal("umur should have been projected out")
	}
}

func TestExecutor_DropTableClearsItsIndexes(t *testing.T) {
	ex := newExecutor(t)
	ex.ExecuteCreateTable(CreateTable{Name: "kebun"})
	ex.ExecuteCreateIndex(CreateIndex{Table: "kebun", Column: "bibit"})

	if err := ex.ExecuteDropTable(DropTable{Name: "kebun"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := ex.indexes[indexKey("kebun", "bibit")]; ok {
		t.Fatal("expected the index registry entry to be dropped with its table")
	}
}
