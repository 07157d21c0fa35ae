package ledger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/xetrapulse/internal/domain/models"
	"github.com/guttosm/xetrapulse/internal/objectstore"
)

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// failingStore returns err from every call.
type failingStore struct{ err error }

func (f failingStore) List(context.Context, string) ([]string, error) { return nil, f.err }
func (f failingStore) Get(context.Context, string) ([]byte, error)    { return nil, f.err }
func (f failingStore) Put(context.Context, string, []byte) error      { return f.err }

func TestRead_AbsentWhenObjectMissing(t *testing.T) {
	l, err := Read(context.Background(), objectstore.NewMemory(), DefaultKey)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if l.Found {
		t.Fatal("expected absent ledger")
	}
}

func TestRead_StorageErrorIsNotAbsent(t *testing.T) {
	boom := errors.New("access denied")
	_, err := Read(context.Background(), failingStore{err: boom}, DefaultKey)
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestRead_TableDriven(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		wantErr     bool
		wantEntries int
	}{
		{name: "header only", body: "source_date,datetime_of_processing\n", wantEntries: 0},
		{name: "two rows", body: "source_date,datetime_of_processing\n2022-12-26,2022-12-28\n2022-12-27,2022-12-28\n", wantEntries: 2},
		{name: "reordered columns and extra column", body: "datetime_of_processing,x,source_date\n2022-12-28,1,2022-12-26\n", wantEntries: 1},
		{name: "processing time with clock", body: "source_date,datetime_of_processing\n2022-12-26,2022-12-28 10:15:00\n", wantEntries: 1},
		{name: "bom before header", body: "\ufeffsource_date,datetime_of_processing\n2022-12-26,2022-12-28\n", wantEntries: 1},
		{name: "empty object", body: "", wantErr: true},
		{name: "wrong header", body: "date,processed\n2022-12-26,2022-12-28\n", wantErr: true},
		{name: "bad date", body: "source_date,datetime_of_processing\n26.12.2022,2022-12-28\n", wantErr: true},
		{name: "short row", body: "source_date,datetime_of_processing\n2022-12-26\n", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := objectstore.NewMemory()
			_ = store.Put(context.Background(), DefaultKey, []byte(tc.body))
			l, err := Read(context.Background(), store, DefaultKey)
			if tc.wantErr {
				if !errors.Is(err, ErrCorrupt) {
					t.Fatalf("expected ErrCorrupt, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !l.Found {
				t.Fatal("expected found ledger")
			}
			if len(l.Entries) != tc.wantEntries {
				t.Fatalf("entries: want %d got %d", tc.wantEntries, len(l.Entries))
			}
		})
	}
}

func TestUpdate_AppendsWithSharedTimestamp(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemory()
	current := models.Ledger{Found: true, Entries: []models.LedgerEntry{
		{SourceDate: day("2022-12-27"), ProcessedAt: day("2022-12-27")},
		{SourceDate: day("2022-12-27"), ProcessedAt: day("2022-12-28")},
	}}
	processedAt := time.Date(2022, 12, 29, 18, 45, 0, 0, time.UTC)

	if err := Update(ctx, store, DefaultKey, current, []time.Time{day("2022-12-27"), day("2022-12-28")}, processedAt); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := Read(ctx, store, DefaultKey)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := []struct{ src, proc string }{
		{"2022-12-27", "2022-12-27"},
		{"2022-12-27", "2022-12-28"},
		{"2022-12-27", "2022-12-29"},
		{"2022-12-28", "2022-12-29"},
	}
	if len(got.Entries) != len(want) {
		t.Fatalf("entries: want %d got %d", len(want), len(got.Entries))
	}
	for i, w := range want {
		e := got.Entries[i]
		if e.SourceDate.Format(models.DateLayout) != w.src || e.ProcessedAt.Format(models.DateLayout) != w.proc {
			t.Fatalf("entry %d: want %v got %s,%s", i, w, e.SourceDate.Format(models.DateLayout), e.ProcessedAt.Format(models.DateLayout))
		}
	}
}

func TestUpdate_FirstRunCreatesLedger(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemory()
	if err := Update(ctx, store, DefaultKey, models.AbsentLedger(), []time.Time{day("2022-12-27")}, day("2022-12-28")); err != nil {
		t.Fatalf("update: %v", err)
	}
	body, err := store.Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := "source_date,datetime_of_processing\n2022-12-27,2022-12-28\n"
	if string(body) != want {
		t.Fatalf("body: want %q got %q", want, body)
	}
}

func TestUpdate_NoDatesIsNoWrite(t *testing.T) {
	store := objectstore.NewMemory()
	if err := Update(context.Background(), store, DefaultKey, models.Ledger{Found: true}, nil, day("2022-12-28")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.Puts() != 0 {
		t.Fatalf("expected no writes, got %d", store.Puts())
	}
}

func TestUpdate_PutErrorPropagates(t *testing.T) {
	boom := errors.New("throttled")
	err := Update(context.Background(), failingStore{err: boom}, DefaultKey, models.AbsentLedger(), []time.Time{day("2022-12-27")}, day("2022-12-28"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected put error, got %v", err)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := []models.LedgerEntry{
		{SourceDate: day("2022-12-26"), ProcessedAt: day("2022-12-28")},
		{SourceDate: day("2022-12-26"), ProcessedAt: day("2022-12-29")},
	}
	var buf bytes.Buffer
	if err := Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "source_date,datetime_of_processing\n") {
		t.Fatalf("missing header: %q", buf.String())
	}
	out, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("want %d got %d", len(in), len(out))
	}
	for i := range in {
		if !out[i].SourceDate.Equal(in[i].SourceDate) || !out[i].ProcessedAt.Equal(in[i].ProcessedAt) {
			t.Fatalf("entry %d: want %+v got %+v", i, in[i], out[i])
		}
	}
}
