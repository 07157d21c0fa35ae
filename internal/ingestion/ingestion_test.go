package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
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

func batch(date string, rows ...string) []byte {
	out := xetraHeader
	for _, r := range rows {
		out += fmt.Sprintf("%s,M,D,Common stock,EUR,1,%s,%s\n", r[:4], date, r[5:])
	}
	return []byte(out)
}

// seededStore holds two batches on 2022-12-27 and one on 2022-12-28.
func seededStore(t *testing.T) *objectstore.Memory {
	t.Helper()
	ctx := context.Background()
	m := objectstore.NewMemory()
	objs := map[string][]byte{
		"2022-12-27/2022-12-27_BINS_XETR08.csv": batch("2022-12-27", "AAAA,08:00,1,1,1,1,10,1", "BBBB,08:00,2,2,2,2,20,1"),
		"2022-12-27/2022-12-27_BINS_XETR09.csv": batch("2022-12-27", "AAAA,09:00,3,3,3,3,30,1", "AAAA,09:01,,3,3,3,30,1"),
		"2022-12-28/2022-12-28_BINS_XETR08.csv": batch("2022-12-28", "AAAA,08:00,4,4,4,4,40,1"),
	}
	for k, v := range objs {
		if err := m.Put(ctx, k, v); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
	return m
}

func TestExtract_ReadsAllDatesInOrder(t *testing.T) {
	for _, parallel := range []int{1, 3, 0} {
		t.Run(fmt.Sprintf("parallel=%d", parallel), func(t *testing.T) {
			ex := NewExtractor(seededStore(t), DefaultColumns(), parallel)
			recs, st, err := ex.Extract(context.Background(), []time.Time{day("2022-12-26"), day("2022-12-27"), day("2022-12-28")})
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if st.Objects != 3 || st.Rows != 4 || st.Dropped != 1 {
				t.Fatalf("stats: %+v", st)
			}
			want := []string{"AAAA@2022-12-27 08:00", "BBBB@2022-12-27 08:00", "AAAA@2022-12-27 09:00", "AAAA@2022-12-28 08:00"}
			if len(recs) != len(want) {
				t.Fatalf("records: want %d got %d", len(want), len(recs))
			}
			for i, w := range want {
				got := fmt.Sprintf("%s@%s %s", recs[i].ISIN, recs[i].Date.Format(models.DateLayout), recs[i].Time.Format("15:04"))
				if got != w {
					t.Fatalf("record %d: want %s got %s", i, w, got)
				}
			}
		})
	}
}

func TestExtract_NoDates(t *testing.T) {
	recs, st, err := NewExtractor(objectstore.NewMemory(), DefaultColumns(), 2).Extract(context.Background(), nil)
	if err != nil || len(recs) != 0 || st.Objects != 0 {
		t.Fatalf("want empty extraction, got %d recs, %+v, %v", len(recs), st, err)
	}
}

// vanishingStore lists a key that Get then reports as missing.
type vanishingStore struct {
	*objectstore.Memory
	gets atomic.Int32
}

func (v *vanishingStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := v.Memory.List(ctx, prefix)
	return append(keys, prefix+"/gone.csv"), err
}

func (v *vanishingStore) Get(ctx context.Context, key string) ([]byte, error) {
	v.gets.Add(1)
	return v.Memory.Get(ctx, key)
}

func TestExtract_MissingSourceObjectIsFatal(t *testing.T) {
	store := &vanishingStore{Memory: seededStore(t)}
	_, _, err := NewExtractor(store, DefaultColumns(), 1).Extract(context.Background(), []time.Time{day("2022-12-27")})
	if !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}

type listErrStore struct{ objectstore.Memory }

func (l *listErrStore) List(context.Context, string) ([]string, error) {
	return nil, context.DeadlineExceeded
}

func TestExtract_ListError(t *testing.T) {
	_, _, err := NewExtractor(&listErrStore{}, DefaultColumns(), 1).Extract(context.Background(), []time.Time{day("2022-12-27")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func TestExtract_MalformedBatchIsFatal(t *testing.T) {
	m := objectstore.NewMemory()
	_ = m.Put(context.Background(), "2022-12-27/bad.csv", []byte("ISIN,Date\nX,2022-12-27\n"))
	_, _, err := NewExtractor(m, DefaultColumns(), 2).Extract(context.Background(), []time.Time{day("2022-12-27")})
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestMaxParallel(t *testing.T) {
	if got := NewExtractor(nil, DefaultColumns(), 100).maxParallel(); got != maxParallelCap {
		t.Fatalf("want cap %d got %d", maxParallelCap, got)
	}
	if got := NewExtractor(nil, DefaultColumns(), 3).maxParallel(); got != 3 {
		t.Fatalf("want 3 got %d", got)
	}
	if got := NewExtractor(nil, DefaultColumns(), 0).maxParallel(); got < 1 || got > 8 {
		t.Fatalf("auto parallel out of range: %d", got)
	}
}

func TestExtract_NullMarkersAndShortRowsAreDropped(t *testing.T) {
	m := objectstore.NewMemory()
	body := string(batch("2022-12-27", "AAAA,08:00,NaN,1,1,1,10,1", "BBBB,08:00,2,2,2,2,20,1")) + "CCCC,M,D\n"
	_ = m.Put(context.Background(), "2022-12-27/2022-12-27_BINS_XETR08.csv", []byte(body))

	recs, st, err := NewExtractor(m, DefaultColumns(), 1).Extract(context.Background(), []time.Time{day("2022-12-27")})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(recs) != 1 || recs[0].ISIN != "BBBB" {
		t.Fatalf("records: %+v", recs)
	}
	if st.Rows != 1 || st.Dropped != 2 {
		t.Fatalf("stats: %+v", st)
	}
}
