package event

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkhoshkam/powerreplay/internal/replayerr"
)

const sampleCSV = `# exported 2021-06-26
InitialId,RevisionNo,ActionCode,Side,Price,Quantity,DeliveryStart,DeliveryEnd,TransactionTime,CreationTime,ValidityTime
1,1,A,BUY,50.0,10,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:00:00Z,2021-06-26T10:00:00Z,2021-06-27T00:00:00Z
2,1,A,SELL,49.0,4,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:01:00Z,2021-06-26T10:01:00Z,2021-06-27T00:00:00Z
`

func loadString(t *testing.T, csvText string) *Store {
	t.Helper()
	s := New()
	if err := s.load(strings.NewReader(csvText)); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestLoadSortsByTransactionTimeThenRevision(t *testing.T) {
	// Rows are out of order; ids 1 rev 1 and 1 rev 2 share a TransactionTime.
	csvText := `# comment
InitialId,RevisionNo,ActionCode,Side,Price,Quantity,DeliveryStart,DeliveryEnd,TransactionTime,CreationTime,ValidityTime
2,1,A,SELL,49.0,4,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:01:00Z,2021-06-26T10:01:00Z,
1,2,M,BUY,50.0,6,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:00:00Z,2021-06-26T10:00:00Z,
1,1,A,BUY,50.0,10,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:00:00Z,2021-06-26T10:00:00Z,
`
	s := loadString(t, csvText)
	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].InitialID != 1 || events[0].RevisionNo != 1 ||
		events[1].InitialID != 1 || events[1].RevisionNo != 2 ||
		events[2].InitialID != 2 {
		t.Errorf("expected events sorted by TransactionTime then RevisionNo, got %+v", events)
	}
}

func TestLoadParsesTimesAsUTC(t *testing.T) {
	s := loadString(t, sampleCSV)
	want := time.Date(2021, 6, 26, 10, 0, 0, 0, time.UTC)
	if !s.Events()[0].TransactionTime.Equal(want) {
		t.Errorf("expected TransactionTime %v, got %v", want, s.Events()[0].TransactionTime)
	}
}

func TestLoadMissingRequiredColumn(t *testing.T) {
	bad := `# comment
InitialId,RevisionNo,ActionCode,Side,Price,DeliveryStart,DeliveryEnd,TransactionTime,CreationTime,ValidityTime
1,1,A,BUY,50.0,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:00:00Z,2021-06-26T10:00:00Z,
`
	s := New()
	err := s.load(strings.NewReader(bad))
	if err == nil {
		t.Fatal("expected error for missing Quantity column")
	}
	var merr *replayerr.MalformedInputError
	if !errors.As(err, &merr) || merr.Column != "Quantity" {
		t.Errorf("expected MalformedInputError for column Quantity, got %v", err)
	}
}

func TestLoadEmptyLog(t *testing.T) {
	empty := `# comment
InitialId,RevisionNo,ActionCode,Side,Price,Quantity,DeliveryStart,DeliveryEnd,TransactionTime,CreationTime,ValidityTime
`
	s := New()
	err := s.load(strings.NewReader(empty))
	if !errors.Is(err, replayerr.ErrEmptyLog) {
		t.Errorf("expected ErrEmptyLog, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	csvText := `# comment
InitialId,RevisionNo,ActionCode,Side,Price,Quantity,DeliveryStart,DeliveryEnd,TransactionTime,CreationTime,ValidityTime
1,1,A,BUY,50.0,10,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:00:00Z,2021-06-26T10:00:00Z,
1,2,M,BUY,50.0,6,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:05:00Z,2021-06-26T10:05:00Z,
2,1,D,BUY,50.0,0,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:06:00Z,2021-06-26T10:06:00Z,
`
	s := loadString(t, csvText)

	before := s.Snapshot(time.Date(2021, 6, 26, 9, 0, 0, 0, time.UTC))
	if len(before) != 0 {
		t.Errorf("expected empty snapshot before first event, got %d orders", len(before))
	}

	mid := s.Snapshot(time.Date(2021, 6, 26, 10, 3, 0, 0, time.UTC))
	if len(mid) != 1 || mid[0].Quantity != 10 {
		t.Fatalf("expected one order with qty 10, got %+v", mid)
	}

	after := s.Snapshot(time.Date(2021, 6, 26, 10, 10, 0, 0, time.UTC))
	if len(after) != 1 || after[0].Quantity != 6 {
		t.Fatalf("expected one order with qty 6 (modified), got %+v", after)
	}
}
