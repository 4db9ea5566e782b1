package replay

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkhoshkam/powerreplay/event"
	"github.com/mkhoshkam/powerreplay/internal/replayerr"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

const sampleCSV = `# exported 2021-06-26
InitialId,RevisionNo,ActionCode,Side,Price,Quantity,DeliveryStart,DeliveryEnd,TransactionTime,CreationTime,ValidityTime
1,1,A,BUY,50.0,10,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:00:00Z,2021-06-26T10:00:00Z,
2,1,A,SELL,49.0,4,2021-06-26T12:00:00Z,2021-06-26T13:00:00Z,2021-06-26T10:01:00Z,2021-06-26T10:01:00Z,
`

func loadStore(t *testing.T) *event.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	if err := writeFile(path, sampleCSV); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	s := event.New()
	if err := s.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestDriverRunProducesTicksAndTrades(t *testing.T) {
	store := loadStore(t)
	d := NewDriver(store)

	ticks, trades, err := d.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	if len(ticks) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(ticks))
	}
}

func TestDriverRunTwiceReturnsAlreadyRun(t *testing.T) {
	store := loadStore(t)
	d := NewDriver(store)

	if _, _, err := d.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, _, err := d.Run(); !errors.Is(err, replayerr.ErrAlreadyRun) {
		t.Fatalf("expected ErrAlreadyRun on second Run, got %v", err)
	}
}

// Replaying the same log through two independent Drivers must produce
// identical tick and trade streams (determinism, spec §8 property 4).
func TestReplayIsDeterministic(t *testing.T) {
	storeA := loadStore(t)
	storeB := loadStore(t)

	ticksA, tradesA, err := NewDriver(storeA).Run()
	if err != nil {
		t.Fatalf("run A: %v", err)
	}
	ticksB, tradesB, err := NewDriver(storeB).Run()
	if err != nil {
		t.Fatalf("run B: %v", err)
	}

	if len(ticksA) != len(ticksB) || len(tradesA) != len(tradesB) {
		t.Fatalf("mismatched lengths: ticks %d/%d trades %d/%d", len(ticksA), len(ticksB), len(tradesA), len(tradesB))
	}
	for i := range ticksA {
		if !ticksA[i].Equal(ticksB[i].TopOfBook) || !ticksA[i].Time.Equal(ticksB[i].Time) {
			t.Fatalf("tick %d differs: %+v vs %+v", i, ticksA[i], ticksB[i])
		}
	}
	for i := range tradesA {
		if tradesA[i].Quantity != tradesB[i].Quantity || !tradesA[i].Price.Equal(tradesB[i].Price) {
			t.Fatalf("trade %d differs: %+v vs %+v", i, tradesA[i], tradesB[i])
		}
	}
}
