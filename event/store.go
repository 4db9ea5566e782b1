package event

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkhoshkam/powerreplay/internal/replayerr"
)

// requiredColumns are the load-time contract (spec §6). Every other column
// present in the header is retained as a passthrough string where this
// package has a named slot for it (ExecutionRestriction, BlockVolume,
// ProductClass); anything else is ignored.
var requiredColumns = []string{
	"InitialId", "RevisionNo", "ActionCode", "Side", "Price", "Quantity",
	"DeliveryStart", "DeliveryEnd", "TransactionTime", "CreationTime", "ValidityTime",
}

// timeLayouts are tried in order when parsing a timestamp column. Naive
// values (no offset) are interpreted as UTC, per spec §4.1.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseUTC(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}

// Store loads, types, and sorts the raw event log and answers point-in-time
// snapshot queries. It is read-only once Load succeeds.
type Store struct {
	events []Event

	minTxTime time.Time
	maxTxTime time.Time
	products  []time.Time
	windows   map[time.Time][2]time.Time
}

// New returns an empty, unloaded Store.
func New() *Store {
	return &Store{}
}

// Load reads path, skipping one leading comment line, then a header row,
// and types every required column. Time columns are parsed to UTC instants.
// Passthrough columns retain their original string values. Events are
// sorted stably by (TransactionTime, RevisionNo) ascending.
//
// Returns *replayerr.MalformedInputError when a required column is missing
// or a value fails to parse, or replayerr.ErrEmptyLog when zero events
// remain after parsing.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &replayerr.MalformedInputError{Column: "", Row: -1, Err: err}
	}
	defer f.Close()
	return s.load(f)
}

func (s *Store) load(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip the leading comment line.
	if _, err := reader.Read(); err != nil {
		return &replayerr.MalformedInputError{Column: "", Row: -1, Err: fmt.Errorf("reading leading comment line: %w", err)}
	}

	header, err := reader.Read()
	if err != nil {
		return &replayerr.MalformedInputError{Column: "", Row: -1, Err: fmt.Errorf("reading header row: %w", err)}
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return &replayerr.MalformedInputError{Column: name, Row: -1, Err: fmt.Errorf("required column missing from header")}
		}
	}

	optional := map[string]int{}
	for _, name := range []string{"ExecutionRestriction", "BlockVolume", "ProductClass"} {
		if idx, ok := col[name]; ok {
			optional[name] = idx
		}
	}

	var events []Event
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &replayerr.MalformedInputError{Column: "", Row: rowNum, Err: err}
		}

		e, parseErr := parseRow(record, col, optional, rowNum)
		if parseErr != nil {
			return parseErr
		}
		events = append(events, e)
		rowNum++
	}

	if len(events) == 0 {
		return replayerr.ErrEmptyLog
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].TransactionTime.Equal(events[j].TransactionTime) {
			return events[i].TransactionTime.Before(events[j].TransactionTime)
		}
		return events[i].RevisionNo < events[j].RevisionNo
	})

	s.events = events
	s.indexMetadata()
	return nil
}

func parseRow(record []string, col, optional map[string]int, row int) (Event, error) {
	get := func(name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	initialID, err := strconv.ParseInt(strings.TrimSpace(get("InitialId")), 10, 64)
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "InitialId", Row: row, Err: err}
	}

	revisionNo, err := strconv.ParseInt(strings.TrimSpace(get("RevisionNo")), 10, 64)
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "RevisionNo", Row: row, Err: err}
	}

	action := parseAction(strings.TrimSpace(get("ActionCode")))

	side := Side(strings.ToUpper(strings.TrimSpace(get("Side"))))
	if side != Buy && side != Sell {
		return Event{}, &replayerr.MalformedInputError{Column: "Side", Row: row, Err: fmt.Errorf("unrecognised side %q", get("Side"))}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(get("Price")))
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "Price", Row: row, Err: err}
	}

	qtyStr := strings.TrimSpace(get("Quantity"))
	quantity, err := strconv.ParseInt(qtyStr, 10, 64)
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "Quantity", Row: row, Err: err}
	}
	if quantity < 0 {
		return Event{}, &replayerr.MalformedInputError{Column: "Quantity", Row: row, Err: fmt.Errorf("negative quantity %d", quantity)}
	}

	deliveryStart, err := parseUTC(strings.TrimSpace(get("DeliveryStart")))
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "DeliveryStart", Row: row, Err: err}
	}
	deliveryEnd, err := parseUTC(strings.TrimSpace(get("DeliveryEnd")))
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "DeliveryEnd", Row: row, Err: err}
	}
	transactionTime, err := parseUTC(strings.TrimSpace(get("TransactionTime")))
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "TransactionTime", Row: row, Err: err}
	}
	creationTime, err := parseUTC(strings.TrimSpace(get("CreationTime")))
	if err != nil {
		return Event{}, &replayerr.MalformedInputError{Column: "CreationTime", Row: row, Err: err}
	}
	// ValidityTime is retained but never read by matching (spec Open
	// Question, §9); a blank value is tolerated rather than failing the
	// load, since it never gates behaviour.
	var validityTime time.Time
	if v := strings.TrimSpace(get("ValidityTime")); v != "" {
		validityTime, err = parseUTC(v)
		if err != nil {
			return Event{}, &replayerr.MalformedInputError{Column: "ValidityTime", Row: row, Err: err}
		}
	}

	e := Event{
		InitialID:       initialID,
		RevisionNo:      revisionNo,
		Action:          action,
		Side:            side,
		Price:           price,
		Quantity:        quantity,
		DeliveryStart:   deliveryStart,
		DeliveryEnd:     deliveryEnd,
		TransactionTime: transactionTime,
		CreationTime:    creationTime,
		ValidityTime:    validityTime,
	}
	if idx, ok := optional["ExecutionRestriction"]; ok && idx < len(record) {
		e.ExecutionRestriction = record[idx]
	}
	if idx, ok := optional["BlockVolume"]; ok && idx < len(record) {
		e.BlockVolume = record[idx]
	}
	if idx, ok := optional["ProductClass"]; ok && idx < len(record) {
		e.ProductClass = record[idx]
	}
	return e, nil
}

func (s *Store) indexMetadata() {
	s.minTxTime = s.events[0].TransactionTime
	s.maxTxTime = s.events[0].TransactionTime
	seen := map[time.Time]bool{}
	s.windows = map[time.Time][2]time.Time{}

	for _, e := range s.events {
		if e.TransactionTime.Before(s.minTxTime) {
			s.minTxTime = e.TransactionTime
		}
		if e.TransactionTime.After(s.maxTxTime) {
			s.maxTxTime = e.TransactionTime
		}
		key := e.ProductKey()
		if !seen[key] {
			seen[key] = true
			s.products = append(s.products, key)
			s.windows[key] = [2]time.Time{e.DeliveryStart, e.DeliveryEnd}
		}
	}
	sort.Slice(s.products, func(i, j int) bool { return s.products[i].Before(s.products[j]) })
}

// Events returns the full sorted, immutable replay sequence.
func (s *Store) Events() []Event {
	return s.events
}

// Snapshot returns, for every InitialId whose latest event with
// TransactionTime <= at has Action in {Add, Modify} and Quantity > 0, that
// latest event projected to an Order. The order of the returned slice is
// unspecified. Returns an empty slice when at precedes the first event.
func (s *Store) Snapshot(at time.Time) []Order {
	latest := map[int64]Event{}
	for _, e := range s.events {
		if e.TransactionTime.After(at) {
			continue
		}
		latest[e.InitialID] = e
	}

	orders := make([]Order, 0, len(latest))
	for _, e := range latest {
		if (e.Action != Add && e.Action != Modify) || e.Quantity <= 0 {
			continue
		}
		orders = append(orders, Order{
			InitialID:       e.InitialID,
			Side:            e.Side,
			Price:           e.Price,
			Quantity:        e.Quantity,
			DeliveryStart:   e.DeliveryStart,
			DeliveryEnd:     e.DeliveryEnd,
			Action:          e.Action,
			TransactionTime: e.TransactionTime,
		})
	}
	return orders
}

// MinTransactionTime returns the earliest TransactionTime across the log.
func (s *Store) MinTransactionTime() time.Time { return s.minTxTime }

// MaxTransactionTime returns the latest TransactionTime across the log.
func (s *Store) MaxTransactionTime() time.Time { return s.maxTxTime }

// Products returns the sorted, deduplicated set of DeliveryStart keys.
func (s *Store) Products() []time.Time {
	return s.products
}

// ProductWindow returns the (DeliveryStart, DeliveryEnd) window for a
// product key, and whether the product is known to this Store.
func (s *Store) ProductWindow(deliveryStart time.Time) (time.Time, time.Time, bool) {
	w, ok := s.windows[deliveryStart]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return w[0], w[1], true
}
