package telemetry

import (
	"database/sql"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/b3nn0/hoverfly/vehicle"
)

const (
	flightTable   = "flight"
	sessionTable  = "session"
	logBatchSize  = 100
	logFlushEvery = time.Second
)

// FlightRow is one logged tick. Each exported field is a column.
type FlightRow struct {
	Tick      int64
	TimeNanos int64
	Armed     bool
	Failsafe  bool

	Phi    float64
	Theta  float64
	Psi    float64
	DPhi   float64
	DTheta float64
	DPsi   float64
	Z      float64
	DZ     float64

	Thrust float64
	Roll   float64
	Pitch  float64
	Yaw    float64

	M1 float64
	M2 float64
	M3 float64
	M4 float64
}

func NewFlightRow(s vehicle.Snapshot) FlightRow {
	return FlightRow{
		Tick:      int64(s.Tick),
		TimeNanos: s.Time.UnixNano(),
		Armed:     s.Armed,
		Failsafe:  s.Failsafe,
		Phi:       s.State.Phi,
		Theta:     s.State.Theta,
		Psi:       s.State.Psi,
		DPhi:      s.State.DPhi,
		DTheta:    s.State.DTheta,
		DPsi:      s.State.DPsi,
		Z:         s.State.Z,
		DZ:        s.State.DZ,
		Thrust:    s.Demands.Thrust,
		Roll:      s.Demands.Roll,
		Pitch:     s.Demands.Pitch,
		Yaw:       s.Demands.Yaw,
		M1:        s.Motors[0],
		M2:        s.Motors[1],
		M3:        s.Motors[2],
		M4:        s.Motors[3],
	}
}

func (r FlightRow) Time() time.Time {
	return time.Unix(0, r.TimeNanos)
}

var sqlTypeMap = map[reflect.Kind]string{
	reflect.Bool:    "INTEGER",
	reflect.Int:     "INTEGER",
	reflect.Int8:    "INTEGER",
	reflect.Int16:   "INTEGER",
	reflect.Int32:   "INTEGER",
	reflect.Int64:   "INTEGER",
	reflect.Uint8:   "INTEGER",
	reflect.Uint16:  "INTEGER",
	reflect.Uint32:  "INTEGER",
	reflect.Float32: "REAL",
	reflect.Float64: "REAL",
	reflect.String:  "TEXT",
}

// columns lists the loggable fields of the struct type t with their sqlite
// types. Unsupported kinds are skipped.
func columns(t reflect.Type) (names, types []string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		sqlType, ok := sqlTypeMap[f.Type.Kind()]
		if !ok || !f.IsExported() {
			continue
		}
		names = append(names, f.Name)
		types = append(types, sqlType)
	}
	return names, types
}

func fieldValues(v reflect.Value, names []string) []interface{} {
	ret := make([]interface{}, 0, len(names)+1)
	for _, n := range names {
		ret = append(ret, v.FieldByName(n).Interface())
	}
	return ret
}

func makeTable(db *sql.DB, tbl string, names, types []string) error {
	fields := make([]string, len(names))
	for i := range names {
		fields[i] = names[i] + " " + types[i]
	}
	fields = append(fields, "session_id INTEGER")
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, %s)", tbl, strings.Join(fields, ", "))
	_, err := db.Exec(q)
	return errors.Wrapf(err, "creating table %s", tbl)
}

// FlightLog records snapshots into an sqlite database. Rows are inserted in
// batches by a writer goroutine; each Open starts a new session.
type FlightLog struct {
	db      *sql.DB
	insert  *sql.Stmt
	session int64
	names   []string

	mu      sync.Mutex
	closed  bool
	rows    chan FlightRow
	done    chan struct{}
	dropped atomic.Uint64
	written atomic.Uint64
}

func OpenFlightLog(path string) (*FlightLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening flight log")
	}
	l, err := newFlightLog(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("Flight log %s: session %d\n", path, l.session)
	return l, nil
}

func newFlightLog(db *sql.DB) (*FlightLog, error) {
	_, err := db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, start INTEGER)", sessionTable))
	if err != nil {
		return nil, errors.Wrap(err, "creating session table")
	}
	names, types := columns(reflect.TypeOf(FlightRow{}))
	if err := makeTable(db, flightTable, names, types); err != nil {
		return nil, err
	}
	res, err := db.Exec(fmt.Sprintf("INSERT INTO %s (start) VALUES(?)", sessionTable), time.Now().UnixNano())
	if err != nil {
		return nil, errors.Wrap(err, "starting session")
	}
	session, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "starting session")
	}

	keys := append(append([]string{}, names...), "session_id")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES(%s)", flightTable, strings.Join(keys, ","),
		strings.Join(strings.Split(strings.Repeat("?", len(keys)), ""), ","))
	insert, err := db.Prepare(q)
	if err != nil {
		return nil, errors.Wrap(err, "preparing insert")
	}

	l := &FlightLog{
		db:      db,
		insert:  insert,
		session: session,
		names:   names,
		rows:    make(chan FlightRow, 10240),
		done:    make(chan struct{}),
	}
	go l.writer()
	return l, nil
}

func (l *FlightLog) Session() int64 {
	return l.session
}

// Run implements flight.Task. It never blocks; rows are dropped when the
// writer falls behind.
func (l *FlightLog) Run(s vehicle.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.rows <- NewFlightRow(s):
	default:
		l.dropped.Add(1)
	}
}

func (l *FlightLog) Dropped() uint64 {
	return l.dropped.Load()
}

func (l *FlightLog) Written() uint64 {
	return l.written.Load()
}

// Close flushes pending rows and closes the database.
func (l *FlightLog) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.rows)
	}
	l.mu.Unlock()
	<-l.done
	l.insert.Close()
	return l.db.Close()
}

func (l *FlightLog) writer() {
	defer close(l.done)
	batch := make([]FlightRow, 0, logBatchSize)
	ticker := time.NewTicker(logFlushEvery)
	defer ticker.Stop()
	for {
		select {
		case r, ok := <-l.rows:
			if !ok {
				l.flush(batch)
				return
			}
			batch = append(batch, r)
			if len(batch) >= logBatchSize {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (l *FlightLog) flush(batch []FlightRow) {
	if len(batch) == 0 {
		return
	}
	tx, err := l.db.Begin()
	if err != nil {
		log.Printf("Flight log: %s\n", err.Error())
		return
	}
	stmt := tx.Stmt(l.insert)
	for _, r := range batch {
		args := append(fieldValues(reflect.ValueOf(r), l.names), l.session)
		if _, err := stmt.Exec(args...); err != nil {
			log.Printf("Flight log insert: %s\n", err.Error())
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("Flight log commit: %s\n", err.Error())
		return
	}
	l.written.Add(uint64(len(batch)))
}

// ReadFlightLog returns the rows of one session in tick order. Session 0
// selects the most recent session.
func ReadFlightLog(path string, session int64) ([]FlightRow, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening flight log")
	}
	defer db.Close()

	if session == 0 {
		err := db.QueryRow(fmt.Sprintf("SELECT MAX(id) FROM %s", sessionTable)).Scan(&session)
		if err != nil {
			return nil, errors.Wrap(err, "finding last session")
		}
	}

	names, _ := columns(reflect.TypeOf(FlightRow{}))
	q := fmt.Sprintf("SELECT %s FROM %s WHERE session_id = ? ORDER BY Tick", strings.Join(names, ","), flightTable)
	rows, err := db.Query(q, session)
	if err != nil {
		return nil, errors.Wrapf(err, "reading session %d", session)
	}
	defer rows.Close()

	var ret []FlightRow
	for rows.Next() {
		var r FlightRow
		v := reflect.ValueOf(&r).Elem()
		dest := make([]interface{}, len(names))
		for i, n := range names {
			dest[i] = v.FieldByName(n).Addr().Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "scanning flight row")
		}
		ret = append(ret, r)
	}
	return ret, errors.Wrap(rows.Err(), "reading flight rows")
}
