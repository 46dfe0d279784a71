package core

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"MineTruck/internal/model"
	"MineTruck/internal/state"
	"MineTruck/internal/util"
)

var logBucket = []byte("logs")

// CollectorTask snapshots the shared state once per period and appends a
// telemetry row to truck_{T}.csv and to the embedded bbolt store that backs
// the local monitor's history view. Sink write failures are recorded in the
// event field and never stop the task.
type CollectorTask struct {
	store  *state.Store
	period time.Duration
	log    *log.Entry

	csvPath string
	csv     *os.File
	db      *bbolt.DB

	now func() time.Time
}

// NewCollectorTask creates the data collector writing under dir. Either sink
// may fail to open; the task then runs with whatever is available.
func NewCollectorTask(truckID int, store *state.Store, dir string, period time.Duration) *CollectorTask {
	t := &CollectorTask{
		store:  store,
		period: period,
		log:    util.TaskLogger("collector", truckID),
		now:    time.Now,
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.log.WithError(err).Warn("log dir unavailable, telemetry kept in memory only")
		return t
	}

	t.csvPath = filepath.Join(dir, fmt.Sprintf("truck_%d.csv", truckID))
	if err := t.openCSV(); err != nil {
		t.log.WithError(err).Warn("csv sink unavailable")
	}

	dbPath := filepath.Join(dir, fmt.Sprintf("truck_%d.db", truckID))
	db, err := bbolt.Open(dbPath, 0o666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		t.log.WithError(err).Warn("bolt sink unavailable")
	} else {
		t.db = db
	}
	return t
}

func (t *CollectorTask) openCSV() error {
	info, err := os.Stat(t.csvPath)
	fresh := err != nil || info.Size() == 0
	f, err := os.OpenFile(t.csvPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if fresh {
		if _, err := f.WriteString(model.CSVHeader + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	t.csv = f
	return nil
}

// Run loops until stop is closed, then closes the sinks.
func (t *CollectorTask) Run(stop <-chan struct{}) {
	defer t.Close()
	runPeriodic(t.log, t.period, stop, func(float64) { t.Tick() })
}

// Tick collects one telemetry row.
func (t *CollectorTask) Tick() {
	s := t.store.Snapshot()
	entry := model.NewLogEntry(s, float64(t.now().UnixNano())/1e9)

	if t.csv != nil {
		if _, err := t.csv.WriteString(entry.CSVRow() + "\n"); err != nil {
			t.log.WithError(err).Warn("csv write failed")
			t.store.Update(func(vs *model.VehicleState) {
				vs.LastEvent = "Falha de escrita no log"
			})
		}
	}

	if t.db != nil {
		err := t.db.Update(func(tx *bbolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(logBucket)
			if err != nil {
				return err
			}
			seq, _ := b.NextSequence()
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, seq)
			val, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			return b.Put(key, val)
		})
		if err != nil {
			t.log.WithError(err).Warn("bolt write failed")
			t.store.Update(func(vs *model.VehicleState) {
				vs.LastEvent = "Falha de escrita no log"
			})
		}
	}
}

// LastEntries reads up to n most recent rows from the bbolt store, oldest
// first. Used by the local monitor.
func (t *CollectorTask) LastEntries(n int) []model.LogEntry {
	if t.db == nil {
		return nil
	}
	var out []model.LogEntry
	_ = t.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(logBucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var e model.LogEntry
			if err := json.Unmarshal(v, &e); err == nil {
				out = append(out, e)
			}
		}
		return nil
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Close releases the sinks.
func (t *CollectorTask) Close() {
	if t.csv != nil {
		if err := t.csv.Close(); err != nil {
			t.log.WithError(err).Warn("close csv")
		}
		t.csv = nil
	}
	if t.db != nil {
		if err := t.db.Close(); err != nil {
			t.log.WithError(err).Warn("close bolt")
		}
		t.db = nil
	}
}
