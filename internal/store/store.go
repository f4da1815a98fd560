// Package store records rendered dashboard rows to CSV files with daily
// rotation. Data is stored in ~/.hasensors-data/ unless another directory is
// given.
package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/luki/hasensors/internal/logging"
	"github.com/luki/hasensors/internal/sensor"
)

const (
	dirName    = ".hasensors-data"
	timeLayout = "2006-01-02T15:04:05"
	fileLayout = "2006-01-02"
)

// header names the fixed columns. The raw value follows them with one column
// per piece, so a composite keeps its piece count and pieces may contain the
// separator.
var header = []string{"time", "sensor", "name", "value", "unit", "blink", "raw"}

// fixedColumns is the number of columns before the raw pieces.
const fixedColumns = 6

func logger() *zerolog.Logger {
	return logging.For("store")
}

// DiskStore appends rows to one file per day:
//
//	<dir>/YYYY-MM-DD.csv  time,sensor,name,value,unit,blink,raw...
type DiskStore struct {
	dir     string
	current *os.File
	writer  *csv.Writer
	curDate string
}

// StoredRow is a single line of a CSV log file.
type StoredRow struct {
	Time   time.Time
	Sensor string
	Name   string
	Raw    sensor.Value
	Value  string
	Unit   string
	Blink  bool
}

// Number returns the leading number of the raw value.
func (r StoredRow) Number() (float64, bool) {
	return r.Raw.Number()
}

// New creates a disk store in dir, or in DataDir() when dir is empty,
// creating the directory if needed.
func New(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = DataDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, eris.Wrapf(err, "cannot create data dir %s", dir)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (d *DiskStore) Dir() string {
	return d.dir
}

// Write appends a batch of rows to the file of t's day.
func (d *DiskStore) Write(rows []sensor.Row, t time.Time) error {
	if len(rows) == 0 {
		return nil
	}
	dateStr := t.Format(fileLayout)

	if d.curDate != dateStr || d.current == nil {
		d.Close()
		path := filepath.Join(d.dir, dateStr+".csv")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return eris.Wrapf(err, "cannot open %s", path)
		}
		d.current = f
		d.writer = csv.NewWriter(f)
		d.curDate = dateStr
		logger().Debug().Str("file", path).Msg("recording to file")

		if info, err := f.Stat(); err == nil && info.Size() == 0 {
			if err := d.writer.Write(header); err != nil {
				return eris.Wrap(err, "cannot write header")
			}
		}
	}

	ts := t.Format(timeLayout)
	for _, r := range rows {
		rec := make([]string, 0, fixedColumns+len(r.Raw))
		rec = append(rec,
			ts,
			r.Sensor,
			r.Name,
			r.Value,
			r.Unit,
			strconv.FormatBool(r.Blink),
		)
		rec = append(rec, r.Raw...)
		err := d.writer.Write(rec)
		if err != nil {
			return eris.Wrap(err, "cannot write row")
		}
	}
	d.writer.Flush()
	return eris.Wrap(d.writer.Error(), "cannot flush rows")
}

// Close flushes and closes the current file.
func (d *DiskStore) Close() {
	if d.writer != nil {
		d.writer.Flush()
	}
	if d.current != nil {
		if err := d.current.Close(); err != nil {
			logger().Warn().Err(err).Msg("closing data file")
		}
		d.current = nil
	}
}

// ListDays returns available log dates (newest first). An empty dir means
// DataDir().
func ListDays(dir string) ([]string, error) {
	if dir == "" {
		dir = DataDir()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot list %s", dir)
	}

	var days []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		day := strings.TrimSuffix(name, ".csv")
		if _, err := time.Parse(fileLayout, day); err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// LoadDay reads all rows from a specific day's CSV file.
func LoadDay(dir, day string) ([]StoredRow, error) {
	if dir == "" {
		dir = DataDir()
	}
	return LoadFile(filepath.Join(dir, day+".csv"))
}

// LoadFile reads all rows from a CSV file. Malformed lines are skipped.
func LoadFile(path string) ([]StoredRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cannot open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "cannot read %s", path)
	}

	var rows []StoredRow
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == header[0] {
			continue
		}
		if len(rec) < fixedColumns {
			continue
		}

		t, err := time.ParseInLocation(timeLayout, rec[0], time.Local)
		if err != nil {
			continue
		}
		blink, _ := strconv.ParseBool(rec[5])
		raw := make(sensor.Value, len(rec)-fixedColumns)
		copy(raw, rec[fixedColumns:])

		rows = append(rows, StoredRow{
			Time:   t,
			Sensor: rec[1],
			Name:   rec[2],
			Raw:    raw,
			Value:  rec[3],
			Unit:   rec[4],
			Blink:  blink,
		})
	}

	return rows, nil
}

// DataDir returns the path to the default data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}
