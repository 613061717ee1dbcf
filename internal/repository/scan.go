package repository

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// sqlTime scans a DATETIME column regardless of how the driver surfaces
// it.  MySQL with parseTime yields time.Time; SQLite may yield time.Time or
// the stored text depending on the column's declared type in the result.
type sqlTime struct{ t *time.Time }

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (s sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.t = v.UTC()
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	case nil:
		*s.t = time.Time{}
		return nil
	}
	return fmt.Errorf("scan time: unsupported type %T", src)
}

func (s sqlTime) parse(v string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*s.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan time: unrecognised value %q", v)
}

// dbTime binds an instant as a UTC DATETIME literal.  Both drivers then
// store and compare the same representation, which on SQLite orders
// lexicographically.
type dbTime time.Time

func (v dbTime) Value() (driver.Value, error) {
	return time.Time(v).UTC().Format("2006-01-02 15:04:05.999999999"), nil
}
