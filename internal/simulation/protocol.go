package simulation

import (
	"strconv"
	"strings"

	"gridrange-sim/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	recordSeparator = "|"
	fieldSeparator  = ":"
)

// Record is one position update: move the mobile node Name to (X, Y).
type Record struct {
	Name string
	X, Y int
}

// ParsePayload splits a control payload of the form name:x:y{|name:x:y} into
// records, in order. Malformed records are skipped and counted.
func ParsePayload(payload string) ([]Record, int) {
	var records []Record
	skipped := 0
	for _, line := range strings.Split(payload, recordSeparator) {
		rec, ok := parseRecord(line)
		if !ok {
			skipped++
			logger.Log.WithField("record", line).Debug("Skipping malformed control record")
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func parseRecord(line string) (Record, bool) {
	fields := strings.Split(strings.TrimSpace(line), fieldSeparator)
	if len(fields) != 3 || fields[0] == "" {
		return Record{}, false
	}
	x, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Record{}, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return Record{}, false
	}
	return Record{Name: fields[0], X: x, Y: y}, true
}

func (r Record) fields() logrus.Fields {
	return logrus.Fields{"node": r.Name, "x": r.X, "y": r.Y}
}
