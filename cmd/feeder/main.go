// Command feeder forwards payloads from stdin to the simulation's control
// FIFO, one line per write, e.g.
//
//	echo "h9x1:120:300|h2x1:40:40" | feeder -fifo /tmp/test.fifo
package main

import (
	"bufio"
	"flag"
	"os"
	"strings"
	"time"

	"gridrange-sim/internal/channel"
	"gridrange-sim/internal/simulation"
	"gridrange-sim/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	fifoPath := flag.String("fifo", channel.DefaultPath, "Control FIFO path")
	interval := flag.Duration("interval", 50*time.Millisecond, "Pause between two payloads")
	flag.Parse()

	logger.Log.WithField("fifo", *fifoPath).Info("Waiting for the simulation to open the FIFO")
	w, err := channel.OpenWriter(*fifoPath)
	if err != nil {
		logger.Log.Fatalf("Error opening control channel: %v", err)
	}
	defer w.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if records, skipped := simulation.ParsePayload(line); skipped > 0 {
			logger.Log.WithField("valid", len(records)).WithField("skipped", skipped).Warn("Payload has malformed records")
		}
		if err := w.Send(line); err != nil {
			logger.Log.Fatalf("Error sending payload: %v", err)
		}
		// Give the reader a tick to pick it up, otherwise payloads merge in the pipe.
		time.Sleep(*interval)
	}
	if err := scanner.Err(); err != nil {
		logger.Log.Fatalf("Error reading stdin: %v", err)
	}
}
