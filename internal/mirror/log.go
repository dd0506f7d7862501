package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogPusher is the dev-mode mirror: it logs instead of calling anything.
type LogPusher struct{}

func NewLogPusher() *LogPusher { return &LogPusher{} }

func (p *LogPusher) Push(ctx context.Context, collection string, doc json.RawMessage) error {
	// Optional: simulate slow mirror
	if msStr := os.Getenv("MIRROR_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate mirror outage
	if os.Getenv("MIRROR_FAIL") == "1" {
		return fmt.Errorf("mirror down (simulated)")
	}

	log.Printf("mirror.push collection=%s bytes=%d", collection, len(doc))
	return nil
}
