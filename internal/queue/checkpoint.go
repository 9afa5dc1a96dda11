package queue

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// DrainToFile pulls every currently-available message off sub and appends
// its raw payload, one JSON value per line, to the file at path. This
// backs the CLI's "stop" command (spec §6): in-flight studies are
// persisted to disk rather than lost, and re-queued on the next "populate"
// run that is not given --no-restart. No consumer in the retrieval pack checkpoints to disk, so
// this is new behaviour, written in the same plain os.File/bufio style as
// the rest of the ambient stack rather than a generic serialization
// framework.
func DrainToFile(ctx context.Context, sub *nats.Subscription, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("queue: checkpoint: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	drained := 0
	for {
		msgs, err := sub.Fetch(50, nats.MaxWait(200*time.Millisecond))
		if err != nil || len(msgs) == 0 {
			break
		}
		if ctx.Err() != nil {
			return drained, ctx.Err()
		}
		for _, msg := range msgs {
			if _, err := w.Write(msg.Data); err != nil {
				return drained, fmt.Errorf("queue: checkpoint: writing %s: %w", path, err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return drained, fmt.Errorf("queue: checkpoint: writing %s: %w", path, err)
			}
			if err := msg.Ack(); err != nil {
				return drained, fmt.Errorf("queue: checkpoint: acking drained message: %w", err)
			}
			drained++
		}
	}
	return drained, nil
}

// RestoreFromFile republishes every payload recorded by DrainToFile back
// onto subject, for the CLI's "populate" restore path (taken unless
// --no-restart is given).
func RestoreFromFile(ctx context.Context, c *Client, subject, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("queue: restore: opening %s: %w", path, err)
	}
	defer f.Close()

	restored := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var probe json.RawMessage
		if err := json.Unmarshal(line, &probe); err != nil {
			return restored, fmt.Errorf("queue: restore: malformed checkpoint line: %w", err)
		}
		if err := c.Publish(ctx, subject, line); err != nil {
			return restored, err
		}
		restored++
	}
	if err := scanner.Err(); err != nil {
		return restored, fmt.Errorf("queue: restore: reading %s: %w", path, err)
	}
	return restored, nil
}
