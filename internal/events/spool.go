package events

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log"
	"time"

	bolt "github.com/boltdb/bolt"
)

const spoolBucket = "pending_events"

// Spool keeps events the broker refused in a local bolt file until Drain delivers them.
type Spool struct {
	db *bolt.DB
}

func OpenSpool(path string) (*Spool, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(spoolBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Spool{db: db}, nil
}

func (s *Spool) Close() error {
	return s.db.Close()
}

// Put appends ev; keys are a monotonically increasing sequence so Drain replays in order.
func (s *Spool) Put(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(spoolBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

func (s *Spool) Len() int {
	n := 0
	s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(spoolBucket)).Stats().KeyN
		return nil
	})
	return n
}

// Drain publishes spooled events oldest first and deletes each one the publisher accepts. It
// stops at the first failure, leaving that event and everything after it for the next run.
func (s *Spool) Drain(ctx context.Context, pub Publisher) (int, error) {
	type entry struct {
		key []byte
		ev  Event
	}
	var pending []entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(spoolBucket)).ForEach(func(k, v []byte) error {
			var ev Event
			if err := json.Unmarshal(v, &ev); err != nil {
				log.Printf("[events] dropping unreadable spooled event %x: %v", k, err)
				return nil
			}
			pending = append(pending, entry{key: append([]byte(nil), k...), ev: ev})
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := pub.Publish(ctx, e.ev); err != nil {
			return sent, err
		}
		if err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket([]byte(spoolBucket)).Delete(e.key)
		}); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// SpoolingPublisher never fails a caller: events the broker refuses go to the spool.
type SpoolingPublisher struct {
	next  Publisher
	spool *Spool
}

func NewSpoolingPublisher(next Publisher, spool *Spool) *SpoolingPublisher {
	return &SpoolingPublisher{next: next, spool: spool}
}

func (p *SpoolingPublisher) Publish(ctx context.Context, ev Event) error {
	err := p.next.Publish(ctx, ev)
	if err == nil {
		return nil
	}
	log.Printf("[events] publish %s %s failed, spooling: %v", ev.Topic, ev.ID, err)
	if serr := p.spool.Put(ev); serr != nil {
		log.Printf("[events] spool %s: %v", ev.ID, serr)
	}
	return nil
}

// Run drains the spool every interval until ctx is done.
func (p *SpoolingPublisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}

// Flush sends whatever is spooled to the next publisher, stopping at the first failure.
func (p *SpoolingPublisher) Flush(ctx context.Context) {
	if p.spool.Len() == 0 {
		return
	}
	sent, err := p.spool.Drain(ctx, p.next)
	if err != nil {
		log.Printf("[events] drain: sent=%d err=%v", sent, err)
	} else if sent > 0 {
		log.Printf("[events] drained %d spooled events", sent)
	}
}
