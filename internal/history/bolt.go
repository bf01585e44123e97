package history

import (
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("history")

// BoltRecorder persists records to a BoltDB file, keyed by a
// monotonically increasing sequence number.
type BoltRecorder struct {
	db *bolt.DB
}

// NewBoltRecorder opens (or creates) the history database at path.
func NewBoltRecorder(path string) (*BoltRecorder, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	// Ensure the bucket exists.
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltRecorder{db: db}, nil
}

func (b *BoltRecorder) Append(rec *Record) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)

		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq

		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bkt.Put(seqKey(seq), raw)
	})
}

func (b *BoltRecorder) Recent(limit int) ([]*Record, error) {
	var results []*Record

	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()

		// Walk backwards from the newest record, then reverse.
		for k, v := c.Last(); k != nil && (limit <= 0 || len(results) < limit); k, v = c.Prev() {
			rec := &Record{}
			if err := json.Unmarshal(v, rec); err != nil {
				return err
			}
			results = append(results, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func (b *BoltRecorder) Close() error {
	return b.db.Close()
}

// seqKey encodes the sequence number big-endian so cursor order matches
// append order.
func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
