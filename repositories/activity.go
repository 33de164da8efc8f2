package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"roomsync/domain"
)

type ActivityRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewActivityRepository(db *badger.DB, log *slog.Logger) ActivityRepository {
	return ActivityRepository{db: db, log: log}
}

// Record appends one activity under "act:{room}:{timestamp_padded}:{uuid}".
// Callers treat failures as best-effort; this method just reports them.
func (a ActivityRepository) Record(activity domain.Activity) error {
	key := fmt.Sprintf("act:%s:%019d:%s", activity.Room, activity.At.UnixNano(), activity.ID)
	bytes, err := json.Marshal(activity)
	if err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}
