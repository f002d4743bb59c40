package memstore

import (
	"github.com/hashicorp/go-memdb"
	"github.com/jrsteele09/go-auth-client/store"
)

const table = "entries"

// entry is a single stored key-value pair
type entry struct {
	Key   string
	Value string
}

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		table: {
			Name: table,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
	},
}

// Driver is an in-memory store.Repo built on hashicorp/go-memdb.
// Every Upsert and Delete runs in one write transaction, so readers never see
// half of a multi-key update.
type Driver struct {
	db *memdb.MemDB
}

var _ store.Repo = (*Driver)(nil)

// New creates a new empty in-memory driver
func New() (*Driver, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &Driver{db}, nil
}

// Get returns the value stored under key
func (driver *Driver) Get(key string) (string, bool, error) {
	txn := driver.db.Txn(false)
	obj, err := txn.First(table, "id", key)
	if err != nil {
		return "", false, err
	}
	if obj == nil {
		return "", false, nil
	}
	return obj.(*entry).Value, true, nil
}

// Upsert writes all entries in a single transaction
func (driver *Driver) Upsert(entries map[string]string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	for k, v := range entries {
		if err := txn.Insert(table, &entry{Key: k, Value: v}); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}

// Delete removes the given keys in a single transaction
func (driver *Driver) Delete(keys ...string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	for _, k := range keys {
		if _, err := txn.DeleteAll(table, "id", k); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}

// Len returns the number of stored keys
func (driver *Driver) Len() int {
	txn := driver.db.Txn(false)
	it, err := txn.Get(table, "id")
	if err != nil {
		return 0
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n
}
