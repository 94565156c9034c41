// Package jsondb provides a user storage kept in memory and persisted
// to a JSON file. The file is read on New and rewritten on Close.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/patric-chuzhbe/usrsvc/internal/user"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Users      map[int64]*user.User
	NextUserID int64
}

// NewCache returns an empty cache whose first assigned user ID is 1.
func NewCache() CacheStruct {
	return CacheStruct{
		Users:      map[int64]*user.User{},
		NextUserID: 1,
	}
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"NextUserID": 1
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

// New loads the storage from fileName, creating the file when it does not exist.
// An empty file is treated as an empty storage.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    NewCache(),
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		// an empty file holds no users yet
		db.Cache = NewCache()
	case os.IsNotExist(err):
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if db.Cache.Users == nil {
		db.Cache.Users = map[int64]*user.User{}
	}
	if db.Cache.NextUserID < 1 {
		db.Cache.NextUserID = 1
	}

	return db, nil
}

// Save stores a copy of usr. A user with a zero ID gets the next free ID.
func (db *JSONDB) Save(ctx context.Context, usr *user.User) (*user.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *usr
	if stored.ID == 0 {
		stored.ID = db.Cache.NextUserID
		db.Cache.NextUserID++
	} else if stored.ID >= db.Cache.NextUserID {
		db.Cache.NextUserID = stored.ID + 1
	}
	db.Cache.Users[stored.ID] = &stored

	result := stored
	return &result, nil
}

// FindByID returns a copy of the stored user and whether it was found.
func (db *JSONDB) FindByID(ctx context.Context, userID int64) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stored, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}

	result := *stored
	return &result, true, nil
}

// Delete removes the user with usr.ID. Removing an absent user is not an error.
func (db *JSONDB) Delete(ctx context.Context, usr *user.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.Cache.Users, usr.ID)

	return nil
}

func (db *JSONDB) Count(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the cache to the JSON file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
