// Package kdbx writes vault records into a password protected KeePass
// database for offline keeping, and reads them back.
package kdbx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tobischo/gokeepasslib/v3"
	"github.com/tobischo/gokeepasslib/v3/wrappers"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// Entry value keys. Title, UserName and Notes are the standard KeePass fields.
const (
	KeyTitle          = "Title"
	KeyOriginator     = "UserName"
	KeySummary        = "Notes"
	KeyVaultID        = "VaultID"
	KeyFingerprint    = "Fingerprint"
	KeyClassification = "Classification"
	KeyLabels         = "Labels"
	KeyCreatedAt      = "CreatedAt"
	KeyModifiedAt     = "ModifiedAt"
	KeyGrants         = "Grants"
)

// Metadata keys stored in the database CustomData.
const (
	CustomDataKeyServer = "VaultKeepServer"
	CustomDataKeyOwner  = "VaultKeepOwner"
	CustomDataKeyHeight = "VaultKeepHeight"
)

var (
	ErrNilDatabase   = errors.New("database is not initialized")
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Meta describes where and when an export was taken.
type Meta struct {
	Server string
	Owner  models.Principal
	Height uint64
}

// Record is a vault together with the grants it carried at export time.
type Record struct {
	Vault  models.Vault
	Grants []models.GrantView
}

// NewDatabase builds a database with one group holding an entry per record.
func NewDatabase(password string, meta Meta, records []Record) (*gokeepasslib.Database, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	db.Content = gokeepasslib.NewContent()
	db.Content.Meta.DatabaseName = "vaultkeep export"
	db.Content.Meta.CustomData = []gokeepasslib.CustomData{
		{Key: CustomDataKeyServer, Value: meta.Server},
		{Key: CustomDataKeyOwner, Value: string(meta.Owner)},
		{Key: CustomDataKeyHeight, Value: strconv.FormatUint(meta.Height, 10)},
	}

	group := gokeepasslib.NewGroup()
	group.Name = "Vaults"
	for _, rec := range records {
		entry, err := newEntry(rec)
		if err != nil {
			return nil, err
		}
		group.Entries = append(group.Entries, entry)
	}
	db.Content.Root = &gokeepasslib.RootData{Groups: []gokeepasslib.Group{group}}
	return db, nil
}

func value(key, content string) gokeepasslib.ValueData {
	return gokeepasslib.ValueData{Key: key, Value: gokeepasslib.V{Content: content}}
}

// protectedValue is encrypted inside the file on top of the database encryption.
func protectedValue(key, content string) gokeepasslib.ValueData {
	v := value(key, content)
	v.Value.Protected = wrappers.NewBoolWrapper(true)
	return v
}

func newEntry(rec Record) (gokeepasslib.Entry, error) {
	v := rec.Vault
	labels, err := json.Marshal(v.Labels)
	if err != nil {
		return gokeepasslib.Entry{}, fmt.Errorf("encode labels of vault %d: %w", v.ID, err)
	}
	grants, err := json.Marshal(rec.Grants)
	if err != nil {
		return gokeepasslib.Entry{}, fmt.Errorf("encode grants of vault %d: %w", v.ID, err)
	}

	entry := gokeepasslib.NewEntry()
	entry.Values = []gokeepasslib.ValueData{
		value(KeyTitle, v.Title),
		value(KeyOriginator, string(v.Originator)),
		value(KeySummary, v.Summary),
		value(KeyVaultID, strconv.FormatUint(v.ID, 10)),
		protectedValue(KeyFingerprint, v.Fingerprint),
		value(KeyClassification, v.Classification),
		value(KeyLabels, string(labels)),
		value(KeyCreatedAt, strconv.FormatUint(v.CreatedAt, 10)),
		value(KeyModifiedAt, strconv.FormatUint(v.ModifiedAt, 10)),
		value(KeyGrants, string(grants)),
	}
	return entry, nil
}

// OpenFile decrypts the database at filePath.
func OpenFile(filePath string, password string) (*gokeepasslib.Database, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	if err = gokeepasslib.NewDecoder(file).Decode(db); err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", filePath, err)
	}
	if err = db.UnlockProtectedEntries(); err != nil {
		return nil, fmt.Errorf("unlock protected values: %w", err)
	}
	return db, nil
}

// SaveFile encrypts db into filePath, creating parent directories as needed.
func SaveFile(db *gokeepasslib.Database, filePath string, password string) (err error) {
	if db == nil {
		return ErrNilDatabase
	}
	if db.Credentials == nil {
		if password == "" {
			return ErrEmptyPassword
		}
		db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	}

	if err := db.LockProtectedEntries(); err != nil {
		slog.Warn("[Export] Failed to lock protected values", "error", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return fmt.Errorf("create directory for %s: %w", filePath, err)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", filePath, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filePath, cerr)
		}
	}()

	if err = gokeepasslib.NewEncoder(file).Encode(db); err != nil {
		return fmt.Errorf("encode %s: %w", filePath, err)
	}
	if err = db.UnlockProtectedEntries(); err != nil {
		slog.Warn("[Export] Failed to unlock values after save", "error", err)
	}
	return nil
}

// GetAllEntries flattens every group of db into one list.
func GetAllEntries(db *gokeepasslib.Database) []gokeepasslib.Entry {
	var entries []gokeepasslib.Entry
	if db == nil || db.Content == nil || db.Content.Root == nil {
		return entries
	}
	collectEntries(&entries, db.Content.Root.Groups)
	return entries
}

func collectEntries(entries *[]gokeepasslib.Entry, groups []gokeepasslib.Group) {
	for _, group := range groups {
		*entries = append(*entries, group.Entries...)
		collectEntries(entries, group.Groups)
	}
}

// ReadMeta returns the export metadata of db.
func ReadMeta(db *gokeepasslib.Database) (Meta, error) {
	var meta Meta
	if db == nil || db.Content == nil || db.Content.Meta == nil {
		return meta, ErrNilDatabase
	}
	for _, item := range db.Content.Meta.CustomData {
		switch item.Key {
		case CustomDataKeyServer:
			meta.Server = item.Value
		case CustomDataKeyOwner:
			meta.Owner = models.Principal(item.Value)
		case CustomDataKeyHeight:
			h, err := strconv.ParseUint(item.Value, 10, 64)
			if err != nil {
				return meta, fmt.Errorf("parse height: %w", err)
			}
			meta.Height = h
		}
	}
	return meta, nil
}

// ReadRecords decodes every entry of db back into a Record.
func ReadRecords(db *gokeepasslib.Database) ([]Record, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}
	entries := GetAllEntries(db)
	records := make([]Record, 0, len(entries))
	for i := range entries {
		rec, err := decodeEntry(&entries[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeEntry(e *gokeepasslib.Entry) (Record, error) {
	var rec Record
	get := func(key string) string {
		for _, v := range e.Values {
			if v.Key == key {
				return v.Value.Content
			}
		}
		return ""
	}
	num := func(key string) (uint64, error) {
		n, err := strconv.ParseUint(get(key), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("entry %q: parse %s: %w", get(KeyTitle), key, err)
		}
		return n, nil
	}

	var err error
	v := &rec.Vault
	if v.ID, err = num(KeyVaultID); err != nil {
		return rec, err
	}
	if v.CreatedAt, err = num(KeyCreatedAt); err != nil {
		return rec, err
	}
	if v.ModifiedAt, err = num(KeyModifiedAt); err != nil {
		return rec, err
	}
	v.Title = get(KeyTitle)
	v.Originator = models.Principal(get(KeyOriginator))
	v.Summary = get(KeySummary)
	v.Fingerprint = get(KeyFingerprint)
	v.Classification = get(KeyClassification)
	if err = json.Unmarshal([]byte(get(KeyLabels)), &v.Labels); err != nil {
		return rec, fmt.Errorf("vault %d: decode labels: %w", v.ID, err)
	}
	if err = json.Unmarshal([]byte(get(KeyGrants)), &rec.Grants); err != nil {
		return rec, fmt.Errorf("vault %d: decode grants: %w", v.ID, err)
	}
	return rec, nil
}
