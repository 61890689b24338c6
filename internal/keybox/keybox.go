// Package keybox orchestrates the open/create/save workflow: passphrase
// handling, KDF parameter selection, envelope-store glue, and atomic file
// replacement. It is the only core package that reads or writes keybox
// files; the envelope, table, store and cryptor packages it calls into
// work on in-memory bytes and caller-supplied readers/writers.
package keybox

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"keybox/internal/cryptoprim"
	"keybox/internal/cryptor"
	"keybox/internal/envelope"
	kberrors "keybox/internal/errors"
	"keybox/internal/log"
	"keybox/internal/store"
	"keybox/internal/table"
)

// PassphraseProvider supplies passphrases from whatever front end is
// driving the facade (interactive prompt, config, test fixture). Prompt
// is used on open; Confirm is used on create, so a typo during creation
// does not lock the user out of a file they just made.
type PassphraseProvider interface {
	Prompt() ([]byte, error)
	Confirm(passphrase []byte) error
}

// Keybox is one opened or newly created keybox file. It is not safe for
// concurrent use; the caller is expected to serialize calls.
type Keybox struct {
	path       string
	store      *store.Store
	key        []byte
	passphrase []byte
	params     envelope.Params

	// Clock overrides time.Now for the underlying store, for deterministic
	// tests; nil means "use the real wall clock".
	Clock func() time.Time
}

// Create initializes a new empty keybox at path with an immediately
// written envelope. kdfParams, if non-nil, overrides the default Argon2id
// tuning; the default header is the full default column list.
func Create(path string, provider PassphraseProvider, kdfParams *cryptoprim.Argon2idParams) (*Keybox, error) {
	passphrase, err := provider.Prompt()
	if err != nil {
		return nil, fmt.Errorf("keybox: prompt: %w", err)
	}
	if err := provider.Confirm(passphrase); err != nil {
		return nil, fmt.Errorf("keybox: confirm: %w", err)
	}

	params := envelope.DefaultParams()
	if kdfParams != nil {
		params.KDFParams = *kdfParams
	}

	kb := &Keybox{
		path:       path,
		store:      store.New(),
		passphrase: passphrase,
		params:     params,
	}
	if kb.Clock != nil {
		kb.store.Clock = kb.Clock
	}

	if err := kb.Save(); err != nil {
		return nil, err
	}
	log.Info("created new keybox", log.Path(path))
	return kb, nil
}

// Open reads an existing envelope at path, derives the key from a
// passphrase obtained from provider, decrypts and parses the table, and
// populates a store. A wrong passphrase fails with an auth error and no
// store is returned.
func Open(path string, provider PassphraseProvider) (*Keybox, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kberrors.NewFileError("open", path, err)
	}
	defer f.Close()

	passphrase, err := provider.Prompt()
	if err != nil {
		return nil, fmt.Errorf("keybox: prompt: %w", err)
	}

	plaintext, key, params, err := envelope.Read(f, passphrase)
	if err != nil {
		return nil, err
	}

	tbl, err := table.Decode(plaintext)
	if err != nil {
		return nil, err
	}

	st := store.New()
	st.Columns = tbl.Columns
	for _, row := range tbl.Rows {
		st.AddImported(row)
	}

	kb := &Keybox{
		path:       path,
		store:      st,
		key:        key,
		passphrase: passphrase,
		params:     params,
	}
	if kb.Clock != nil {
		st.Clock = kb.Clock
	}

	log.Info("opened keybox", log.Path(path))
	return kb, nil
}

// Store exposes the in-memory record store for add/modify/delete/find.
func (kb *Keybox) Store() *store.Store {
	if kb.Clock != nil {
		kb.store.Clock = kb.Clock
	}
	return kb.store
}

// EncryptPassword encrypts plaintext under the keybox's current master
// key, for a caller about to Add or Modify a record's password field.
func (kb *Keybox) EncryptPassword(plaintext []byte) (string, error) {
	if kb.key == nil {
		return "", kberrors.ErrNoPassphrase
	}
	return cryptor.EncryptPassword(kb.key, plaintext)
}

// DecryptPassword decrypts a record's password field on demand (
// "stays ciphertext until C4 decrypts on demand").
func (kb *Keybox) DecryptPassword(r *store.Record) ([]byte, error) {
	if kb.key == nil {
		return nil, kberrors.ErrNoPassphrase
	}
	return cryptor.DecryptPassword(kb.key, r.Fields["password"])
}

// Save atomically replaces the file at kb.path: it writes to a sibling
// ".tmp" file, fsyncs, then renames over the final path. A fresh
// salt and nonce are chosen, which means a fresh master key is derived
// too; if this keybox already had passwords encrypted under a previous
// key, they are rewrapped under the new one before the table is encoded.
func (kb *Keybox) Save() error {
	if kb.passphrase == nil {
		return kberrors.ErrNoPassphrase
	}

	salt, err := cryptoprim.RandomBytes(envelope.SaltSize)
	if err != nil {
		return fmt.Errorf("keybox: generate salt: %w", err)
	}
	newKey, err := envelope.DeriveKey(kb.passphrase, salt, kb.params)
	if err != nil {
		return fmt.Errorf("keybox: derive key: %w", err)
	}

	if kb.key != nil {
		if err := kb.rewrapPasswords(kb.key, newKey); err != nil {
			return err
		}
	}

	plaintext, err := kb.encodeTable()
	if err != nil {
		return err
	}

	tmpPath := kb.path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return kberrors.NewFileError("create", tmpPath, err)
	}

	if err := envelope.WriteWithKey(f, newKey, salt, plaintext, kb.params); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return kberrors.NewFileError("fsync", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return kberrors.NewFileError("close", tmpPath, err)
	}
	if err := os.Rename(tmpPath, kb.path); err != nil {
		os.Remove(tmpPath)
		return kberrors.NewFileError("rename", kb.path, err)
	}

	cryptoprim.SecureZero(kb.key)
	kb.key = newKey
	log.Info("saved keybox", log.Path(kb.path), log.Int("records", kb.store.Len()))
	return nil
}

// rewrapPasswords re-encrypts every password field under newKey.
func (kb *Keybox) rewrapPasswords(oldKey, newKey []byte) error {
	records := kb.store.Iter()
	encoded := make([]string, len(records))
	for i, r := range records {
		encoded[i] = r.Fields["password"]
	}

	rewrapped, err := cryptor.Rewrap(oldKey, newKey, encoded)
	if err != nil {
		return fmt.Errorf("keybox: rewrap passwords: %w", err)
	}
	for i, r := range records {
		r.Fields["password"] = rewrapped[i]
	}
	return nil
}

func (kb *Keybox) encodeTable() ([]byte, error) {
	records := kb.store.Iter()
	t := &table.Table{
		Columns: kb.store.Columns,
		Rows:    make([]map[string]string, len(records)),
	}
	for i, r := range records {
		t.Rows[i] = r.Fields
	}
	return table.Encode(t)
}

// ChangePassphrase re-derives the key with a new passphrase on the next
// Save: the old passphrase is discarded immediately and passwords are
// rewrapped the next time Save runs, since every Save regenerates salt
// and key regardless.
func (kb *Keybox) ChangePassphrase(newPassphrase []byte) error {
	cryptoprim.SecureZero(kb.passphrase)
	kb.passphrase = newPassphrase
	log.Info("passphrase changed, takes effect on next save", log.Path(kb.path))
	return nil
}

// Close zeroizes the master key and passphrase held in memory.
func (kb *Keybox) Close() {
	cryptoprim.SecureZero(kb.key)
	cryptoprim.SecureZero(kb.passphrase)
	kb.key = nil
	kb.passphrase = nil
}

// DefaultPath returns the default keybox location, ~/.keybox/keybox.safe,
// used when no override is configured.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("keybox: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".keybox", "keybox.safe"), nil
}
