package storage

import (
	"errors"
	"os"
)

// recordPerm is the mode of every item file. Items hold sessions and
// tokens, so only the owner may read them.
const recordPerm os.FileMode = 0o600

// replaceFile swaps the content of key's file in one rename. The storage
// directory already exists (NewFileStorage creates it), so the temp file
// and the target share a filesystem. The directory is synced afterwards so
// the rename itself survives a crash.
func (s *FileStorage) replaceFile(key string, data []byte) (err error) {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+key+"-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(recordPerm); err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), s.KeyPath(key)); err != nil {
		return err
	}
	return syncDir(s.dir)
}

// syncDir flushes directory metadata. Some platforms cannot fsync a
// directory; that is not a write failure.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}
	return nil
}
