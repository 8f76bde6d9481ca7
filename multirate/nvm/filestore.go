package nvm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore persists accumulator values in a single file through a
// Codec. Every save rewrites the whole file; the state is two floats, so
// there is nothing to gain from anything smarter.
type FileStore struct {
	path  string
	codec Codec

	values map[string]float64
}

// NewFileStore opens or creates a file-backed store at the given path,
// encoded with JSONCodec.
func NewFileStore(path string) (*FileStore, error) {
	return NewFileStoreWithCodec(path, JSONCodec{})
}

// NewFileStoreWithCodec opens or creates a file-backed store with a
// custom codec.
func NewFileStoreWithCodec(path string, codec Codec) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		codec:  codec,
		values: make(map[string]float64),
	}

	err := s.load()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := s.codec.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", s.path, err)
	}

	for field, v := range data {
		value, ok := v.(float64)
		if !ok {
			return fmt.Errorf("field %s in %s is not a number", field, s.path)
		}
		s.values[field] = value
	}

	return nil
}

// Load returns the saved value, or 0 if the field was never saved.
func (s *FileStore) Load(field string) (float64, error) {
	return s.values[field], nil
}

// Save commits the value and rewrites the backing file.
func (s *FileStore) Save(field string, v float64) error {
	s.values[field] = v

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := make(map[string]any, len(s.values))
	for k, val := range s.values {
		data[k] = val
	}

	return s.codec.Encode(f, data)
}

// Close does nothing; every save already reached the file.
func (s *FileStore) Close() error {
	return nil
}
