package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// BatchError reports that the batch as a whole could not be read or parsed.
// No document of the batch is imported when it occurs.
type BatchError struct {
	Source string
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("load batch %s: %v", e.Source, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Decode reads a JSON array of documents from r.
func Decode(r io.Reader) ([]Document, error) {
	return decode("input", r)
}

// LoadFile reads a JSON array of documents from the file at path.
func LoadFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &BatchError{Source: path, Err: err}
	}
	defer f.Close()
	return decode(path, f)
}

func decode(source string, r io.Reader) ([]Document, error) {
	var docs []Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, &BatchError{Source: source, Err: err}
	}
	return docs, nil
}
