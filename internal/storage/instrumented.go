package storage

import "context"

// Recorder receives one observation per upload.
type Recorder interface {
	RecordUpload(status string)
}

// Instrumented wraps a Store and records upload outcomes.
type Instrumented struct {
	Store
	rec Recorder
}

// Instrument returns s with uploads recorded on rec.
func Instrument(s Store, rec Recorder) *Instrumented {
	return &Instrumented{Store: s, rec: rec}
}

func (i *Instrumented) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	url, err := i.Store.Put(ctx, key, data, contentType)
	if i.rec != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		i.rec.RecordUpload(status)
	}
	return url, err
}
