package sessions

import (
	"encoding/json"
	"fmt"

	"codeberg.org/moodcanvas/server/internal/mood"
)

// the JSON columns of a stored record
type encodedRecord struct {
	canvas   []byte
	messages []byte
	samples  []byte
}

func encodeRecord(record *Record) (encodedRecord, error) {
	var (
		enc encodedRecord
		err error
	)

	if enc.canvas, err = json.Marshal(record.Canvas); err != nil {
		return enc, fmt.Errorf("encode canvas: %w", err)
	}

	messages := record.Messages
	if messages == nil {
		messages = []ChatMessage{}
	}
	if enc.messages, err = json.Marshal(messages); err != nil {
		return enc, fmt.Errorf("encode messages: %w", err)
	}

	samples := record.Samples
	if samples == nil {
		samples = []mood.Sample{}
	}
	if enc.samples, err = json.Marshal(samples); err != nil {
		return enc, fmt.Errorf("encode samples: %w", err)
	}

	return enc, nil
}

func decodeRecord(record *Record, enc encodedRecord) error {
	if err := json.Unmarshal(enc.canvas, &record.Canvas); err != nil {
		return fmt.Errorf("decode canvas: %w", err)
	}

	if err := json.Unmarshal(enc.messages, &record.Messages); err != nil {
		return fmt.Errorf("decode messages: %w", err)
	}

	if err := json.Unmarshal(enc.samples, &record.Samples); err != nil {
		return fmt.Errorf("decode samples: %w", err)
	}

	return nil
}

func validateRecord(record *Record) error {
	if record == nil || record.Session.ID == "" {
		return fmt.Errorf("%w: record has no session id", ErrInvalidInput)
	}

	return nil
}
