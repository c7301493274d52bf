package app

import (
	"encoding/json"
	"fmt"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// EncodeQuotes serializes quotes as a JSON array of {text, category}.
// Pretty output uses a two-space indent and is what exports produce.
func EncodeQuotes(quotes []domain.Quote, pretty bool) ([]byte, error) {
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	var (
		data []byte
		err  error
	)

	if pretty {
		data, err = json.MarshalIndent(quotes, "", "  ")
	} else {
		data, err = json.Marshal(quotes)
	}

	if err != nil {
		return nil, fmt.Errorf("encoding quotes: %w", err)
	}

	return data, nil
}

// DecodeQuotes parses a JSON array of loosely-typed records and sanitizes it.
// It fails with a ParseError when data is not valid JSON or not an array.
// An array without any valid record decodes to an empty slice.
func DecodeQuotes(source string, data []byte) ([]domain.Quote, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewParseError(source, "invalid JSON", err)
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, domain.NewParseError(source, "not an array", nil)
	}

	return domain.SanitizeRaw(items), nil
}

// DecodeImport is DecodeQuotes with the import rule that a file must yield
// at least one valid record.
func DecodeImport(data []byte) ([]domain.Quote, error) {
	quotes, err := DecodeQuotes("import", data)
	if err != nil {
		return nil, err
	}

	if len(quotes) == 0 {
		return nil, domain.NewParseError("import", "no valid quotes found", nil)
	}

	return quotes, nil
}
