package pdsc

import (
	"encoding/xml"
	"fmt"
)

// Decode parses raw PDSC XML bytes into a Document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("pdsc: decode: %w", err)
	}
	return &doc, nil
}
