package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Document is a stored trade in its raw key/value form, before it is
// decoded into a Trade. Journal files and document tables both hold
// documents, and older ones may still use the legacy field names.
type Document map[string]any

// legacyFieldNames maps every historical spelling to its canonical key.
var legacyFieldNames = map[string]string{
	"_id":        "id",
	"entryPrice": "entry_price",
	"exitPrice":  "exit_price",
	"tradeDate":  "trade_date",
	"profitLoss": "profit_loss",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

// NormalizeDocument rewrites doc in place into the canonical shape and
// reports whether anything changed. Applying it to an already canonical
// document is a no-op, so repeated passes converge after the first one.
//
// When both spellings are present the canonical value wins and the legacy
// key is dropped.
func NormalizeDocument(doc Document) bool {
	changed := false

	for legacy, canonical := range legacyFieldNames {
		v, ok := doc[legacy]
		if !ok {
			continue
		}
		if _, exists := doc[canonical]; !exists {
			doc[canonical] = v
		}
		delete(doc, legacy)
		changed = true
	}

	for key, v := range doc {
		if inner, ok := unwrapExtendedJSON(v); ok {
			doc[key] = inner
			changed = true
		}
	}

	// Array-backed journals assigned numeric ids.
	switch id := doc["id"].(type) {
	case json.Number:
		doc["id"] = id.String()
		changed = true
	case float64:
		doc["id"] = strconv.FormatFloat(id, 'f', -1, 64)
		changed = true
	case int64:
		doc["id"] = strconv.FormatInt(id, 10)
		changed = true
	}

	// Document stores persisted trade_date as a full timestamp.
	if s, ok := doc["trade_date"].(string); ok && len(s) > len(DateLayout) {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			doc["trade_date"] = ts.UTC().Format(DateLayout)
			changed = true
		}
	}

	if _, ok := doc["updated_at"]; !ok {
		if created, ok := doc["created_at"]; ok {
			doc["updated_at"] = created
			changed = true
		}
	}

	if _, ok := doc["notes"]; !ok {
		doc["notes"] = ""
		changed = true
	}

	return changed
}

// extendedJSONKeys are the single-key wrappers a document database export
// puts around ids, dates and numbers.
var extendedJSONKeys = []string{"$oid", "$date", "$numberDecimal", "$numberDouble", "$numberInt", "$numberLong"}

func unwrapExtendedJSON(v any) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, false
	}
	for _, key := range extendedJSONKeys {
		inner, ok := m[key]
		if !ok {
			continue
		}
		if s, isString := inner.(string); isString && key != "$oid" && key != "$date" {
			return json.Number(s), true
		}
		return inner, true
	}
	return nil, false
}

// NormalizeDocuments applies NormalizeDocument to each element and
// returns how many were changed.
func NormalizeDocuments(docs []Document) int {
	n := 0
	for _, doc := range docs {
		if NormalizeDocument(doc) {
			n++
		}
	}
	return n
}

// DecodeDocument parses a single JSON object, keeping numbers exact.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decoding document: not an object")
	}
	return doc, nil
}

// DecodeDocuments parses a JSON array of objects, keeping numbers exact.
func DecodeDocuments(data []byte) ([]Document, error) {
	var docs []Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// Trade decodes a canonical document into a Trade.
func (d Document) Trade() (Trade, error) {
	var t Trade
	data, err := json.Marshal(d)
	if err != nil {
		return t, fmt.Errorf("encoding document: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("decoding trade: %w", err)
	}
	if t.ID == "" {
		return t, fmt.Errorf("decoding trade: missing id")
	}
	return t, nil
}

// DocumentFromTrade is the inverse of Document.Trade.
func DocumentFromTrade(t Trade) (Document, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding trade %s: %w", t.ID, err)
	}
	return DecodeDocument(data)
}
