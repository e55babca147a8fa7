package gamedata

import (
	"encoding/json"
	"fmt"

	"github.com/eldermoor/eldermoor/internal/content"
	"github.com/eldermoor/eldermoor/internal/storage"
)

func encodeRow(rec content.Record) (storage.Row, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return storage.Row{}, fmt.Errorf("encoding %s %s: %w", rec.RecordKind(), rec.RecordId(), err)
	}
	return storage.Row{
		Id:       rec.RecordId(),
		FolderId: rec.ParentFolder(),
		Name:     rec.RecordName(),
		Data:     data,
	}, nil
}

// decodeRow builds a record of the descriptor's kind from a stored
// row. Identity columns take precedence over the json body.
func decodeRow(desc *content.Descriptor, row storage.Row) (content.Record, error) {
	rec := desc.New()
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, rec); err != nil {
			return nil, fmt.Errorf("decoding %s %s: %w", desc.Kind, row.Id, err)
		}
	}
	rec.SetRecordId(row.Id)
	rec.SetRecordName(row.Name)
	rec.SetParentFolder(row.FolderId)
	return rec, nil
}
