package di

import (
	"fmt"

	"github.com/norndb/norn/pkg/database"
	"github.com/norndb/norn/pkg/index"
)

// Document is the schemaless record type used by tables driven purely by
// configuration, such as those the CLI operates on.
type Document map[string]interface{}

// FieldIndexes builds one index per named top-level document field. A
// document missing the field contributes no index keys.
func FieldIndexes(fields []string) []index.Index {
	indexes := make([]index.Index, len(fields))
	for i, field := range fields {
		field := field
		indexes[i] = index.Index{
			Name: field,
			Extract: func(record interface{}) ([][]byte, error) {
				doc, ok := record.(*Document)
				if !ok {
					return nil, fmt.Errorf("record is %T, not a document", record)
				}
				value, ok := (*doc)[field]
				if !ok {
					return nil, nil
				}
				return [][]byte{[]byte(fmt.Sprintf("%v", value))}, nil
			},
		}
	}
	return indexes
}

// CreateDocumentTable registers a schemaless table whose indexes come from
// the table's configured field list.
func (c *Container) CreateDocumentTable(db *database.Database, name string) (*database.Table, error) {
	tc := c.cfg.Tables[name]
	return c.CreateTable(db, name,
		func() interface{} { return &Document{} },
		FieldIndexes(tc.Indexes))
}
