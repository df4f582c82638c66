// Package record defines the paint can record exchanged with the remote posts API.
package record

// Record is one paint can as returned by the remote API.
// Records are treated as immutable once fetched within a sync run.
type Record struct {
	// ID is the externally assigned identifier, used as the upsert key.
	ID int `json:"id"`

	// Name of the paint.
	Name string `json:"name"`

	// Year the colour was introduced.
	Year int `json:"year"`

	// Color is a hex value, possibly prefixed with '#'.
	Color string `json:"color"`

	// PantoneValue is the Pantone reference, e.g. "15-4020".
	PantoneValue string `json:"pantone_value"`
}

// Field describes one source field exposed to migration consumers.
type Field struct {
	Key         string
	Description string
}

var fields = []Field{
	{Key: "id", Description: "Paint Can ID"},
	{Key: "name", Description: "Name of paint"},
	{Key: "year", Description: "The year"},
	{Key: "color", Description: "The colour"},
	{Key: "pantone_value", Description: "Pantone value"},
}

// Fields returns the source fields in declaration order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldKeys returns the field keys in declaration order.
func FieldKeys() []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// IDSchema describes the identifier columns of a record and their types.
func IDSchema() map[string]string {
	return map[string]string{"id": "integer"}
}
