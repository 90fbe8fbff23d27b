// ABOUTME: Codec contract for mapping typed records to hash field mappings
// ABOUTME: Provides the key/value codec used by plain string caches

package cache

// Codec translates values of type T to and from the field→string mapping
// stored in structured (hash) entries. Implementations are explicit schema
// tables — one accessor and formatter per field, no runtime reflection.
type Codec[T any] interface {
	// Encode serializes value into a field mapping. The store key (without
	// prefix) is supplied for shapes that persist the key as a field.
	Encode(key string, value T) (map[string]string, error)

	// Decode reconstructs a value from a field mapping.
	Decode(fields map[string]string) (T, error)
}

// KVCodec stores plain string values as two-field hashes, for caches built
// around a bare key/value shape rather than an entity record.
type KVCodec struct {
	// KeyField names the hash field that carries the key. Defaults to "key".
	KeyField string
	// ValueField names the hash field that carries the value. Defaults to "value".
	ValueField string
}

func (c KVCodec) keyField() string {
	if c.KeyField == "" {
		return "key"
	}
	return c.KeyField
}

func (c KVCodec) valueField() string {
	if c.ValueField == "" {
		return "value"
	}
	return c.ValueField
}

// Encode maps the key and value onto the configured field names.
func (c KVCodec) Encode(key string, value string) (map[string]string, error) {
	return map[string]string{
		c.keyField():   key,
		c.valueField(): value,
	}, nil
}

// Decode returns the designated value field.
func (c KVCodec) Decode(fields map[string]string) (string, error) {
	return fields[c.valueField()], nil
}
