package knowledge

// Document is one retrievable excerpt plus its provenance metadata.
type Document struct {
	Content  string
	Name     string
	MetaData map[string]interface{}
}

// AsMap returns the serializable form used in turn references and
// stream payloads.
func (d *Document) AsMap() map[string]interface{} {
	meta := d.MetaData
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return map[string]interface{}{
		"content":   d.Content,
		"name":      d.Name,
		"meta_data": meta,
	}
}
