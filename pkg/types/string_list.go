package types

// StringList is a JSON-serialized list column (dietary tags, ingredients).
type StringList []string

// Clone returns a copy so callers never share backing arrays with models.
func (s StringList) Clone() StringList {
	if s == nil {
		return nil
	}
	out := make(StringList, len(s))
	copy(out, s)
	return out
}
