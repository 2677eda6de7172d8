package record

// Shape tells which envelope a search result arrived in.
type Shape int

const (
	// ShapeFlat is a bare result, as returned by author-filtered and job searches.
	ShapeFlat Shape = iota
	// ShapeWrapped is a content search hit carrying the post under "update".
	ShapeWrapped
)

func (s Shape) String() string {
	if s == ShapeWrapped {
		return "wrapped"
	}
	return "flat"
}

// Envelope is a classified record. Body is where field extraction reads from;
// Raw is kept for the few lookups that fall back to the outer result.
type Envelope struct {
	Shape Shape
	Raw   Record
	Body  Record
}

// Wrapped reports whether the record came in the "update" envelope.
func (e Envelope) Wrapped() bool {
	return e.Shape == ShapeWrapped
}

// Classify unwraps a raw result. It returns false for records that carry an
// "update" key without a usable object under it; those hold nothing to extract.
func Classify(r Record) (Envelope, bool) {
	if len(r) == 0 {
		return Envelope{}, false
	}

	if r.Has("update") {
		body := r.Map("update")
		if len(body) == 0 {
			return Envelope{}, false
		}
		return Envelope{Shape: ShapeWrapped, Raw: r, Body: body}, true
	}

	return Envelope{Shape: ShapeFlat, Raw: r, Body: r}, true
}
