package pipeline

import (
	"math"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vidnest/vidnest-go/internal/document"
)

type derivationKind int

const (
	kindCount derivationKind = iota
	kindSum
	kindRequesterIn
	kindValueIn
	kindLast
)

// Derivation computes one field from data already joined onto a document.
type Derivation struct {
	kind   derivationKind
	Name   string
	Source string
	Field  string
	Value  bson.ObjectID
}

// Count is the number of documents joined at source.
func Count(name, source string) Derivation {
	return Derivation{kind: kindCount, Name: name, Source: source}
}

// Sum adds up field across the documents joined at source.
func Sum(name, source, field string) Derivation {
	return Derivation{kind: kindSum, Name: name, Source: source, Field: field}
}

// RequesterIn is true when the requester's identifier appears as field in
// any document joined at source. Always false for anonymous requesters.
func RequesterIn(name, source, field string) Derivation {
	return Derivation{kind: kindRequesterIn, Name: name, Source: source, Field: field}
}

// ValueIn is true when id appears as field in any document joined at
// source.
func ValueIn(name, source, field string, id bson.ObjectID) Derivation {
	return Derivation{kind: kindValueIn, Name: name, Source: source, Field: field, Value: id}
}

// Last is the last document joined at source, or nil.
func Last(name, source string) Derivation {
	return Derivation{kind: kindLast, Name: name, Source: source}
}

// Attach computes the derivations on d in order and returns it. A zero
// requester is anonymous. Missing or malformed source data yields the zero
// value of the field.
func Attach(d document.Document, requester bson.ObjectID, derivations []Derivation) document.Document {
	for _, dv := range derivations {
		d.Set(dv.Name, dv.eval(d, requester))
	}
	return d
}

func (dv Derivation) eval(d document.Document, requester bson.ObjectID) any {
	joined := d.Docs(dv.Source)
	switch dv.kind {
	case kindCount:
		return int64(len(joined))
	case kindSum:
		var total float64
		for _, j := range joined {
			total += j.Float64(dv.Field)
		}
		if total == math.Trunc(total) && math.Abs(total) < 1<<53 {
			return int64(total)
		}
		return total
	case kindRequesterIn:
		if requester.IsZero() {
			return false
		}
		return containsID(joined, dv.Field, requester)
	case kindValueIn:
		if dv.Value.IsZero() {
			return false
		}
		return containsID(joined, dv.Field, dv.Value)
	case kindLast:
		if len(joined) == 0 {
			return nil
		}
		return joined[len(joined)-1]
	}
	return nil
}

func containsID(joined []document.Document, field string, id bson.ObjectID) bool {
	for _, j := range joined {
		v, _ := j.Get(field)
		for _, e := range document.Values(v) {
			if got, ok := e.(bson.ObjectID); ok && got == id {
				return true
			}
		}
	}
	return false
}
