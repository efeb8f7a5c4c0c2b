// Package ref maps external identifier strings to store-native references and
// back.
//
// References are MongoDB ObjectIDs. Parsing never silently produces a zero
// value: a string that is not 24 hex characters yields an
// apperr.CodeMalformedReference error, which the executor treats as fatal to
// the request.
package ref

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hanpama/socialgraph/internal/apperr"
)

// ID is the store-native reference type.
type ID = primitive.ObjectID

// Nil is the zero reference. It never names a stored document.
var Nil = primitive.NilObjectID

// New allocates a fresh reference.
func New() ID { return primitive.NewObjectID() }

// Parse converts an external identifier into a reference.
func Parse(s string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return Nil, apperr.Malformed(s, err)
	}
	return id, nil
}

// String returns the external form of id.
func String(id ID) string { return id.Hex() }
