package model

import "go.mongodb.org/mongo-driver/v2/bson"

// Principal is the identity a request acts as. The zero value is anonymous.
type Principal struct {
	ID bson.ObjectID
}

// Anonymous is the principal of an unauthenticated request.
var Anonymous = Principal{}

func (p Principal) IsAnonymous() bool {
	return p.ID.IsZero()
}

// Owns reports whether the principal is the given owner.
func (p Principal) Owns(owner bson.ObjectID) bool {
	return !p.IsAnonymous() && p.ID == owner
}
