package database

// Opérateurs d'agrégation MongoDB (évite les littéraux dupliqués)
const (
	BSONLookup = "$lookup"
	BSONUnwind = "$unwind"
	BSONMatch  = "$match"
	BSONGroup  = "$group"
	BSONSum    = "$sum"
	BSONAvg    = "$avg"
	BSONSort   = "$sort"
	BSONSet    = "$set"
)
