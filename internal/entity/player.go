package entity

// IsValidMark - reports whether mark is one a player can place.
func IsValidMark(mark string) bool {
	return mark == PlayerX || mark == PlayerO
}

// OpponentMark - the mark of the other player.
func OpponentMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
