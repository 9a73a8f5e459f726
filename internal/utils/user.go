package utils

// KarmaLevel names the tier a karma total falls into.
func KarmaLevel(karma int) string {
	switch {
	case karma >= 1000:
		return "veteran"
	case karma >= 200:
		return "regular"
	case karma >= 50:
		return "contributor"
	case karma >= 10:
		return "member"
	case karma < 0:
		return "muted"
	default:
		return "newcomer"
	}
}
