package server

// expectedNextOrder computes the sequence position the player must discover
// next: 1 + max(order of every clue with a discovered ledger entry), or 0
// when nothing is discovered yet. Normal and collaborative discoveries
// count equally.
func expectedNextOrder(ledger progressDoc, clues []clueDoc) int {
	orders := make(map[string]int, len(clues))
	for _, c := range clues {
		orders[c.ID] = c.Order
	}

	next := 0
	for _, e := range ledger.Entries {
		if e.Status != clueDiscovered {
			continue
		}
		if o, ok := orders[e.ClueID]; ok && o+1 > next {
			next = o + 1
		}
	}
	return next
}

// validateOrder enforces the sequential contract: a clue can only be
// discovered at exactly its expected position, with no skipping ahead and
// no rediscovery.
func validateOrder(clue clueDoc, ledger progressDoc, clues []clueDoc) error {
	if clue.Order != expectedNextOrder(ledger, clues) {
		return errSequenceViolation
	}
	return nil
}
