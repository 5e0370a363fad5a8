package services

import "delivery_notes_app_go/models"

// DeriveStatus computes a note's status from its line items alone.
// Every line matching is ok, any over-received line is a discrepancy and
// anything short of that is still pending.
func DeriveStatus(items []models.LineItem) models.NoteStatus {
	allMatched, anyOver := true, false
	for _, item := range items {
		if item.QuantityReceived != item.QuantityExpected {
			allMatched = false
		}
		if item.QuantityReceived > item.QuantityExpected {
			anyOver = true
		}
	}

	switch {
	case allMatched:
		return models.NoteStatusOK
	case anyOver:
		return models.NoteStatusDiscrepancy
	default:
		return models.NoteStatusPending
	}
}

// EffectiveStatus is the derived status unless the note was closed as a
// discrepancy, which holds until a successful close(ok).
func EffectiveStatus(note models.DeliveryNote) models.NoteStatus {
	if note.Resolution == models.NoteResolutionDiscrepancy {
		return models.NoteStatusDiscrepancy
	}
	return DeriveStatus(note.Items)
}

// fullyMatched reports whether every line received exactly what was expected
func fullyMatched(items []models.LineItem) bool {
	for _, item := range items {
		if item.QuantityReceived != item.QuantityExpected {
			return false
		}
	}
	return true
}
