package services

import (
	"math/rand"
	"testing"

	"delivery_notes_app_go/models"

	"github.com/stretchr/testify/assert"
)

func items(pairs ...[2]int) []models.LineItem {
	out := make([]models.LineItem, len(pairs))
	for i, p := range pairs {
		out[i] = models.LineItem{Position: i, Description: "item", QuantityExpected: p[0], QuantityReceived: p[1]}
	}
	return out
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.LineItem
		expected models.NoteStatus
	}{
		{"nothing received", items([2]int{10, 0}, [2]int{5, 0}), models.NoteStatusPending},
		{"partially received", items([2]int{10, 4}, [2]int{5, 5}), models.NoteStatusPending},
		{"all matched", items([2]int{10, 10}, [2]int{5, 5}), models.NoteStatusOK},
		{"one line over", items([2]int{10, 11}, [2]int{5, 5}), models.NoteStatusDiscrepancy},
		{"over beats short", items([2]int{10, 11}, [2]int{5, 0}), models.NoteStatusDiscrepancy},
		{"zero quantities", items([2]int{0, 0}), models.NoteStatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveStatus(tt.items))
		})
	}
}

// expectedStatus restates the derivation rule line by line
func expectedStatus(lines []models.LineItem) models.NoteStatus {
	over, short := 0, 0
	for _, l := range lines {
		switch {
		case l.QuantityReceived > l.QuantityExpected:
			over++
		case l.QuantityReceived < l.QuantityExpected:
			short++
		}
	}
	if over > 0 {
		return models.NoteStatusDiscrepancy
	}
	if short > 0 {
		return models.NoteStatusPending
	}
	return models.NoteStatusOK
}

func TestDeriveStatusRandomLines(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := map[models.NoteStatus]int{}

	for i := 0; i < 5000; i++ {
		lines := make([]models.LineItem, 1+rng.Intn(6))
		for j := range lines {
			expected := rng.Intn(6)
			received := expected
			// Mostly exact so every status shows up often
			switch rng.Intn(4) {
			case 0:
				received = rng.Intn(expected + 1)
			case 1:
				received = expected + rng.Intn(3)
			}
			lines[j] = models.LineItem{Position: j, QuantityExpected: expected, QuantityReceived: received}
		}

		got := DeriveStatus(lines)
		if !assert.Equal(t, expectedStatus(lines), got, "lines %+v", lines) {
			return
		}
		assert.Equal(t, got == models.NoteStatusOK, fullyMatched(lines))
		seen[got]++
	}

	assert.NotZero(t, seen[models.NoteStatusOK])
	assert.NotZero(t, seen[models.NoteStatusPending])
	assert.NotZero(t, seen[models.NoteStatusDiscrepancy])
}

func TestEffectiveStatus(t *testing.T) {
	note := models.DeliveryNote{Items: items([2]int{3, 3})}
	assert.Equal(t, models.NoteStatusOK, EffectiveStatus(note))

	note.Resolution = models.NoteResolutionDiscrepancy
	assert.Equal(t, models.NoteStatusDiscrepancy, EffectiveStatus(note))

	note.Resolution = models.NoteResolutionOK
	note.Items = items([2]int{3, 1})
	assert.Equal(t, models.NoteStatusPending, EffectiveStatus(note))
}

func TestFullyMatched(t *testing.T) {
	assert.True(t, fullyMatched(items([2]int{2, 2}, [2]int{0, 0})))
	assert.False(t, fullyMatched(items([2]int{2, 2}, [2]int{1, 2})))
	assert.True(t, fullyMatched(nil))
}
