package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quickmeds-api-server/internal/models"
)

func TestSplitItems_Partition(t *testing.T) {
	requested := []string{"Amoxicillin", "Brufen", "Cetirizine"}
	q := &models.PharmacyQuote{
		Items: []models.OrderItem{
			{Name: "Amoxicillin", Price: 120},
			{Name: "Brufen", Price: 45},
		},
		Unavailable: []string{"Cetirizine"},
	}

	covered, remainder := SplitItems(requested, q)
	require.Equal(t, []string{"Amoxicillin", "Brufen"}, covered)
	require.Equal(t, []string{"Cetirizine"}, remainder)

	// Hợp của hai phần đúng bằng tập gốc, không trùng không sót.
	union := append(append([]string{}, covered...), remainder...)
	require.ElementsMatch(t, requested, union)
}

func TestSplitItems_CaseInsensitive(t *testing.T) {
	requested := []string{"amoxicillin", "BRUFEN"}
	q := &models.PharmacyQuote{
		Items: []models.OrderItem{
			{Name: "Amoxicillin"},
			{Name: "brufen"},
		},
	}
	covered, remainder := SplitItems(requested, q)
	require.Len(t, covered, 2)
	require.Empty(t, remainder)
}

func TestSplitItems_DuplicateRequestLines(t *testing.T) {
	requested := []string{"Brufen", "Brufen", "Insulin"}
	q := &models.PharmacyQuote{Items: []models.OrderItem{{Name: "Brufen"}}}

	covered, remainder := SplitItems(requested, q)
	require.Equal(t, []string{"Brufen"}, covered)
	require.Equal(t, []string{"Insulin"}, remainder)
}

func TestSplitItems_NothingAvailable(t *testing.T) {
	requested := []string{"Insulin"}
	q := &models.PharmacyQuote{Unavailable: []string{"Insulin"}}

	covered, remainder := SplitItems(requested, q)
	require.Empty(t, covered)
	require.Equal(t, []string{"Insulin"}, remainder)
}

func TestQuoteTotal(t *testing.T) {
	items := []models.OrderItem{
		{Name: "A", Price: 10, Quantity: 2},
		{Name: "B", Price: 5}, // quantity 0 tính là 1
	}
	require.Equal(t, 25.0, QuoteTotal(items))
	require.Equal(t, 0.0, QuoteTotal(nil))
}

func TestRankQuotes_AvailabilityThenPrice(t *testing.T) {
	now := time.Now()
	quotes := []models.PharmacyQuote{
		{PharmacyID: "partial-cheap", Total: 50, Unavailable: []string{"X"}, QuotedAt: now},
		{PharmacyID: "full-expensive", Total: 200, QuotedAt: now},
		{PharmacyID: "full-cheap", Total: 100, QuotedAt: now},
	}

	ranked := RankQuotes(quotes)
	require.Equal(t, "full-cheap", ranked[0].PharmacyID)
	require.Equal(t, "full-expensive", ranked[1].PharmacyID)
	require.Equal(t, "partial-cheap", ranked[2].PharmacyID)

	// Input không bị xáo trộn.
	require.Equal(t, "partial-cheap", quotes[0].PharmacyID)
}

func TestRankQuotes_TieBreakByQuotedAt(t *testing.T) {
	early := time.Now()
	late := early.Add(time.Minute)
	quotes := []models.PharmacyQuote{
		{PharmacyID: "late", Total: 100, QuotedAt: late},
		{PharmacyID: "early", Total: 100, QuotedAt: early},
	}
	ranked := RankQuotes(quotes)
	require.Equal(t, "early", ranked[0].PharmacyID)
}

func TestRemainingCandidates(t *testing.T) {
	candidates := []string{"PH-1", "PH-2", "PH-3"}
	tried := []string{"PH-2"}
	require.Equal(t, []string{"PH-1", "PH-3"}, remainingCandidates(candidates, tried))
	require.Empty(t, remainingCandidates([]string{"PH-1"}, []string{"PH-1"}))
}
