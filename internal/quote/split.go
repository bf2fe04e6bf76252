// server/internal/quote/split.go
package quote

import (
	"sort"
	"strings"

	"quickmeds-api-server/internal/models"
)

// SplitItems chia tập dòng thuốc được hỏi theo độ phủ của một báo giá:
// covered là các dòng báo giá có sẵn, remainder là phần còn thiếu.
//
// Bất biến: covered và remainder rời nhau và hợp lại đúng bằng requested —
// không dòng nào được fulfill hai lần, không dòng nào rơi mất.
func SplitItems(requested []string, q *models.PharmacyQuote) (covered, remainder []string) {
	available := make(map[string]bool, len(q.Items))
	for _, item := range q.Items {
		available[normalizeItem(item.Name)] = true
	}

	covered = make([]string, 0, len(requested))
	remainder = make([]string, 0)
	seen := make(map[string]bool, len(requested))
	for _, name := range requested {
		key := normalizeItem(name)
		if seen[key] {
			continue // dòng trùng trong request chỉ tính một lần
		}
		seen[key] = true
		if available[key] {
			covered = append(covered, name)
		} else {
			remainder = append(remainder, name)
		}
	}
	return covered, remainder
}

func normalizeItem(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// QuoteTotal tính tổng tiền của một báo giá từ các dòng của nó.
func QuoteTotal(items []models.OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += item.Price * float64(qty)
	}
	return total
}

// RankQuotes sắp các báo giá theo thứ tự trình cho người dùng:
// báo giá phủ đủ hàng đứng trước báo giá thiếu hàng, trong cùng nhóm thì
// rẻ hơn đứng trước, cùng giá thì báo sớm hơn đứng trước.
func RankQuotes(quotes []models.PharmacyQuote) []models.PharmacyQuote {
	ranked := make([]models.PharmacyQuote, len(quotes))
	copy(ranked, quotes)

	sort.SliceStable(ranked, func(i, j int) bool {
		fi, fj := ranked[i].FullyAvailable(), ranked[j].FullyAvailable()
		if fi != fj {
			return fi
		}
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total < ranked[j].Total
		}
		return ranked[i].QuotedAt.Before(ranked[j].QuotedAt)
	})
	return ranked
}

// remainingCandidates loại các nhà thuốc đã thử khỏi danh sách ứng viên.
func remainingCandidates(candidates, tried []string) []string {
	triedSet := make(map[string]bool, len(tried))
	for _, id := range tried {
		triedSet[id] = true
	}
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !triedSet[id] {
			out = append(out, id)
		}
	}
	return out
}
