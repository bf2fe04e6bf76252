// server/internal/invoice/invoice.go
package invoice

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"text/template"

	"quickmeds-api-server/internal/models"
	"quickmeds-api-server/internal/s3"
)

var invoiceTmpl = template.Must(template.New("invoice").Parse(`QUICKMEDS INVOICE
=================
Order:    {{.OrderID}}
Date:     {{.DeliveredAt.Format "2006-01-02 15:04"}}
Pharmacy: {{.PharmacyID}}
Customer: {{.UserID}}

Items
-----
{{range .Items}}{{printf "%-30s x%-3d %10.2f" .Name .Quantity .Price}}
{{end}}
-----
{{printf "Total: %38.2f" .Total}}

Payment: {{.PaymentMethod}} ({{.PaymentStatus}})
`))

// Render dựng hóa đơn dạng text từ snapshot đơn hàng.
func Render(order *models.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, order); err != nil {
		return nil, fmt.Errorf("render invoice for %s: %w", order.OrderID, err)
	}
	return buf.Bytes(), nil
}

// Generator render hóa đơn và lưu lên document store.
type Generator struct {
	Uploader *s3.Uploader
}

// Generate render và upload hóa đơn, trả về URL.
// Chỉ được gọi fire-and-forget sau transition DELIVERED; lỗi ở đây không
// bao giờ chặn việc hoàn tất giao hàng.
func (g *Generator) Generate(ctx context.Context, order *models.Order) (string, error) {
	data, err := Render(order)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("invoices/%s.txt", order.OrderID)
	url, err := g.Uploader.Put(ctx, key, data, "text/plain; charset=utf-8")
	if err != nil {
		return "", fmt.Errorf("store invoice for %s: %w", order.OrderID, err)
	}

	log.Printf("Invoice generated for order %s: %s", order.OrderID, url)
	return url, nil
}
