// server/internal/routing/oracle.go
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Oracle hỏi một dịch vụ định tuyến kiểu OSRM để lấy ETA hiển thị.
// Chỉ dùng cho hiển thị — quyết định điều phối không phụ thuộc vào ETA.
type Oracle struct {
	BaseURL string
	Client  *http.Client
}

func NewOracle(baseURL string) *Oracle {
	return &Oracle{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// ETA trả về thời gian di chuyển ước tính giữa hai tọa độ.
// Dịch vụ lỗi hoặc chưa cấu hình thì trả 0 — caller hiển thị "đang cập nhật".
func (o *Oracle) ETA(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (time.Duration, error) {
	if o.BaseURL == "" {
		return 0, fmt.Errorf("routing service not configured")
	}

	// OSRM route API: /route/v1/driving/{lng},{lat};{lng},{lat}
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		o.BaseURL, fromLng, fromLat, toLng, toLat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("routing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("routing service returned %d", resp.StatusCode)
	}

	var body struct {
		Routes []struct {
			Duration float64 `json:"duration"` // seconds
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode routing response: %w", err)
	}
	if len(body.Routes) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	return time.Duration(body.Routes[0].Duration * float64(time.Second)), nil
}
