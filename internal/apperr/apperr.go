// server/internal/apperr/apperr.go
package apperr

import "errors"

// Sentinel errors của core; handler map chúng sang HTTP status.
var (
	// NotFound: id không tồn tại hoặc sai định dạng.
	NotFound = errors.New("not found")
	// InvalidArgument: input hỏng, bị từ chối trước mọi mutation.
	InvalidArgument = errors.New("invalid argument")
	// InvalidState: entity tồn tại nhưng đang ở pha không cho phép thao tác.
	InvalidState = errors.New("invalid state")
	// NoPartnerAvailable: không có đối tác đủ điều kiện trong bán kính.
	// Tách riêng khỏi lỗi server để caller đưa ra phương án thay thế.
	NoPartnerAvailable = errors.New("no delivery partner available")
)

// IsClientError báo lỗi thuộc về phía gọi, không nên retry tự động.
func IsClientError(err error) bool {
	return errors.Is(err, NotFound) ||
		errors.Is(err, InvalidArgument) ||
		errors.Is(err, InvalidState) ||
		errors.Is(err, NoPartnerAvailable)
}
