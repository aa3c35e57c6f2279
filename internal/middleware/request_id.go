package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===========================================================================
// Request ID Middleware
// Thêm unique ID cho mỗi request để tracking và debugging
// ID được lưu trong context và trả về trong response header
// ===========================================================================

const (
	// RequestIDKey key để lưu request ID trong gin context
	RequestIDKey = "request_id"

	// RequestIDHeader tên header chứa request ID
	RequestIDHeader = "X-Request-ID"
)

// RequestID middleware thêm unique ID cho mỗi request
// Client có thể truyền X-Request-ID riêng (ví dụ messaging layer forward
// inbound message kèm correlation id), nếu không thì generate UUID mới
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		// ID từ client quá dài hoặc rỗng thì bỏ, generate mới
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}

		// Lưu vào context để handler/service log kèm
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID lấy request ID từ gin context
// Trả về empty string nếu không có
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}
