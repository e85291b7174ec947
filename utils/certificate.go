package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CertificateNumber derives a certificate identifier from the enrollment
// identity and the issuance instant. The same enrollment issued at the same
// instant always yields the same identifier.
func CertificateNumber(userID, courseID uint, issuedAt time.Time) string {
	return fmt.Sprintf("CERT-%d-%d-%d", userID, courseID, issuedAt.UnixMilli())
}

// CertificateDownloadURL builds the download locator for an issued certificate
func CertificateDownloadURL(certificateNumber string) string {
	return "/api/certificates/" + certificateNumber + "/download"
}

// NewReceiptNumber mints an internal receipt number for a recorded payment
func NewReceiptNumber() string {
	return "RCPT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:20]
}
