// Package payfast builds signed PayFast hosted checkout forms and verifies the
// Instant Transaction Notifications PayFast posts back.
package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bekkerfineart/gallery/internal/domain/entities"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// Payment statuses sent in the payment_status ITN field
const (
	StatusComplete = "COMPLETE"
	StatusFailed   = "FAILED"
	StatusPending  = "PENDING"
)

// Callback paths appended to the public base URL
const (
	ReturnPath = "/payment/success"
	CancelPath = "/payment/cancelled"
	NotifyPath = "/api/payment/notify"
)

const minPhoneDigits = 10

var (
	bracketsRe = regexp.MustCompile(`[()\[\]{}]`)
	quotesRe   = regexp.MustCompile(`['"]`)
	specialRe  = regexp.MustCompile(`[^\w\s-]`)
	spacesRe   = regexp.MustCompile(`\s+`)
	nonDigitRe = regexp.MustCompile(`[^0-9]`)
)

// EncodeURIComponent escapes s like the browser function of the same name. PayFast
// computes signatures over that encoding, which differs from url.QueryEscape for
// the characters !'()*~.
func EncodeURIComponent(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Signature signs a checkout form. Empty fields are skipped, the passphrase takes part
// in the alphabetical ordering and spaces are encoded as '+'.
func Signature(fields map[string]string, passphrase string) string {
	data := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		if k == "signature" {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			data[k] = v
		}
	}
	if p := strings.TrimSpace(passphrase); p != "" {
		data["passphrase"] = p
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.ReplaceAll(EncodeURIComponent(data[k]), "%20", "+"))
	}
	return md5Hex(strings.Join(parts, "&"))
}

// NotificationSignature computes the signature PayFast attaches to an ITN. Keys are
// sorted, empty values skipped and the passphrase, when set, is appended last.
func NotificationSignature(fields map[string]string, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k != "signature" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, k+"="+EncodeURIComponent(fields[k]))
	}
	s := strings.Join(parts, "&")
	if passphrase != "" {
		s += "&passphrase=" + EncodeURIComponent(passphrase)
	}
	return md5Hex(s)
}

// Notification is a parsed ITN callback
type Notification struct {
	MerchantID  string
	PaymentID   string
	PfPaymentID string
	Status      string
	AmountGross string
	ItemName    string
	Email       string
	Signature   string
	Fields      map[string]string
}

// ParseNotification flattens the posted form, keeping the first value of each key
func ParseNotification(form url.Values) *Notification {
	fields := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return &Notification{
		MerchantID:  fields["merchant_id"],
		PaymentID:   fields["m_payment_id"],
		PfPaymentID: fields["pf_payment_id"],
		Status:      fields["payment_status"],
		AmountGross: fields["amount_gross"],
		ItemName:    fields["item_name"],
		Email:       fields["email_address"],
		Signature:   fields["signature"],
		Fields:      fields,
	}
}

// Verify checks the signature and the merchant id of the notification
func (n *Notification) Verify(merchantID, passphrase string) error {
	expected := NotificationSignature(n.Fields, passphrase)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.Signature))) != 1 {
		return entities.ErrInvalidSignature
	}
	if n.MerchantID != merchantID {
		return entities.ErrInvalidMerchant
	}
	return nil
}

// Sanitize strips the characters PayFast rejects in item names and descriptions
func Sanitize(text string) string {
	text = bracketsRe.ReplaceAllString(text, "")
	text = quotesRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "&", "and")
	text = specialRe.ReplaceAllString(text, "")
	text = spacesRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanPhone normalises a South African number to local digits. The second result is
// false when fewer than ten digits remain.
func CleanPhone(phone string) (string, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", false
	}
	if strings.HasPrefix(phone, "+27") {
		phone = "0" + phone[3:]
	}
	phone = nonDigitRe.ReplaceAllString(phone, "")
	return phone, len(phone) >= minPhoneDigits
}

// FormatAmount renders an amount with two decimals
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// BuildPayment assembles the signed form fields for a hosted checkout
func BuildPayment(cfg config.PayFastConfig, baseURL string, req ports.PaymentRequest) map[string]string {
	baseURL = strings.TrimRight(baseURL, "/")

	description := req.ItemDescription
	if strings.TrimSpace(description) == "" {
		description = req.ItemName
	}

	data := map[string]string{
		"merchant_id":      cfg.MerchantID,
		"merchant_key":     cfg.MerchantKey,
		"return_url":       baseURL + ReturnPath,
		"cancel_url":       baseURL + CancelPath,
		"notify_url":       baseURL + NotifyPath,
		"name_first":       req.FirstName,
		"name_last":        req.LastName,
		"email_address":    req.Email,
		"m_payment_id":     req.PaymentID,
		"amount":           FormatAmount(req.Amount.Float64()),
		"item_name":        Sanitize(req.ItemName),
		"item_description": Sanitize(description),
	}
	if phone, ok := CleanPhone(req.Phone); ok {
		data["cell_number"] = phone
	}

	data["signature"] = Signature(data, cfg.Passphrase)
	return data
}
