package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind discriminates the QR payload variants.
type Kind string

const (
	KindURL   Kind = "url"
	KindText  Kind = "text"
	KindWiFi  Kind = "wifi"
	KindEmail Kind = "email"
)

// ParseKind maps a wire value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindURL, KindText, KindWiFi, KindEmail:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}

// Payload is one of URLPayload, TextPayload, WiFiPayload or EmailPayload.
type Payload interface {
	Kind() Kind
	// Validate checks the kind-specific required fields.
	Validate() error
}

// URLPayload asks for a short link to URL. The QR image encodes the short
// link, never URL itself.
type URLPayload struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// TextPayload encodes Text literally.
type TextPayload struct {
	Text string `json:"text"`
}

// Encryption is the Wi-Fi authentication type.
type Encryption string

const (
	EncryptionWPA    Encryption = "WPA"
	EncryptionWEP    Encryption = "WEP"
	EncryptionNoPass Encryption = "nopass"
)

// WiFiPayload encodes network credentials in the WIFI: scheme.
type WiFiPayload struct {
	SSID       string     `json:"ssid"`
	Password   string     `json:"password,omitempty"`
	Encryption Encryption `json:"encryption"`
}

// EmailPayload encodes a mailto: URI.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

func (URLPayload) Kind() Kind   { return KindURL }
func (TextPayload) Kind() Kind  { return KindText }
func (WiFiPayload) Kind() Kind  { return KindWiFi }
func (EmailPayload) Kind() Kind { return KindEmail }

func (p URLPayload) Validate() error {
	_, err := ValidateURL(p.URL)
	return err
}

func (p TextPayload) Validate() error {
	if p.Text == "" {
		return ErrEmptyPayload
	}
	return nil
}

func (p WiFiPayload) Validate() error {
	if strings.TrimSpace(p.SSID) == "" {
		return ErrSSIDRequired
	}
	_, err := p.encryption()
	return err
}

func (p EmailPayload) Validate() error {
	if strings.TrimSpace(p.To) == "" {
		return ErrRecipientRequired
	}
	return nil
}

// encryption returns the effective type; empty defaults to WPA.
func (p WiFiPayload) encryption() (Encryption, error) {
	switch p.Encryption {
	case "":
		return EncryptionWPA, nil
	case EncryptionWPA, EncryptionWEP, EncryptionNoPass:
		return p.Encryption, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidEncryption, p.Encryption)
	}
}

// FormatText returns the literal text payload.
func FormatText(p TextPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p.Text, nil
}

// wifiEscaper prefixes \ ; , : and " with a backslash.
var wifiEscaper = strings.NewReplacer(
	`\`, `\\`,
	`;`, `\;`,
	`,`, `\,`,
	`:`, `\:`,
	`"`, `\"`,
)

// EscapeWiFi escapes a value for the WIFI: payload format.
func EscapeWiFi(s string) string {
	return wifiEscaper.Replace(s)
}

// FormatWiFi builds WIFI:T:<enc>;S:<ssid>;P:<password>;;
func FormatWiFi(p WiFiPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	enc, _ := p.encryption()

	var b strings.Builder
	b.WriteString("WIFI:T:")
	b.WriteString(string(enc))
	b.WriteString(";S:")
	b.WriteString(EscapeWiFi(p.SSID))
	b.WriteString(";P:")
	b.WriteString(EscapeWiFi(p.Password))
	b.WriteString(";;")
	return b.String(), nil
}

// FormatEmail builds mailto:<to>[?subject=...&body=...]. Subject and body are
// percent-encoded and only included when non-empty.
func FormatEmail(p EmailPayload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	params := make([]string, 0, 2)
	if p.Subject != "" {
		params = append(params, "subject="+percentEncode(p.Subject))
	}
	if p.Body != "" {
		params = append(params, "body="+percentEncode(p.Body))
	}

	out := "mailto:" + strings.TrimSpace(p.To)
	if len(params) > 0 {
		out += "?" + strings.Join(params, "&")
	}
	return out, nil
}

// percentEncode escapes like QueryEscape but encodes spaces as %20.
// QueryEscape turns a literal '+' into %2B, so every '+' left is a space.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ShortLinkURL returns the absolute short link for shortID under baseURL.
func ShortLinkURL(baseURL, shortID string) string {
	return strings.TrimRight(baseURL, "/") + "/r/" + shortID
}

// Format returns the QR payload for the non-URL kinds. URL payloads encode a
// short link and therefore need a store; see links.Service.Generate.
func Format(p Payload) (string, error) {
	var (
		out string
		err error
	)
	switch v := p.(type) {
	case TextPayload:
		out, err = FormatText(v)
	case WiFiPayload:
		out, err = FormatWiFi(v)
	case EmailPayload:
		out, err = FormatEmail(v)
	case URLPayload:
		return "", fmt.Errorf("%w: url payloads encode a short link", ErrUnsupportedType)
	default:
		return "", ErrUnsupportedType
	}
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", ErrEmptyPayload
	}
	return out, nil
}
