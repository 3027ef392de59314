package domain

import (
	"errors"
	"testing"
)

func TestEscapeWiFi(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "plain", expected: "plain"},
		{input: `a\b`, expected: `a\\b`},
		{input: "a;b", expected: `a\;b`},
		{input: "a,b", expected: `a\,b`},
		{input: "a:b", expected: `a\:b`},
		{input: `a"b`, expected: `a\"b`},
		{input: `\;,:"`, expected: `\\\;\,\:\"`},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		if got := EscapeWiFi(tt.input); got != tt.expected {
			t.Errorf("EscapeWiFi(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatWiFi(t *testing.T) {
	tests := []struct {
		name     string
		payload  WiFiPayload
		expected string
		wantErr  error
	}{
		{
			name:     "escaped ssid without password",
			payload:  WiFiPayload{SSID: `My;Net"work`, Encryption: EncryptionWPA},
			expected: `WIFI:T:WPA;S:My\;Net\"work;P:;;`,
		},
		{
			name:     "wep with escaped password",
			payload:  WiFiPayload{SSID: "home", Password: "p:a,ss", Encryption: EncryptionWEP},
			expected: `WIFI:T:WEP;S:home;P:p\:a\,ss;;`,
		},
		{
			name:     "open network",
			payload:  WiFiPayload{SSID: "cafe", Encryption: EncryptionNoPass},
			expected: `WIFI:T:nopass;S:cafe;P:;;`,
		},
		{
			name:     "empty encryption defaults to WPA",
			payload:  WiFiPayload{SSID: "net", Password: "secret"},
			expected: `WIFI:T:WPA;S:net;P:secret;;`,
		},
		{
			name:    "missing ssid",
			payload: WiFiPayload{Encryption: EncryptionWPA},
			wantErr: ErrSSIDRequired,
		},
		{
			name:    "unknown encryption",
			payload: WiFiPayload{SSID: "net", Encryption: "WPA3"},
			wantErr: ErrInvalidEncryption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatWiFi(tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FormatWiFi() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatWiFi() unexpected error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("FormatWiFi() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormatEmail(t *testing.T) {
	tests := []struct {
		name     string
		payload  EmailPayload
		expected string
		wantErr  error
	}{
		{
			name:     "body only",
			payload:  EmailPayload{To: "a@example.com", Body: "hello world"},
			expected: "mailto:a@example.com?body=hello%20world",
		},
		{
			name:     "recipient only",
			payload:  EmailPayload{To: "a@example.com"},
			expected: "mailto:a@example.com",
		},
		{
			name:     "subject and body",
			payload:  EmailPayload{To: "a@example.com", Subject: "Hi & bye", Body: "1+1=2"},
			expected: "mailto:a@example.com?subject=Hi%20%26%20bye&body=1%2B1%3D2",
		},
		{
			name:    "missing recipient",
			payload: EmailPayload{Subject: "x"},
			wantErr: ErrRecipientRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatEmail(tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FormatEmail() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatEmail() unexpected error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("FormatEmail() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if _, err := Format(TextPayload{}); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Format(empty text) error = %v, want ErrEmptyPayload", err)
	}

	got, err := Format(TextPayload{Text: "hello"})
	if err != nil || got != "hello" {
		t.Errorf("Format(text) = %q, %v", got, err)
	}

	if _, err := Format(URLPayload{URL: "https://example.com"}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Format(url) error = %v, want ErrUnsupportedType", err)
	}

	if _, err := Format(nil); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Format(nil) error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"url", "TEXT", " wifi ", "email"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) error = %v", s, err)
		}
	}

	_, err := ParseKind("vcard")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("ParseKind(vcard) error = %v, want ErrUnsupportedType", err)
	}
	if !IsClientError(err) {
		t.Error("unsupported type should be a client error")
	}
}

func TestShortLinkURL(t *testing.T) {
	tests := []struct {
		base     string
		expected string
	}{
		{base: "https://qr.example.com", expected: "https://qr.example.com/r/abcd1234"},
		{base: "https://qr.example.com/", expected: "https://qr.example.com/r/abcd1234"},
		{base: "http://localhost:8080", expected: "http://localhost:8080/r/abcd1234"},
	}

	for _, tt := range tests {
		if got := ShortLinkURL(tt.base, "abcd1234"); got != tt.expected {
			t.Errorf("ShortLinkURL(%q) = %q, want %q", tt.base, got, tt.expected)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "https", input: "https://example.com/path?q=1"},
		{name: "surrounding spaces", input: "  http://example.com  "},
		{name: "ftp", input: "ftp://files.example.com/a.txt"},
		{name: "empty", input: "", wantErr: ErrURLRequired},
		{name: "relative", input: "/just/a/path", wantErr: ErrInvalidURL},
		{name: "no scheme", input: "example.com", wantErr: ErrInvalidURL},
		{name: "http without host", input: "http:///nohost", wantErr: ErrInvalidURL},
		{name: "javascript", input: "javascript:alert(1)", wantErr: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateURL(tt.input)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateURL(%q) error = %v, want nil", tt.input, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateURL(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
