package gcsv4signer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testEmail = "test@test.iam.gserviceaccount.com"

func testSigner(t *testing.T) *Signer {
	t.Helper()

	s, err := CredentialsFromFile("testdata/service-account.json")
	if err != nil {
		t.Fatalf("load test credentials: %v", err)
	}
	return s
}

// Golden URL for the frozen instant 2024-01-15T10:00:00Z, computed with
// an OpenSSL reference. The same fixture is asserted stage by stage in
// internal/gcssign.
func TestSignURLGolden(t *testing.T) {
	s := testSigner(t)
	frozen := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	got, err := s.SignURL("example-bucket", "my/object.txt", "get",
		WithExpires(3600),
		WithSigningTime(frozen),
	)
	if err != nil {
		t.Fatalf("SignURL: %v", err)
	}

	want := "https://example-bucket.storage.googleapis.com/my%2Fobject.txt?" +
		"X-Goog-Algorithm=GOOG4-RSA-SHA256&X-Goog-Credential=test%40test.iam.gserviceaccount.com%2F20240115%2Fauto%2Fstorage%2Fgoog4_request&X-Goog-Date=20240115T100000Z&X-Goog-Expires=3600&X-Goog-SignedHeaders=host" +
		"&x-goog-signature=6137a1c3a06d570e96fc8bc2dbe26a2d42c379021e56a83727a8a97689b9ecd3a3374dc1fa02cb9598ef98da2fc1654934a9ceb36f0e8f6022a7f15296f507d52580307820688ea330056212c8954126aa418c6efcd5919d1d3ebcd297adcc1a81c8b68155d26164e8c8031d22377b7e4bebbb679165ef8748750556d414ac8059ab31d0eb7f581074595d5172d1d5b6cc84f0785457a98b32c72a480cfe1e26e59e94fdc010726b6e72915bf88b11a9db7f753387e1b6480c3dc1f4a268067d9fea10dd29c6b301601870189e2b11968ad380d01981a876dcfee3703e07036a38119117dcce78524b7fc5482977dc9c094443792d5902321fa77cc639800eb5"

	if got != want {
		t.Errorf("signed URL mismatch\ngot:  %s\nwant: %s", got, want)
	}
}

func TestSignURLDefaults(t *testing.T) {
	s := testSigner(t)

	u, err := s.SignURL("bucket", "object", "GET")
	if err != nil {
		t.Fatalf("SignURL: %v", err)
	}

	for _, want := range []string{
		"https://bucket.storage.googleapis.com/object?",
		"X-Goog-Expires=604800&",
		"X-Goog-SignedHeaders=host&",
		"&x-goog-signature=",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("URL missing %q: %s", want, u)
		}
	}
}

func TestSignURLErrors(t *testing.T) {
	s := testSigner(t)

	if _, err := s.SignURL("b", "o", "CONNECT"); !errors.Is(err, ErrUnsupportedMethod) {
		t.Errorf("want ErrUnsupportedMethod, got %v", err)
	}
	if _, err := s.SignURL("b", "o", "GET", WithExpires(-5)); !errors.Is(err, ErrInvalidExpiration) {
		t.Errorf("want ErrInvalidExpiration, got %v", err)
	}
	if _, err := s.SignURL("b", "o", "GET", WithExpires(604801)); !errors.Is(err, ErrInvalidExpiration) {
		t.Errorf("want ErrInvalidExpiration, got %v", err)
	}

	bad := &Signer{GoogleAccessID: testEmail, PrivateKey: []byte("garbage")}
	if _, err := bad.SignURL("b", "o", "GET"); !errors.Is(err, ErrKeyDecode) {
		t.Errorf("want ErrKeyDecode, got %v", err)
	}
}

func TestSignBytesHook(t *testing.T) {
	var sawInput []byte
	s := &Signer{
		GoogleAccessID: testEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			sawInput = append([]byte(nil), b...)
			return []byte{0xde, 0xad, 0xbe, 0xef}, nil
		},
	}
	frozen := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	u, err := s.SignURL("bucket", "object", "GET", WithExpires(60), WithSigningTime(frozen))
	if err != nil {
		t.Fatalf("SignURL: %v", err)
	}
	if !strings.HasSuffix(u, "&x-goog-signature=deadbeef") {
		t.Errorf("hook signature not in URL: %s", u)
	}

	// The hook receives the string-to-sign, not the canonical request.
	input := string(sawInput)
	if !strings.HasPrefix(input, "GOOG4-RSA-SHA256\n20240115T100000Z\n20240115/auto/storage/goog4_request\n") {
		t.Errorf("hook input is not the string-to-sign:\n%s", input)
	}

	failing := &Signer{
		GoogleAccessID: testEmail,
		SignBytes: func([]byte) ([]byte, error) {
			return nil, errors.New("kms timeout")
		},
	}
	if _, err := failing.SignURL("b", "o", "GET"); !errors.Is(err, ErrSigning) {
		t.Errorf("want ErrSigning, got %v", err)
	}
}

func TestOptionsCarried(t *testing.T) {
	s := testSigner(t)
	frozen := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

	u, err := s.SignURL("example-bucket", "reports/2024 summary.txt", "PUT",
		WithExpires(600),
		WithHeaders(map[string]string{"Content-Type": "Text/Plain"}),
		WithQueries(map[string]string{"generation": "1234"}),
		WithSubresource("acl"),
		WithSigningTime(frozen),
	)
	if err != nil {
		t.Fatalf("SignURL: %v", err)
	}

	for _, want := range []string{
		"/reports%2F2024+summary.txt?",
		"X-Goog-SignedHeaders=content-type%3Bhost&",
		"&acl=&",
		"&generation=1234&",
		"X-Goog-Expires=600&",
		"X-Goog-Date=20240301T083000Z&",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("URL missing %q: %s", want, u)
		}
	}
}

func TestCredentialsFromFile(t *testing.T) {
	s, err := CredentialsFromFile("testdata/service-account.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.GoogleAccessID != testEmail {
		t.Errorf("GoogleAccessID = %q, want %q", s.GoogleAccessID, testEmail)
	}
	if len(s.PrivateKey) == 0 {
		t.Error("PrivateKey is empty")
	}

	if _, err := CredentialsFromFile("testdata/does-not-exist.json"); !errors.Is(err, ErrCredentialRead) {
		t.Errorf("want ErrCredentialRead, got %v", err)
	}
}

func TestCredentialsFromJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json"},
		{name: "wrong type", data: `{"type":"authorized_user","client_id":"x"}`},
		{name: "missing key", data: `{"type":"service_account","client_email":"a@b.iam.gserviceaccount.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CredentialsFromJSON([]byte(tt.data)); !errors.Is(err, ErrCredentialParse) {
				t.Errorf("want ErrCredentialParse, got %v", err)
			}
		})
	}
}

func TestCredentialsFromFileNoKey(t *testing.T) {
	if _, err := CredentialsFromFile("testdata/service-account-nokey.json"); !errors.Is(err, ErrCredentialParse) {
		t.Errorf("want ErrCredentialParse, got %v", err)
	}
}

func TestConcurrentSigning(t *testing.T) {
	s := testSigner(t)
	frozen := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	want, err := s.SignURL("bucket", "object", "GET", WithExpires(60), WithSigningTime(frozen))
	if err != nil {
		t.Fatalf("SignURL: %v", err)
	}

	// Invocations share no mutable state; concurrent use needs no locks.
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			u, err := s.SignURL("bucket", "object", "GET", WithExpires(60), WithSigningTime(frozen))
			if err == nil && u != want {
				err = errors.New("concurrent result diverged")
			}
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}
