package syno

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
)

const (
	testSID   = "sid-123"
	testToken = "token-456"
)

// fakeDSM is a minimal entry.cgi implementation for exercising the client.
type fakeDSM struct {
	certs []Certificate

	imports    int
	lastFiles  map[string]string
	lastFields map[string]string
	logouts    int
}

func (f *fakeDSM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	api, method := q.Get("api"), q.Get("method")

	fail := func(code int) {
		fmt.Fprintf(w, `{"success":false,"error":{"code":%d}}`, code)
	}
	ok := func(data any) {
		resp := map[string]any{"success": true}
		if data != nil {
			resp["data"] = data
		}
		_ = json.NewEncoder(w).Encode(resp)
	}

	switch {
	case api == "SYNO.API.Auth" && method == "login":
		if q.Get("enable_syno_token") != "yes" || q.Get("format") != "sid" {
			fail(400)
			return
		}
		if q.Get("account") != "certpush" || q.Get("passwd") != "hunter2" {
			fail(400)
			return
		}
		ok(map[string]string{"sid": testSID, "synotoken": testToken})

	case api == "SYNO.API.Auth" && method == "logout":
		f.logouts++
		ok(nil)

	case api == "SYNO.Core.Certificate.CRT" && method == "list":
		if q.Get("_sid") != testSID || q.Get("SynoToken") != testToken {
			fail(119) // session expired
			return
		}
		ok(map[string]any{"certificates": f.certs})

	case api == "SYNO.Core.Certificate" && method == "import":
		if q.Get("_sid") != testSID || q.Get("SynoToken") != testToken {
			fail(119)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			fail(400)
			return
		}
		f.imports++
		f.lastFields = map[string]string{}
		for k, vs := range r.MultipartForm.Value {
			f.lastFields[k] = vs[0]
		}
		f.lastFiles = map[string]string{}
		for k, fhs := range r.MultipartForm.File {
			file, err := fhs[0].Open()
			if err != nil {
				fail(400)
				return
			}
			buf := make([]byte, fhs[0].Size)
			_, _ = file.Read(buf)
			_ = file.Close()
			f.lastFiles[k] = string(buf)
		}
		ok(nil)

	default:
		fail(101) // unknown api
	}
}

func newTestClient(t *testing.T, dsm *fakeDSM) *Client {
	t.Helper()

	srv := httptest.NewTLSServer(dsm)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}

	c, err := NewClient(u.Hostname(), port, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func login(t *testing.T, c *Client) {
	t.Helper()
	if err := c.Login(context.Background(), "certpush", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestLoginStoresSession(t *testing.T) {
	c := newTestClient(t, &fakeDSM{})
	login(t, c)
	if c.sid != testSID || c.token != testToken {
		t.Errorf("session = (%q, %q), want (%q, %q)", c.sid, c.token, testSID, testToken)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	c := newTestClient(t, &fakeDSM{})
	err := c.Login(context.Background(), "certpush", "wrong")
	if err == nil {
		t.Fatal("Login with bad password succeeded")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Errorf("err = %v, want APIError code 400", err)
	}
}

func TestFindCertificate(t *testing.T) {
	certs := []Certificate{
		{ID: "bzSgiE", Description: "my.hostname.com"},
		{ID: "q0Xxct", Description: "other.lan"},
	}

	t.Run("single match", func(t *testing.T) {
		c := newTestClient(t, &fakeDSM{certs: certs})
		login(t, c)
		cert, err := c.FindCertificate(context.Background(), "my.hostname.com")
		if err != nil {
			t.Fatalf("FindCertificate: %v", err)
		}
		if cert.ID != "bzSgiE" {
			t.Errorf("ID = %q, want bzSgiE", cert.ID)
		}
	})

	t.Run("no match", func(t *testing.T) {
		c := newTestClient(t, &fakeDSM{certs: certs})
		login(t, c)
		_, err := c.FindCertificate(context.Background(), "missing.lan")
		if !errors.Is(err, ErrCertNotFound) {
			t.Errorf("err = %v, want ErrCertNotFound", err)
		}
	})

	t.Run("ambiguous", func(t *testing.T) {
		dup := append(certs, Certificate{ID: "zzz", Description: "my.hostname.com"})
		c := newTestClient(t, &fakeDSM{certs: dup})
		login(t, c)
		_, err := c.FindCertificate(context.Background(), "my.hostname.com")
		if !errors.Is(err, ErrCertAmbiguous) {
			t.Errorf("err = %v, want ErrCertAmbiguous", err)
		}
	})
}

func TestImportCertificate(t *testing.T) {
	dsm := &fakeDSM{}
	c := newTestClient(t, dsm)
	login(t, c)

	err := c.ImportCertificate(context.Background(), "bzSgiE",
		[]byte("CERT"), []byte("KEY"), []byte("CHAIN"))
	if err != nil {
		t.Fatalf("ImportCertificate: %v", err)
	}

	if dsm.imports != 1 {
		t.Fatalf("imports = %d, want 1", dsm.imports)
	}
	if got := dsm.lastFields["id"]; got != "bzSgiE" {
		t.Errorf("id field = %q", got)
	}
	if got := dsm.lastFields["as_default"]; got != "false" {
		t.Errorf("as_default field = %q", got)
	}
	for part, want := range map[string]string{"cert": "CERT", "key": "KEY", "inter_cert": "CHAIN"} {
		if got := dsm.lastFiles[part]; got != want {
			t.Errorf("file %q = %q, want %q", part, got, want)
		}
	}
}

func TestImportCertificateWithoutChain(t *testing.T) {
	dsm := &fakeDSM{}
	c := newTestClient(t, dsm)
	login(t, c)

	if err := c.ImportCertificate(context.Background(), "bzSgiE", []byte("CERT"), []byte("KEY"), nil); err != nil {
		t.Fatalf("ImportCertificate: %v", err)
	}
	if _, present := dsm.lastFiles["inter_cert"]; present {
		t.Error("inter_cert part sent despite absent chain")
	}
}

func TestLogout(t *testing.T) {
	dsm := &fakeDSM{}
	c := newTestClient(t, dsm)

	// Without a session, logout is a silent no-op.
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout without session: %v", err)
	}
	if dsm.logouts != 0 {
		t.Fatalf("logouts = %d, want 0", dsm.logouts)
	}

	login(t, c)
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if dsm.logouts != 1 {
		t.Errorf("logouts = %d, want 1", dsm.logouts)
	}
	if c.sid != "" || c.token != "" {
		t.Error("session not cleared after logout")
	}
}
