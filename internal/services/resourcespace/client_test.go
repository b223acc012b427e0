package resourcespace_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"archivist/internal/config"
	"archivist/internal/locator"
	"archivist/internal/services/resourcespace"
)

func TestSignMatchesSHA256OfKeyAndQuery(t *testing.T) {
	got := resourcespace.Sign("key", "user=u&function=f")
	if len(got) != 64 || strings.ToLower(got) != got {
		t.Fatalf("expected lowercase hex digest, got %q", got)
	}
	if resourcespace.Sign("key", "user=u&function=f") != got {
		t.Fatal("sign must be deterministic")
	}
	if resourcespace.Sign("other", "user=u&function=f") == got {
		t.Fatal("sign must depend on the key")
	}
}

func TestQuerySignsAndStripsQuoting(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`"\/filestore\/42\/primary.mp4"`))
	}))
	defer server.Close()

	client := resourcespace.New(resourcespace.Options{BaseURL: server.URL + "/", User: "archivist", APIKey: "secret"})
	params := locator.PrimaryParams("42", "mp4")
	got, err := client.Query(context.Background(), locator.FunctionResourcePath, params)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if got != "/filestore/42/primary.mp4" {
		t.Fatalf("response = %q", got)
	}

	query := "user=archivist&function=get_resource_path&" + params
	want := query + "&sign=" + resourcespace.Sign("secret", query)
	if rawQuery != want {
		t.Fatalf("raw query = %q, want %q", rawQuery, want)
	}
}

func TestQueryNon200IsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := resourcespace.New(resourcespace.Options{BaseURL: server.URL, User: "u", APIKey: "k"})
	_, err := client.Query(context.Background(), "get_alternative_files", "param1=1&param2=&param3=")
	var statusErr *resourcespace.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected StatusError 401, got %v", err)
	}
}

func TestQueryRequiresBaseURL(t *testing.T) {
	client := resourcespace.New(resourcespace.Options{})
	if _, err := client.Query(context.Background(), "get_resource_path", ""); err == nil {
		t.Fatal("expected error without base url")
	}
}

func TestQueryHonoursCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent")
	}))
	defer server.Close()

	client := resourcespace.New(resourcespace.Options{BaseURL: server.URL, RequestsPerSecond: 0.001, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Query(ctx, "get_resource_path", ""); err == nil {
		t.Fatal("expected cancelled context error")
	}
}

func TestNewFromConfigFeedsLocator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case locator.FunctionAlternativeFiles:
			_, _ = w.Write([]byte(`[{"ref":"7","file_extension":"wav"}]`))
		default:
			if r.URL.Query().Get("param8") == "7" {
				_, _ = w.Write([]byte(`"/fs/alt7.wav"`))
				return
			}
			_, _ = w.Write([]byte(`"/fs/primary.mp4"`))
		}
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.ResourceSpace.BaseURL = server.URL
	cfg.ResourceSpace.User = "u"
	cfg.ResourceSpace.APIKey = "k"
	cfg.ResourceSpace.RequestsPerSecond = 0

	files, err := locator.New(resourcespace.NewFromConfig(&cfg, nil)).Locate(context.Background(), "9", config.MediaVideo)
	if err != nil {
		t.Fatalf("Locate returned error: %v", err)
	}
	if len(files) != 2 || files[0] != "/fs/primary.mp4" || files[1] != "/fs/alt7.wav" {
		t.Fatalf("unexpected files: %v", files)
	}
}
