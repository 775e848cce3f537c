package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
	"github.com/goliatone/go-formcrud/pkg/transport"
)

type capturedRequest struct {
	Method string
	Path   string
	Body   map[string]any
	Header string
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*transport.Client, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := capturedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Get("X-Trace")}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			if err := json.Unmarshal(raw, &req.Body); err != nil {
				t.Errorf("decode request body: %v", err)
			}
		}
		seen = append(seen, req)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := transport.NewClient(srv.URL+"/api/", model.DefaultUserSchema(),
		transport.WithHTTPClient(srv.Client()),
		transport.WithHeader("X-Trace", "t-1"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, &seen
}

func TestNewClientValidatesInput(t *testing.T) {
	if _, err := transport.NewClient("ftp://example.com", model.DefaultUserSchema()); err == nil {
		t.Fatalf("expected scheme error")
	}
	if _, err := transport.NewClient("http://example.com", model.Schema{}); err == nil {
		t.Fatalf("expected resource error")
	}
	client, err := transport.NewClient("http://example.com/api/", model.DefaultUserSchema())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if got := client.CollectionURL(); got != "http://example.com/api/users" {
		t.Fatalf("collection url = %q", got)
	}
}

func TestListDecodesInOrder(t *testing.T) {
	client, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":2,"firstName":"Bo"},{"id":"1","firstName":"Al"}]`)
	})

	records, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].ID != "2" || records[1].Fields["firstName"] != "Al" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if (*seen)[0].Method != http.MethodGet || (*seen)[0].Path != "/api/users" || (*seen)[0].Header != "t-1" {
		t.Fatalf("unexpected request: %+v", (*seen)[0])
	}
}

func TestCreateOmitsIDAndReturnsAssigned(t *testing.T) {
	client, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"abc","firstName":"Ada","lastName":"L","email":"a@b.co","phoneNumber":"5551234567"}`)
	})

	input := record.Record{ID: "ignored", Fields: map[string]string{"firstName": "Ada", "lastName": "L", "email": "a@b.co", "phoneNumber": "5551234567"}}
	created, err := client.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "abc" {
		t.Fatalf("id = %q", created.ID)
	}

	got := (*seen)[0]
	if got.Method != http.MethodPost || got.Path != "/api/users" {
		t.Fatalf("unexpected request %s %s", got.Method, got.Path)
	}
	if _, ok := got.Body["id"]; ok {
		t.Fatalf("create body must not carry id: %v", got.Body)
	}
}

func TestUpdateAndDeleteTargetItem(t *testing.T) {
	client, seen := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = io.WriteString(w, `{"id":"u 1","firstName":"Ada","createdAt":"2024"}`)
	})

	updated, err := client.Update(context.Background(), "u 1", record.Record{
		Fields: map[string]string{"firstName": "Ada"},
		Extra:  map[string]any{"createdAt": "2024"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Extra["createdAt"] != "2024" {
		t.Fatalf("extra not decoded: %v", updated.Extra)
	}
	if err := client.Delete(context.Background(), "u 1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"PUT /api/users/u 1", "DELETE /api/users/u 1"}
	var got []string
	for _, req := range *seen {
		got = append(got, req.Method+" "+req.Path)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}
	if (*seen)[0].Body["createdAt"] != "2024" {
		t.Fatalf("extra not sent on update: %v", (*seen)[0].Body)
	}
}

func TestFailuresCarryMessageStatusAndFields(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusInternalServerError)
		case http.MethodPost:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"message":"Validation failed","errors":{"/body/email":["Please enter a valid email address"],"phoneNumber":"Taken","form":["Try later"]}}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := client.List(context.Background())
	var listErr *transport.Error
	if !errors.As(err, &listErr) {
		t.Fatalf("expected *transport.Error, got %T", err)
	}
	if listErr.Message != "Failed to fetch users" || listErr.Status != 500 || listErr.Op != transport.OpList {
		t.Fatalf("unexpected list error: %+v", listErr)
	}

	_, err = client.Create(context.Background(), record.Record{Fields: map[string]string{}})
	var createErr *transport.Error
	if !errors.As(err, &createErr) {
		t.Fatalf("expected *transport.Error, got %T", err)
	}
	if createErr.Message != "Failed to create user" {
		t.Fatalf("message = %q", createErr.Message)
	}
	wantFields := map[string]string{"email": "Please enter a valid email address", "phoneNumber": "Taken"}
	if diff := cmp.Diff(wantFields, createErr.FieldErrors()); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Validation failed", "Try later"}, createErr.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}

	err = client.Delete(context.Background(), "missing")
	if !errors.Is(err, transport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNetworkFaultWrapsCause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	client, err := transport.NewClient(base, model.DefaultUserSchema())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.List(context.Background())
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.Err == nil || terr.Status != 0 {
		t.Fatalf("expected wrapped network error, got %#v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
