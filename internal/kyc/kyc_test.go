package kyc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/forms"
	"github.com/coinvest/coinvest/internal/logging"
)

type fakeAPI struct {
	listErr  error
	uploaded string
	fields   map[string]string
}

func (f *fakeAPI) Get(_ context.Context, _ string, out any) error {
	if f.listErr != nil {
		return f.listErr
	}
	return json.Unmarshal([]byte(`[{"id":1,"document_type":"passport","status":"rejected","created_at":"2024-05-01T10:00:00Z"},{"id":2,"document_type":"passport","status":"pending","created_at":"2024-05-02T10:00:00Z"}]`), out)
}

func (f *fakeAPI) PostMultipart(_ context.Context, _ string, fields map[string]string, file apiclient.FilePart, out any) error {
	body, _ := io.ReadAll(file.Content)
	f.uploaded = file.Filename + ":" + string(body)
	f.fields = fields
	return json.Unmarshal([]byte(`{"id":3,"document_type":"passport","status":"pending","created_at":"2024-05-03T10:00:00Z"}`), out)
}

func TestDocumentsSwallowsErrors(t *testing.T) {
	svc := NewService(&fakeAPI{listErr: &apiclient.Error{Kind: apiclient.KindServer}}, logging.Discard())
	docs := svc.Documents(context.Background())
	if docs == nil || len(docs) != 0 {
		t.Fatalf("expected empty list, got %+v", docs)
	}
	if OverallStatus(docs) != StatusNotSubmitted {
		t.Fatal("expected not_submitted for no documents")
	}
}

func TestOverallStatus(t *testing.T) {
	docs := NewService(&fakeAPI{}, logging.Discard()).Documents(context.Background())
	if got := OverallStatus(docs); got != StatusPending {
		t.Fatalf("expected pending, got %s", got)
	}
	docs = append(docs, Document{Status: StatusApproved})
	if got := OverallStatus(docs); got != StatusApproved {
		t.Fatalf("expected approved, got %s", got)
	}
	if got := OverallStatus([]Document{{Status: StatusRejected}}); got != StatusRejected {
		t.Fatalf("expected rejected, got %s", got)
	}
}

func TestUploadValidates(t *testing.T) {
	api := &fakeAPI{}
	svc := NewService(api, logging.Discard())

	_, err := svc.Upload(context.Background(), "selfie", "me.gif", 10, strings.NewReader("x"))
	var verr *forms.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 2 {
		t.Fatalf("expected two field errors, got %v", err)
	}

	_, err = svc.Upload(context.Background(), TypePassport, "scan.pdf", MaxFileSize+1, strings.NewReader("x"))
	if !errors.As(err, &verr) || verr.Fields["file"] != "must be at most 5 MB" {
		t.Fatalf("expected size error, got %v", err)
	}
	if api.uploaded != "" {
		t.Fatal("invalid uploads must not reach the backend")
	}

	doc, err := svc.Upload(context.Background(), TypePassport, "/tmp/scans/Passport.JPG", 4, strings.NewReader("data"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.ID != 3 || api.uploaded != "Passport.JPG:data" || api.fields["document_type"] != TypePassport {
		t.Fatalf("unexpected upload %+v %s %v", doc, api.uploaded, api.fields)
	}
}
