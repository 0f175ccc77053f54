package reports_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/helplink/internal/app/features/reports"
	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/domain/models"
	"github.com/dalemusser/helplink/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	handler := reports.NewHandler(db, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/reports", handler.MountRoutes)
	return r, db
}

func do(t *testing.T, r chi.Router, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, target, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) models.Report {
	t.Helper()
	env := testutil.DecodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	var rep models.Report
	if err := json.Unmarshal(env.Data, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return rep
}

func TestCreate_ChecksContentExists(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	reporter := fx.CreateUser(ctx, "uid-rep-reporter", "repreporter")
	owner := fx.CreateUser(ctx, "uid-rep-owner", "repowner")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Questionable request")

	rec := do(t, r, http.MethodPost, "/reports", map[string]any{
		"auth_uid":     reporter.AuthUID,
		"content_kind": "HelpRequest",
		"content_id":   hr.ID.Hex(),
		"reason":       "Spam",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
	rep := decodeReport(t, rec)
	if rep.Status != models.ReportPending {
		t.Errorf("status: got %q, want %q", rep.Status, models.ReportPending)
	}

	// Content that does not exist cannot be reported.
	rec = do(t, r, http.MethodPost, "/reports", map[string]any{
		"auth_uid":     reporter.AuthUID,
		"content_kind": "Donation",
		"content_id":   primitive.NewObjectID().Hex(),
		"reason":       "Fake",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing content status: got %d, want 404: %s", rec.Code, rec.Body.String())
	}

	// Unknown kinds and reasons are rejected.
	rec = do(t, r, http.MethodPost, "/reports", map[string]any{
		"auth_uid":     reporter.AuthUID,
		"content_kind": "Widget",
		"content_id":   hr.ID.Hex(),
		"reason":       "Spam",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodPost, "/reports", map[string]any{
		"auth_uid":     reporter.AuthUID,
		"content_kind": "HelpRequest",
		"content_id":   hr.ID.Hex(),
		"reason":       "Because",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown reason status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}

	// Re-reporting the same content is a duplicate.
	rec = do(t, r, http.MethodPost, "/reports", map[string]any{
		"auth_uid":     reporter.AuthUID,
		"content_kind": "HelpRequest",
		"content_id":   hr.ID.Hex(),
		"reason":       "Scam",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate report status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestVerify_AwardsReporterOnce(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	reporter := fx.CreateUser(ctx, "uid-ver-reporter", "verreporter")
	reviewer := fx.CreateUser(ctx, "uid-ver-reviewer", "verreviewer")
	owner := fx.CreateUser(ctx, "uid-ver-owner", "verowner")
	hr := fx.CreateHelpRequest(ctx, owner.ID, "Verified report target")

	rec := do(t, r, http.MethodPost, "/reports", map[string]any{
		"auth_uid":     reporter.AuthUID,
		"content_kind": "HelpRequest",
		"content_id":   hr.ID.Hex(),
		"reason":       "Scam",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d: %s", rec.Code, rec.Body.String())
	}
	rep := decodeReport(t, rec)

	rec = do(t, r, http.MethodPost, "/reports/"+rep.ID.Hex()+"/verify", map[string]any{
		"auth_uid": reviewer.AuthUID,
		"verified": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status: got %d: %s", rec.Code, rec.Body.String())
	}
	decided := decodeReport(t, rec)
	if decided.Status != models.ReportVerified {
		t.Errorf("status after verify: got %q, want %q", decided.Status, models.ReportVerified)
	}

	u, err := userstore.New(db).GetByAuthUID(ctx, reporter.AuthUID)
	if err != nil {
		t.Fatalf("load reporter: %v", err)
	}
	if u.Karma != models.KarmaReportVerified {
		t.Errorf("reporter karma: got %d, want %d", u.Karma, models.KarmaReportVerified)
	}

	// A second decision is rejected and the karma stays put.
	rec = do(t, r, http.MethodPost, "/reports/"+rep.ID.Hex()+"/verify", map[string]any{
		"auth_uid": reviewer.AuthUID,
		"verified": false,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second verify status: got %d, want 400: %s", rec.Code, rec.Body.String())
	}
	u, err = userstore.New(db).GetByAuthUID(ctx, reporter.AuthUID)
	if err != nil {
		t.Fatalf("load reporter: %v", err)
	}
	if u.Karma != models.KarmaReportVerified {
		t.Errorf("reporter karma after second verify: got %d, want %d", u.Karma, models.KarmaReportVerified)
	}
}

func TestVerify_RejectionAwardsNothing(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	reporter := fx.CreateUser(ctx, "uid-rej-reporter", "rejreporter")
	reviewer := fx.CreateUser(ctx, "uid-rej-reviewer", "rejreviewer")
	target := fx.CreateUser(ctx, "uid-rej-target", "rejtarget")

	rec := do(t, r, http.MethodPost, "/reports", map[string]any{
		"auth_uid":     reporter.AuthUID,
		"content_kind": "User",
		"content_id":   target.ID.Hex(),
		"reason":       "Inappropriate",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d: %s", rec.Code, rec.Body.String())
	}
	rep := decodeReport(t, rec)

	rec = do(t, r, http.MethodPost, "/reports/"+rep.ID.Hex()+"/verify", map[string]any{
		"auth_uid": reviewer.AuthUID,
		"verified": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status: got %d: %s", rec.Code, rec.Body.String())
	}
	decided := decodeReport(t, rec)
	if decided.Status != models.ReportRejected {
		t.Errorf("status after rejection: got %q, want %q", decided.Status, models.ReportRejected)
	}

	u, err := userstore.New(db).GetByAuthUID(ctx, reporter.AuthUID)
	if err != nil {
		t.Fatalf("load reporter: %v", err)
	}
	if u.Karma != 0 {
		t.Errorf("reporter karma after rejection: got %d, want 0", u.Karma)
	}
}
