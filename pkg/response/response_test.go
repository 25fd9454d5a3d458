package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	appErrors "github.com/careapp/carecoord/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOKAndFail(t *testing.T) {
	ok := OK("ABC123", "Invite code generated successfully!")
	if ok.Code != CodeOK || ok.Data != "ABC123" {
		t.Fatalf("unexpected envelope %+v", ok)
	}

	fail := Fail(CodeNotFound, "Worker not found!")
	if fail.Code != "404" || fail.Data != nil {
		t.Fatalf("unexpected envelope %+v", fail)
	}
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Success(ctx, gin.H{"id": "s1"}, "Schedule created successfully!")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Code != CodeOK {
		t.Fatalf("expected code 200 got %q", resp.Code)
	}
	if resp.Msg != "Schedule created successfully!" {
		t.Fatalf("unexpected msg %q", resp.Msg)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["id"] != "s1" {
		t.Fatalf("unexpected data %#v", resp.Data)
	}
}

func TestErrorKeepsTransportStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Error(ctx, CodeServerError, "Failed to create schedule: DB Error")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if raw["code"] != "500" {
		t.Fatalf("expected code 500 got %v", raw["code"])
	}
	if raw["msg"] != "Failed to create schedule: DB Error" {
		t.Fatalf("unexpected msg %v", raw["msg"])
	}
	if v, present := raw["data"]; !present || v != nil {
		t.Fatalf("expected explicit null data, got %v (present=%v)", v, present)
	}
}

func TestFromErrorWithAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	FromError(ctx, appErrors.NewNotFound("Schedule"))

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != CodeNotFound || resp.Msg != "Schedule not found!" {
		t.Fatalf("unexpected envelope %+v", resp)
	}
}

func TestFromErrorWithGenericError(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	FromError(ctx, errors.New("boom"))

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != CodeServerError {
		t.Fatalf("expected 500 code, got %q", resp.Code)
	}
	if resp.Msg != appErrors.ErrInternalServer.Message {
		t.Fatalf("internal detail must not leak, got %q", resp.Msg)
	}
}

func TestAbortWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	AbortWithError(ctx, http.StatusTooManyRequests, appErrors.ErrRateLimit)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if !ctx.IsAborted() {
		t.Fatal("expected context to be aborted")
	}
}
